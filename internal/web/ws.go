package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/caseflow-ai/caseflow/internal/ai"
	"github.com/caseflow-ai/caseflow/internal/intake"
)

// liveStats is one frame of the dashboard stream.
type liveStats struct {
	At        time.Time                `json:"at"`
	AI        ai.Stats                 `json:"ai"`
	Analytics *intake.AnalyticsSummary `json:"analytics"`
}

// handleStatsLive pushes a stats frame immediately on connect and then every
// statsInterval until the client disconnects.
func (s *Server) handleStatsLive(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	ctx := r.Context()
	ticker := time.NewTicker(s.statsInterval)
	defer ticker.Stop()

	for {
		frame, err := s.statsFrame()
		if err != nil {
			slog.Error("building stats frame", "error", err)
			conn.Close(websocket.StatusInternalError, "stats unavailable")
			return
		}
		if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
			return
		}

		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) statsFrame() ([]byte, error) {
	summary, err := s.intake.Analytics()
	if err != nil {
		return nil, err
	}

	frame := liveStats{
		At:        time.Now(),
		Analytics: summary,
	}
	if s.aiRouter != nil {
		frame.AI = s.aiRouter.Stats()
	}
	return json.Marshal(frame)
}
