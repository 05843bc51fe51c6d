package web

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/caseflow-ai/caseflow/internal/ai"
	"github.com/caseflow-ai/caseflow/internal/intake"
	"github.com/caseflow-ai/caseflow/internal/report"
)

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return body, nil
}

// handleIntake accepts a public intake submission.
func (s *Server) handleIntake(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateJSON(intakeSchema, body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var sub intake.Submission
	if err := json.Unmarshal(body, &sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.intake.Submit(r.Context(), sub)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

type routeRequest struct {
	Task    string           `json:"task"`
	Query   string           `json:"query,omitempty"`
	Client  *ai.ClientRecord `json:"client,omitempty"`
	Options ai.RouteOptions  `json:"options"`
}

type routeResponse struct {
	Task   string         `json:"task"`
	Result ai.RouteResult `json:"result"`
}

// handleRoute serves the navigator endpoint. Route never fails; bad requests
// are the only error path.
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	if s.aiRouter == nil {
		writeError(w, http.StatusServiceUnavailable, "navigator unavailable")
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateJSON(routeSchema, body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req routeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	task, err := ai.ParseTask(req.Task)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := s.aiRouter.Route(r.Context(), task, ai.RouteInput{
		Query:  req.Query,
		Client: req.Client,
	}, req.Options)

	writeJSON(w, http.StatusOK, routeResponse{Task: task.String(), Result: result})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.aiRouter == nil {
		writeJSON(w, http.StatusOK, ai.Stats{})
		return
	}
	writeJSON(w, http.StatusOK, s.aiRouter.Stats())
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	clients, err := s.intake.Store().ListClients(intake.ClientFilter{
		Status:       q.Get("status"),
		CaseworkerID: q.Get("caseworker_id"),
		Urgency:      q.Get("urgency"),
	})
	if err != nil {
		slog.Error("listing clients", "error", err)
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	client, err := s.intake.Store().GetClient(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "client not found")
		return
	}

	appts, err := s.intake.Store().ListAppointmentsByClient(id)
	if err != nil {
		slog.Error("listing appointments", "client_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"client":       client,
		"appointments": appts,
	})
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		CaseworkerID string `json:"caseworker_id"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil || req.CaseworkerID == "" {
		writeError(w, http.StatusBadRequest, "caseworker_id is required")
		return
	}

	result, err := s.intake.AssignCaseworker(id, req.CaseworkerID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCloseCase(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		Summary string `json:"summary"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.intake.CloseCase(id, req.Summary); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

func (s *Server) handleListCaseworkers(w http.ResponseWriter, r *http.Request) {
	workers, err := s.intake.Store().ListCaseworkers()
	if err != nil {
		slog.Error("listing caseworkers", "error", err)
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}
	writeJSON(w, http.StatusOK, workers)
}

func (s *Server) handleCreateCaseworker(w http.ResponseWriter, r *http.Request) {
	var worker intake.Caseworker
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&worker); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.intake.Store().CreateCaseworker(worker)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	worker.ID = id
	writeJSON(w, http.StatusCreated, worker)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	summary, err := s.intake.Analytics()
	if err != nil {
		slog.Error("aggregating analytics", "error", err)
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	rep, err := report.Build(s.intake.Store())
	if err != nil {
		slog.Error("building report", "error", err)
		writeError(w, http.StatusInternalServerError, "report error")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", exportFilename("csv"))
	if err := rep.WriteCSV(w); err != nil {
		slog.Error("writing csv export", "error", err)
	}
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	rep, err := report.Build(s.intake.Store())
	if err != nil {
		slog.Error("building report", "error", err)
		writeError(w, http.StatusInternalServerError, "report error")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", exportFilename("xlsx"))
	if err := rep.WriteXLSX(w); err != nil {
		slog.Error("writing xlsx export", "error", err)
	}
}

func exportFilename(ext string) string {
	return fmt.Sprintf(`attachment; filename="caseflow-%s.%s"`, time.Now().Format("2006-01-02"), ext)
}
