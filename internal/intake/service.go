package intake

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/caseflow-ai/caseflow/internal/ai"
)

const (
	defaultLeadTime = 48 * time.Hour
	urgentLeadTime  = 24 * time.Hour
)

// ServiceConfig holds dependencies for the intake service.
type ServiceConfig struct {
	Store  Store
	Events EventLogger
	Router *ai.Router // optional; nil disables submission triage
}

// Service orchestrates intake: client creation, caseworker assignment,
// appointment scheduling, and triage.
type Service struct {
	store  Store
	events EventLogger
	router *ai.Router
	now    func() time.Time
}

// NewService creates a new intake service.
func NewService(cfg ServiceConfig) *Service {
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	return &Service{
		store:  store,
		events: events,
		router: cfg.Router,
		now:    time.Now,
	}
}

// Submission is an intake form as received from the public site.
type Submission struct {
	Name    string   `json:"name"`
	Needs   []string `json:"needs"`
	Urgency string   `json:"urgency"`
	Notes   string   `json:"notes,omitempty"`
}

// SubmissionResult reports what the intake pipeline did for one submission.
type SubmissionResult struct {
	Client        *Client         `json:"client"`
	CaseID        string          `json:"case_id,omitempty"`
	AppointmentID string          `json:"appointment_id,omitempty"`
	Triage        *ai.RouteResult `json:"triage,omitempty"`
}

// Submit runs the full intake pipeline for one submission: create the client,
// assign a caseworker if one has capacity, open a case, book the first
// appointment, and triage the record.
func (s *Service) Submit(ctx context.Context, sub Submission) (*SubmissionResult, error) {
	if sub.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if sub.Urgency == "" {
		sub.Urgency = UrgencyMedium
	}
	if !ValidUrgency(sub.Urgency) {
		return nil, fmt.Errorf("unknown urgency: %q", sub.Urgency)
	}

	clientID, err := s.store.CreateClient(Client{
		Name:    sub.Name,
		Needs:   sub.Needs,
		Urgency: sub.Urgency,
		Notes:   sub.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	if err := s.events.LogEvent(Event{
		ClientID:  clientID,
		EventType: EventClientSubmitted,
		Data:      map[string]any{"urgency": sub.Urgency, "needs": sub.Needs},
	}); err != nil {
		slog.Warn("event log failed", "type", EventClientSubmitted, "error", err)
	}

	result := &SubmissionResult{}

	caseworker, err := s.pickCaseworker(sub.Needs)
	if err != nil {
		slog.Warn("caseworker lookup failed", "client_id", clientID, "error", err)
	}
	if caseworker != nil {
		caseID, apptID, err := s.assign(clientID, caseworker, sub.Urgency)
		if err != nil {
			return nil, err
		}
		result.CaseID = caseID
		result.AppointmentID = apptID
	}

	client, err := s.store.GetClient(clientID)
	if err != nil {
		return nil, fmt.Errorf("reload client: %w", err)
	}
	result.Client = client

	if s.router != nil {
		triage := s.router.Route(ctx, ai.TaskTriage, ai.RouteInput{
			Client: &ai.ClientRecord{
				ID:      client.ID,
				Name:    client.Name,
				Needs:   client.Needs,
				Urgency: client.Urgency,
				Notes:   client.Notes,
			},
		}, ai.RouteOptions{})
		result.Triage = &triage
	}

	slog.Info("intake submission processed",
		"client_id", clientID,
		"urgency", sub.Urgency,
		"assigned", result.CaseID != "",
	)
	return result, nil
}

// AssignCaseworker assigns the named caseworker to the client, opens a case,
// and books the first appointment.
func (s *Service) AssignCaseworker(clientID, caseworkerID string) (*SubmissionResult, error) {
	client, err := s.store.GetClient(clientID)
	if err != nil {
		return nil, err
	}

	var caseworker *Caseworker
	workers, err := s.store.ListCaseworkers()
	if err != nil {
		return nil, err
	}
	for i := range workers {
		if workers[i].ID == caseworkerID {
			caseworker = &workers[i]
			break
		}
	}
	if caseworker == nil {
		return nil, fmt.Errorf("caseworker not found: %s", caseworkerID)
	}

	caseID, apptID, err := s.assign(clientID, caseworker, client.Urgency)
	if err != nil {
		return nil, err
	}

	client, err = s.store.GetClient(clientID)
	if err != nil {
		return nil, err
	}
	return &SubmissionResult{Client: client, CaseID: caseID, AppointmentID: apptID}, nil
}

// CloseCase closes the client's open case and marks the client closed.
func (s *Service) CloseCase(clientID, summary string) error {
	cs, err := s.store.GetCaseByClient(clientID)
	if err != nil {
		return err
	}
	if err := s.store.CloseCase(cs.ID, summary); err != nil {
		return err
	}

	client, err := s.store.GetClient(clientID)
	if err != nil {
		return err
	}
	client.Status = StatusClosed
	if err := s.store.UpdateClient(*client); err != nil {
		return err
	}

	if err := s.events.LogEvent(Event{
		ClientID:  clientID,
		EventType: EventCaseClosed,
		Data:      map[string]any{"case_id": cs.ID},
	}); err != nil {
		slog.Warn("event log failed", "type", EventCaseClosed, "error", err)
	}
	return nil
}

// Analytics returns the aggregate intake summary.
func (s *Service) Analytics() (*AnalyticsSummary, error) {
	return s.store.Analytics()
}

// Store exposes the underlying store for read paths.
func (s *Service) Store() Store {
	return s.store
}

// pickCaseworker prefers a specialty match with the smallest caseload, then
// any caseworker with capacity. Returns nil when nobody can take the client.
func (s *Service) pickCaseworker(needs []string) (*Caseworker, error) {
	workers, err := s.store.ListCaseworkers()
	if err != nil {
		return nil, err
	}

	var best *Caseworker
	bestLoad := 0
	bestMatches := false
	for i := range workers {
		w := &workers[i]
		load, err := s.store.Caseload(w.ID)
		if err != nil {
			return nil, err
		}
		if load >= w.MaxCaseload {
			continue
		}
		matches := specialtyMatch(w.Specialties, needs)
		switch {
		case best == nil,
			matches && !bestMatches,
			matches == bestMatches && load < bestLoad:
			best = w
			bestLoad = load
			bestMatches = matches
		}
	}
	return best, nil
}

func (s *Service) assign(clientID string, w *Caseworker, urgency string) (caseID, apptID string, err error) {
	client, err := s.store.GetClient(clientID)
	if err != nil {
		return "", "", err
	}
	client.CaseworkerID = w.ID
	client.Status = StatusAssigned
	if err := s.store.UpdateClient(*client); err != nil {
		return "", "", fmt.Errorf("assign caseworker: %w", err)
	}

	caseID, err = s.store.OpenCase(Case{ClientID: clientID, CaseworkerID: w.ID})
	if err != nil {
		return "", "", fmt.Errorf("open case: %w", err)
	}

	lead := defaultLeadTime
	if urgency == UrgencyHigh || urgency == UrgencyCritical {
		lead = urgentLeadTime
	}
	apptID, err = s.store.CreateAppointment(Appointment{
		ClientID:     clientID,
		CaseworkerID: w.ID,
		ScheduledAt:  s.now().Add(lead),
		Purpose:      "intake interview",
	})
	if err != nil {
		return "", "", fmt.Errorf("book appointment: %w", err)
	}

	if err := s.events.LogEvent(Event{
		ClientID:  clientID,
		EventType: EventCaseworkerAssigned,
		Data:      map[string]any{"caseworker_id": w.ID, "case_id": caseID},
	}); err != nil {
		slog.Warn("event log failed", "type", EventCaseworkerAssigned, "error", err)
	}
	if err := s.events.LogEvent(Event{
		ClientID:  clientID,
		EventType: EventAppointmentBooked,
		Data:      map[string]any{"appointment_id": apptID},
	}); err != nil {
		slog.Warn("event log failed", "type", EventAppointmentBooked, "error", err)
	}

	return caseID, apptID, nil
}

func specialtyMatch(specialties, needs []string) bool {
	for _, sp := range specialties {
		for _, need := range needs {
			if sp == need {
				return true
			}
		}
	}
	return false
}
