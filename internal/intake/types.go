// Package intake manages client intake, caseworker assignment, and case
// tracking for a human-services program.
package intake

import "time"

// Client statuses.
const (
	StatusNew      = "new"
	StatusAssigned = "assigned"
	StatusActive   = "active"
	StatusClosed   = "closed"
)

// Urgency levels, lowest to highest.
const (
	UrgencyLow      = "low"
	UrgencyMedium   = "medium"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
)

// Client is a person receiving services.
type Client struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Needs        []string  `json:"needs"`
	Urgency      string    `json:"urgency"`
	Notes        string    `json:"notes,omitempty"`
	Status       string    `json:"status"`
	CaseworkerID string    `json:"caseworker_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Caseworker is a staff member who carries a caseload.
type Caseworker struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Specialties []string `json:"specialties"`
	MaxCaseload int      `json:"max_caseload"`
}

// Case tracks an open service engagement for a client.
type Case struct {
	ID           string     `json:"id"`
	ClientID     string     `json:"client_id"`
	CaseworkerID string     `json:"caseworker_id,omitempty"`
	Status       string     `json:"status"`
	Summary      string     `json:"summary,omitempty"`
	OpenedAt     time.Time  `json:"opened_at"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
}

// Appointment is a scheduled meeting between a client and a caseworker.
type Appointment struct {
	ID           string    `json:"id"`
	ClientID     string    `json:"client_id"`
	CaseworkerID string    `json:"caseworker_id,omitempty"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	Purpose      string    `json:"purpose"`
	Status       string    `json:"status"`
}

// ClientFilter narrows ListClients results. Zero values match everything.
type ClientFilter struct {
	Status       string
	CaseworkerID string
	Urgency      string
}

// AnalyticsSummary aggregates the current intake population.
type AnalyticsSummary struct {
	TotalClients         int            `json:"total_clients"`
	ByStatus             map[string]int `json:"by_status"`
	ByUrgency            map[string]int `json:"by_urgency"`
	ByNeed               map[string]int `json:"by_need"`
	OpenCases            int            `json:"open_cases"`
	UpcomingAppointments int            `json:"upcoming_appointments"`
}

// ValidUrgency reports whether s is a recognized urgency level.
func ValidUrgency(s string) bool {
	switch s {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}
