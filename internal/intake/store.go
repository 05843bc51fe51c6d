package intake

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"
)

// Store persists clients, caseworkers, cases, and appointments.
type Store interface {
	CreateClient(c Client) (string, error)
	GetClient(id string) (*Client, error)
	ListClients(filter ClientFilter) ([]Client, error)
	UpdateClient(c Client) error

	CreateCaseworker(w Caseworker) (string, error)
	ListCaseworkers() ([]Caseworker, error)
	Caseload(caseworkerID string) (int, error)

	OpenCase(cs Case) (string, error)
	GetCaseByClient(clientID string) (*Case, error)
	CloseCase(id, summary string) error

	CreateAppointment(a Appointment) (string, error)
	ListAppointmentsByClient(clientID string) ([]Appointment, error)

	Analytics() (*AnalyticsSummary, error)
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	mu           sync.RWMutex
	clients      map[string]*Client
	caseworkers  map[string]*Caseworker
	cases        map[string]*Case
	appointments map[string]*Appointment
	now          func() time.Time
}

// NewMemoryStore creates a new in-memory intake store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		clients:      make(map[string]*Client),
		caseworkers:  make(map[string]*Caseworker),
		cases:        make(map[string]*Case),
		appointments: make(map[string]*Appointment),
		now:          time.Now,
	}
}

func (s *MemoryStore) CreateClient(c Client) (string, error) {
	if c.Name == "" {
		return "", fmt.Errorf("client name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := generateID()
	c.ID = id
	if c.Status == "" {
		c.Status = StatusNew
	}
	if c.Urgency == "" {
		c.Urgency = UrgencyMedium
	}
	if c.Needs == nil {
		c.Needs = []string{}
	}
	c.CreatedAt = s.now()
	c.UpdatedAt = c.CreatedAt
	s.clients[id] = &c
	return id, nil
}

func (s *MemoryStore) GetClient(id string) (*Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clients[id]
	if !ok {
		return nil, fmt.Errorf("client not found: %s", id)
	}
	copied := *c
	return &copied, nil
}

func (s *MemoryStore) ListClients(filter ClientFilter) ([]Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Client{}
	for _, c := range s.clients {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.CaseworkerID != "" && c.CaseworkerID != filter.CaseworkerID {
			continue
		}
		if filter.Urgency != "" && c.Urgency != filter.Urgency {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (s *MemoryStore) UpdateClient(c Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.clients[c.ID]
	if !ok {
		return fmt.Errorf("client not found: %s", c.ID)
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.now()
	s.clients[c.ID] = &c
	return nil
}

func (s *MemoryStore) CreateCaseworker(w Caseworker) (string, error) {
	if w.Name == "" {
		return "", fmt.Errorf("caseworker name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := generateID()
	w.ID = id
	if w.MaxCaseload == 0 {
		w.MaxCaseload = 20
	}
	if w.Specialties == nil {
		w.Specialties = []string{}
	}
	s.caseworkers[id] = &w
	return id, nil
}

func (s *MemoryStore) ListCaseworkers() ([]Caseworker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Caseworker{}
	for _, w := range s.caseworkers {
		out = append(out, *w)
	}
	return out, nil
}

func (s *MemoryStore) Caseload(caseworkerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, c := range s.clients {
		if c.CaseworkerID == caseworkerID && c.Status != StatusClosed {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) OpenCase(cs Case) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[cs.ClientID]; !ok {
		return "", fmt.Errorf("client not found: %s", cs.ClientID)
	}

	id := generateID()
	cs.ID = id
	if cs.Status == "" {
		cs.Status = "open"
	}
	cs.OpenedAt = s.now()
	s.cases[id] = &cs
	return id, nil
}

func (s *MemoryStore) GetCaseByClient(clientID string) (*Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, cs := range s.cases {
		if cs.ClientID == clientID && cs.ClosedAt == nil {
			copied := *cs
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("no open case for client: %s", clientID)
}

func (s *MemoryStore) CloseCase(id, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs, ok := s.cases[id]
	if !ok {
		return fmt.Errorf("case not found: %s", id)
	}
	now := s.now()
	cs.Status = StatusClosed
	cs.Summary = summary
	cs.ClosedAt = &now
	return nil
}

func (s *MemoryStore) CreateAppointment(a Appointment) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[a.ClientID]; !ok {
		return "", fmt.Errorf("client not found: %s", a.ClientID)
	}
	if a.ScheduledAt.IsZero() {
		return "", fmt.Errorf("appointment time is required")
	}

	id := generateID()
	a.ID = id
	if a.Status == "" {
		a.Status = "scheduled"
	}
	s.appointments[id] = &a
	return id, nil
}

func (s *MemoryStore) ListAppointmentsByClient(clientID string) ([]Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Appointment{}
	for _, a := range s.appointments {
		if a.ClientID == clientID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *MemoryStore) Analytics() (*AnalyticsSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &AnalyticsSummary{
		ByStatus:  map[string]int{},
		ByUrgency: map[string]int{},
		ByNeed:    map[string]int{},
	}
	for _, c := range s.clients {
		summary.TotalClients++
		summary.ByStatus[c.Status]++
		summary.ByUrgency[c.Urgency]++
		for _, need := range c.Needs {
			summary.ByNeed[need]++
		}
	}
	for _, cs := range s.cases {
		if cs.ClosedAt == nil {
			summary.OpenCases++
		}
	}
	now := s.now()
	for _, a := range s.appointments {
		if a.Status == "scheduled" && a.ScheduledAt.After(now) {
			summary.UpcomingAppointments++
		}
	}
	return summary, nil
}

func generateID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x", b)
}
