package intake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed intake store. The schema must
// already exist (database.Migrate).
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) CreateClient(c Client) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if c.Name == "" {
		return "", fmt.Errorf("client name is required")
	}
	if c.Status == "" {
		c.Status = StatusNew
	}
	if c.Urgency == "" {
		c.Urgency = UrgencyMedium
	}
	if c.Needs == nil {
		c.Needs = []string{}
	}

	id := generateID()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO clients (id, name, needs, urgency, notes, status, caseworker_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, c.Name, c.Needs, c.Urgency, c.Notes, c.Status, nullIfEmpty(c.CaseworkerID),
	)
	if err != nil {
		return "", fmt.Errorf("create client: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetClient(id string) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	return s.scanClient(s.pool.QueryRow(ctx,
		`SELECT id, name, needs, urgency, notes, status, caseworker_id, created_at, updated_at
		 FROM clients WHERE id = $1`,
		id,
	))
}

func (s *PostgresStore) ListClients(filter ClientFilter) ([]Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, name, needs, urgency, notes, status, caseworker_id, created_at, updated_at
		 FROM clients
		 WHERE ($1 = '' OR status = $1)
		   AND ($2 = '' OR caseworker_id = $2)
		   AND ($3 = '' OR urgency = $3)
		 ORDER BY created_at DESC`,
		filter.Status, filter.CaseworkerID, filter.Urgency,
	)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	out := []Client{}
	for rows.Next() {
		c, err := s.scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateClient(c Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx,
		`UPDATE clients
		 SET name = $2, needs = $3, urgency = $4, notes = $5, status = $6,
		     caseworker_id = $7, updated_at = NOW()
		 WHERE id = $1`,
		c.ID, c.Name, c.Needs, c.Urgency, c.Notes, c.Status, nullIfEmpty(c.CaseworkerID),
	)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("client not found: %s", c.ID)
	}
	return nil
}

func (s *PostgresStore) CreateCaseworker(w Caseworker) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if w.Name == "" {
		return "", fmt.Errorf("caseworker name is required")
	}
	if w.MaxCaseload == 0 {
		w.MaxCaseload = 20
	}
	if w.Specialties == nil {
		w.Specialties = []string{}
	}

	id := generateID()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO caseworkers (id, name, specialties, max_caseload)
		 VALUES ($1, $2, $3, $4)`,
		id, w.Name, w.Specialties, w.MaxCaseload,
	)
	if err != nil {
		return "", fmt.Errorf("create caseworker: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) ListCaseworkers() ([]Caseworker, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, name, specialties, max_caseload FROM caseworkers ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list caseworkers: %w", err)
	}
	defer rows.Close()

	out := []Caseworker{}
	for rows.Next() {
		var w Caseworker
		if err := rows.Scan(&w.ID, &w.Name, &w.Specialties, &w.MaxCaseload); err != nil {
			return nil, fmt.Errorf("scan caseworker: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate caseworkers: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Caseload(caseworkerID string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM clients WHERE caseworker_id = $1 AND status <> $2`,
		caseworkerID, StatusClosed,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count caseload: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) OpenCase(cs Case) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if cs.Status == "" {
		cs.Status = "open"
	}

	id := generateID()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO cases (id, client_id, caseworker_id, status, summary)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, cs.ClientID, nullIfEmpty(cs.CaseworkerID), cs.Status, cs.Summary,
	)
	if err != nil {
		return "", fmt.Errorf("open case: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetCaseByClient(clientID string) (*Case, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	cs := &Case{}
	var caseworkerID *string
	err := s.pool.QueryRow(ctx,
		`SELECT id, client_id, caseworker_id, status, summary, opened_at, closed_at
		 FROM cases
		 WHERE client_id = $1 AND closed_at IS NULL
		 ORDER BY opened_at DESC
		 LIMIT 1`,
		clientID,
	).Scan(&cs.ID, &cs.ClientID, &caseworkerID, &cs.Status, &cs.Summary, &cs.OpenedAt, &cs.ClosedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no open case for client: %s", clientID)
		}
		return nil, fmt.Errorf("get case: %w", err)
	}
	if caseworkerID != nil {
		cs.CaseworkerID = *caseworkerID
	}
	return cs, nil
}

func (s *PostgresStore) CloseCase(id, summary string) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx,
		`UPDATE cases SET status = $2, summary = $3, closed_at = NOW() WHERE id = $1`,
		id, StatusClosed, summary,
	)
	if err != nil {
		return fmt.Errorf("close case: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("case not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) CreateAppointment(a Appointment) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if a.ScheduledAt.IsZero() {
		return "", fmt.Errorf("appointment time is required")
	}
	if a.Status == "" {
		a.Status = "scheduled"
	}

	id := generateID()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO appointments (id, client_id, caseworker_id, scheduled_at, purpose, status)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, a.ClientID, nullIfEmpty(a.CaseworkerID), a.ScheduledAt, a.Purpose, a.Status,
	)
	if err != nil {
		return "", fmt.Errorf("create appointment: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) ListAppointmentsByClient(clientID string) ([]Appointment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, client_id, caseworker_id, scheduled_at, purpose, status
		 FROM appointments
		 WHERE client_id = $1
		 ORDER BY scheduled_at ASC`,
		clientID,
	)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	out := []Appointment{}
	for rows.Next() {
		var a Appointment
		var caseworkerID *string
		if err := rows.Scan(&a.ID, &a.ClientID, &caseworkerID, &a.ScheduledAt, &a.Purpose, &a.Status); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		if caseworkerID != nil {
			a.CaseworkerID = *caseworkerID
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointments: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Analytics() (*AnalyticsSummary, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	summary := &AnalyticsSummary{
		ByStatus:  map[string]int{},
		ByUrgency: map[string]int{},
		ByNeed:    map[string]int{},
	}

	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clients`).Scan(&summary.TotalClients); err != nil {
		return nil, fmt.Errorf("count clients: %w", err)
	}

	if err := s.aggregate(ctx, `SELECT status, COUNT(*) FROM clients GROUP BY status`, summary.ByStatus); err != nil {
		return nil, err
	}
	if err := s.aggregate(ctx, `SELECT urgency, COUNT(*) FROM clients GROUP BY urgency`, summary.ByUrgency); err != nil {
		return nil, err
	}
	if err := s.aggregate(ctx,
		`SELECT need, COUNT(*) FROM clients, unnest(needs) AS need GROUP BY need`,
		summary.ByNeed,
	); err != nil {
		return nil, err
	}

	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM cases WHERE closed_at IS NULL`,
	).Scan(&summary.OpenCases); err != nil {
		return nil, fmt.Errorf("count open cases: %w", err)
	}
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE status = 'scheduled' AND scheduled_at > NOW()`,
	).Scan(&summary.UpcomingAppointments); err != nil {
		return nil, fmt.Errorf("count appointments: %w", err)
	}

	return summary, nil
}

func (s *PostgresStore) aggregate(ctx context.Context, query string, dest map[string]int) error {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("aggregate query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("scan aggregate row: %w", err)
		}
		dest[key] = count
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanClient(row rowScanner) (*Client, error) {
	c := &Client{}
	var caseworkerID *string
	err := row.Scan(&c.ID, &c.Name, &c.Needs, &c.Urgency, &c.Notes, &c.Status,
		&caseworkerID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("client not found")
		}
		return nil, fmt.Errorf("scan client: %w", err)
	}
	if caseworkerID != nil {
		c.CaseworkerID = *caseworkerID
	}
	return c, nil
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}
