package intake

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/caseflow-ai/caseflow/internal/platform/database"
)

func TestNewPostgresStore_NilPool(t *testing.T) {
	if _, err := NewPostgresStore(nil); err == nil {
		t.Fatal("NewPostgresStore() should reject a nil pool")
	}
}

// startPostgres brings up a disposable PostgreSQL container and returns a
// migrated pool.
func startPostgres(t *testing.T) *database.DB {
	t.Helper()

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("caseflow"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(ctr)
	})

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	db, err := database.New(ctx, url, 5, 1)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	t.Cleanup(db.Close)

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return db
}

func TestPostgresStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	db := startPostgres(t)
	store, err := NewPostgresStore(db.Pool)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}

	wID, err := store.CreateCaseworker(Caseworker{Name: "Dana", Specialties: []string{"housing"}})
	if err != nil {
		t.Fatalf("CreateCaseworker() error = %v", err)
	}

	clientID, err := store.CreateClient(Client{
		Name:    "Maria Lopez",
		Needs:   []string{"housing", "food"},
		Urgency: UrgencyHigh,
	})
	if err != nil {
		t.Fatalf("CreateClient() error = %v", err)
	}

	client, err := store.GetClient(clientID)
	if err != nil {
		t.Fatalf("GetClient() error = %v", err)
	}
	if client.Name != "Maria Lopez" || len(client.Needs) != 2 {
		t.Errorf("client = %+v, want the inserted record", client)
	}

	client.CaseworkerID = wID
	client.Status = StatusAssigned
	if err := store.UpdateClient(*client); err != nil {
		t.Fatalf("UpdateClient() error = %v", err)
	}

	load, err := store.Caseload(wID)
	if err != nil {
		t.Fatalf("Caseload() error = %v", err)
	}
	if load != 1 {
		t.Errorf("Caseload() = %d, want 1", load)
	}

	caseID, err := store.OpenCase(Case{ClientID: clientID, CaseworkerID: wID})
	if err != nil {
		t.Fatalf("OpenCase() error = %v", err)
	}
	cs, err := store.GetCaseByClient(clientID)
	if err != nil {
		t.Fatalf("GetCaseByClient() error = %v", err)
	}
	if cs.ID != caseID {
		t.Errorf("case id = %q, want %q", cs.ID, caseID)
	}

	apptID, err := store.CreateAppointment(Appointment{
		ClientID:     clientID,
		CaseworkerID: wID,
		ScheduledAt:  time.Now().Add(24 * time.Hour),
		Purpose:      "intake interview",
	})
	if err != nil {
		t.Fatalf("CreateAppointment() error = %v", err)
	}
	appts, err := store.ListAppointmentsByClient(clientID)
	if err != nil {
		t.Fatalf("ListAppointmentsByClient() error = %v", err)
	}
	if len(appts) != 1 || appts[0].ID != apptID {
		t.Errorf("appointments = %v, want just %s", appts, apptID)
	}

	sum, err := store.Analytics()
	if err != nil {
		t.Fatalf("Analytics() error = %v", err)
	}
	if sum.TotalClients != 1 || sum.ByNeed["housing"] != 1 || sum.OpenCases != 1 {
		t.Errorf("analytics = %+v", sum)
	}
	if sum.UpcomingAppointments != 1 {
		t.Errorf("UpcomingAppointments = %d, want 1", sum.UpcomingAppointments)
	}

	filtered, err := store.ListClients(ClientFilter{Status: StatusAssigned})
	if err != nil {
		t.Fatalf("ListClients() error = %v", err)
	}
	if len(filtered) != 1 {
		t.Errorf("got %d assigned clients, want 1", len(filtered))
	}

	if err := store.CloseCase(caseID, "housed"); err != nil {
		t.Fatalf("CloseCase() error = %v", err)
	}
	if _, err := store.GetCaseByClient(clientID); err == nil {
		t.Error("closed case should not be returned")
	}

	logger := NewPostgresEventLogger(db.Pool)
	if err := logger.LogEvent(Event{
		ClientID:  clientID,
		EventType: EventCaseClosed,
		Data:      map[string]any{"case_id": caseID},
	}); err != nil {
		t.Fatalf("LogEvent() error = %v", err)
	}
}
