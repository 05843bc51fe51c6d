package web

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/caseflow-ai/caseflow/internal/ai"
	"github.com/caseflow-ai/caseflow/internal/intake"
)

const testPassword = "correct horse battery staple"

func newTestServer(t *testing.T) (*httptest.Server, *intake.MemoryStore) {
	t.Helper()

	store := intake.NewMemoryStore()
	router := ai.NewRouter(ai.RouterConfig{}, nil, nil, ai.NewRulesResolver(nil), nil)
	svc := intake.NewService(intake.ServiceConfig{Store: store, Router: router})

	hash, err := HashPassword(testPassword)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	srv := httptest.NewServer(NewServer(ServerConfig{
		Intake:    svc,
		AIRouter:  router,
		AdminHash: hash,
	}))
	t.Cleanup(srv.Close)
	return srv, store
}

func login(t *testing.T, srv *httptest.Server) *http.Cookie {
	t.Helper()

	body := fmt.Sprintf(`{"username":"admin","password":%q}`, testPassword)
	resp, err := http.Post(srv.URL+"/api/login", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func staffGet(t *testing.T, srv *httptest.Server, cookie *http.Cookie, path string) *http.Response {
	t.Helper()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	req.AddCookie(cookie)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func staffPost(t *testing.T, srv *httptest.Server, cookie *http.Cookie, path, body string) *http.Response {
	t.Helper()

	req, _ := http.NewRequest(http.MethodPost, srv.URL+path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestReadyz_FailingCheck(t *testing.T) {
	srv := httptest.NewServer(NewServer(ServerConfig{
		Ready: func(r *http.Request) error { return fmt.Errorf("db down") },
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatalf("GET /readyz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestIntakeSubmission(t *testing.T) {
	srv, store := newTestServer(t)
	store.CreateCaseworker(intake.Caseworker{Name: "Dana", Specialties: []string{"housing"}})

	body := `{"name":"Maria Lopez","needs":["housing"],"urgency":"critical"}`
	resp, err := http.Post(srv.URL+"/api/intake", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/intake: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var result intake.SubmissionResult
	decodeJSON(t, resp, &result)

	if result.Client == nil || result.Client.Name != "Maria Lopez" {
		t.Errorf("client = %+v", result.Client)
	}
	if result.CaseID == "" {
		t.Error("expected a case to be opened")
	}
	if result.Triage == nil || result.Triage.Triage == nil || result.Triage.Triage.Priority != "urgent" {
		t.Errorf("triage = %+v, want urgent", result.Triage)
	}
}

func TestIntakeSubmission_Invalid(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing-name", `{"needs":["housing"]}`},
		{"empty-name", `{"name":""}`},
		{"bad-urgency", `{"name":"X","urgency":"extreme"}`},
		{"extra-field", `{"name":"X","ssn":"000-00-0000"}`},
		{"not-json", `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/intake", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("POST /api/intake: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestRouteEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"task":"navigator","query":"I need help with housing"}`
	resp, err := http.Post(srv.URL+"/api/ai/route", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/ai/route: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got routeResponse
	decodeJSON(t, resp, &got)

	if got.Task != "navigator" {
		t.Errorf("task = %q, want navigator", got.Task)
	}
	if got.Result.Source != ai.SourceRules {
		t.Errorf("source = %q, want %q", got.Result.Source, ai.SourceRules)
	}
	if got.Result.Navigator == nil || got.Result.Navigator.Category != "housing" {
		t.Errorf("navigator = %+v, want housing category", got.Result.Navigator)
	}
}

func TestRouteEndpoint_Invalid(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing-task", `{"query":"hello"}`},
		{"unknown-task", `{"task":"summarize"}`},
		{"extra-field", `{"task":"navigator","model":"gpt-9"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/ai/route", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("POST /api/ai/route: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestStaffRoutesRequireAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	paths := []string{
		"/api/ai/stats",
		"/api/clients",
		"/api/analytics",
		"/api/export/csv",
	}
	for _, path := range paths {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want 401", path, resp.StatusCode)
		}
	}
}

func TestLoginLogout(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/login", "application/json",
		strings.NewReader(`{"username":"admin","password":"wrong"}`))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", resp.StatusCode)
	}

	cookie := login(t, srv)

	statsResp := staffGet(t, srv, cookie, "/api/ai/stats")
	statsResp.Body.Close()
	if statsResp.StatusCode != http.StatusOK {
		t.Errorf("stats with session status = %d, want 200", statsResp.StatusCode)
	}

	logoutResp := staffPost(t, srv, cookie, "/api/logout", "")
	logoutResp.Body.Close()

	afterResp := staffGet(t, srv, cookie, "/api/ai/stats")
	afterResp.Body.Close()
	if afterResp.StatusCode != http.StatusUnauthorized {
		t.Errorf("stats after logout status = %d, want 401", afterResp.StatusCode)
	}
}

func TestClientManagement(t *testing.T) {
	srv, store := newTestServer(t)
	cookie := login(t, srv)

	wResp := staffPost(t, srv, cookie, "/api/caseworkers",
		`{"name":"Dana","specialties":["housing"]}`)
	if wResp.StatusCode != http.StatusCreated {
		t.Fatalf("create caseworker status = %d, want 201", wResp.StatusCode)
	}
	var worker intake.Caseworker
	decodeJSON(t, wResp, &worker)

	clientID, err := store.CreateClient(intake.Client{Name: "Maria", Needs: []string{"housing"}})
	if err != nil {
		t.Fatalf("seeding client: %v", err)
	}

	listResp := staffGet(t, srv, cookie, "/api/clients?status=new")
	var clients []intake.Client
	decodeJSON(t, listResp, &clients)
	if len(clients) != 1 {
		t.Fatalf("got %d new clients, want 1", len(clients))
	}

	assignResp := staffPost(t, srv, cookie, "/api/clients/"+clientID+"/assign",
		fmt.Sprintf(`{"caseworker_id":%q}`, worker.ID))
	if assignResp.StatusCode != http.StatusOK {
		t.Fatalf("assign status = %d, want 200", assignResp.StatusCode)
	}
	var assigned intake.SubmissionResult
	decodeJSON(t, assignResp, &assigned)
	if assigned.Client.CaseworkerID != worker.ID {
		t.Errorf("CaseworkerID = %q, want %q", assigned.Client.CaseworkerID, worker.ID)
	}

	getResp := staffGet(t, srv, cookie, "/api/clients/"+clientID)
	var detail struct {
		Client       intake.Client        `json:"client"`
		Appointments []intake.Appointment `json:"appointments"`
	}
	decodeJSON(t, getResp, &detail)
	if detail.Client.ID != clientID {
		t.Errorf("client id = %q, want %q", detail.Client.ID, clientID)
	}
	if len(detail.Appointments) != 1 {
		t.Errorf("got %d appointments, want 1 from assignment", len(detail.Appointments))
	}

	closeResp := staffPost(t, srv, cookie, "/api/clients/"+clientID+"/close",
		`{"summary":"stably housed"}`)
	closeResp.Body.Close()
	if closeResp.StatusCode != http.StatusOK {
		t.Errorf("close status = %d, want 200", closeResp.StatusCode)
	}

	missingResp := staffGet(t, srv, cookie, "/api/clients/nope")
	missingResp.Body.Close()
	if missingResp.StatusCode != http.StatusNotFound {
		t.Errorf("missing client status = %d, want 404", missingResp.StatusCode)
	}
}

func TestAnalyticsEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	cookie := login(t, srv)

	store.CreateClient(intake.Client{Name: "A", Needs: []string{"housing"}, Urgency: intake.UrgencyHigh})
	store.CreateClient(intake.Client{Name: "B", Needs: []string{"food"}})

	resp := staffGet(t, srv, cookie, "/api/analytics")
	var sum intake.AnalyticsSummary
	decodeJSON(t, resp, &sum)

	if sum.TotalClients != 2 {
		t.Errorf("TotalClients = %d, want 2", sum.TotalClients)
	}
	if sum.ByNeed["housing"] != 1 {
		t.Errorf("ByNeed[housing] = %d, want 1", sum.ByNeed["housing"])
	}
}

func TestExportCSV(t *testing.T) {
	srv, store := newTestServer(t)
	cookie := login(t, srv)

	store.CreateClient(intake.Client{Name: "Maria", Needs: []string{"housing"}})

	resp := staffGet(t, srv, cookie, "/api/export/csv")
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	records, err := csv.NewReader(resp.Body).ReadAll()
	if err != nil {
		t.Fatalf("reading csv: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d rows, want header plus 1 client", len(records))
	}
}

func TestExportXLSX(t *testing.T) {
	srv, store := newTestServer(t)
	cookie := login(t, srv)

	store.CreateClient(intake.Client{Name: "Maria"})

	resp := staffGet(t, srv, cookie, "/api/export/xlsx")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	want := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	if ct := resp.Header.Get("Content-Type"); ct != want {
		t.Errorf("Content-Type = %q, want %q", ct, want)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("reading body: %v", err)
	}
	// XLSX files are zip archives.
	if buf.Len() < 4 || buf.String()[:2] != "PK" {
		t.Error("body does not look like a workbook")
	}
}
