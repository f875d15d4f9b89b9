package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"classroom/internal/core"
	"classroom/internal/log"
	"classroom/internal/services"
	"classroom/internal/storage/memory"
	"classroom/internal/store"
)

const testToken = "secret"

type fakeReader struct {
	guesses []core.StudentGuess
}

func (f fakeReader) ReadRoster(context.Context, []byte) ([]core.StudentGuess, error) {
	return f.guesses, nil
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("down") }

func newTestServer(t *testing.T, images services.RosterImageReader, opts Options) (*Server, *services.LedgerService) {
	t.Helper()
	kv := memory.New()
	svc := services.NewLedgerService(store.NewStores(kv, log.Discard()), nil, images, log.Discard())
	if opts.OfficerToken == "" {
		opts.OfficerToken = testToken
	}
	if opts.Store == nil {
		opts.Store = kv
	}
	srv := NewServer(":0", svc, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, svc
}

func do(t *testing.T, srv *Server, method, path, body string, officer bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if officer {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t, nil, Options{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "", false)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	down, _ := newTestServer(t, nil, Options{Store: failingPinger{}})
	if rr := do(t, down, http.MethodGet, "/readyz", "", false); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when store is down, got %d", rr.Code)
	}
}

func TestDashboardRenders(t *testing.T) {
	srv, svc := newTestServer(t, nil, Options{})
	if _, err := svc.AddStudent(context.Background(), "Alice", core.Female); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SetCollectionDay(context.Background(), svc.Today(), true); err != nil {
		t.Fatal(err)
	}

	rr := do(t, srv, http.MethodGet, "/", "", true)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{"Class Funds", "Alice", "data-toggle=", "Officer"} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
	if rr.Header().Get("Content-Security-Policy") == "" {
		t.Error("security headers not applied")
	}

	viewer := do(t, srv, http.MethodGet, "/", "", false)
	if strings.Contains(viewer.Body.String(), "data-toggle=") {
		t.Error("viewer should not get toggle controls")
	}
}

func TestRoleGate(t *testing.T) {
	srv, _ := newTestServer(t, nil, Options{})

	tests := []struct {
		name   string
		setup  func(*http.Request)
		want   int
		wantAs Role
	}{
		{"anonymous", func(*http.Request) {}, http.StatusForbidden, RoleViewer},
		{"wrong token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusForbidden, RoleViewer},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+testToken) }, http.StatusCreated, RoleOfficer},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: OfficerCookie, Value: testToken}) }, http.StatusCreated, RoleOfficer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/students", strings.NewReader(`{"name":"Ann","gender":"F"}`))
			tt.setup(req)
			rr := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.want, rr.Body.String())
			}

			req = httptest.NewRequest(http.MethodGet, "/api/role", nil)
			tt.setup(req)
			rr = httptest.NewRecorder()
			srv.Handler.ServeHTTP(rr, req)
			var got map[string]Role
			decode(t, rr, &got)
			if got["role"] != tt.wantAs {
				t.Fatalf("role=%q want %q", got["role"], tt.wantAs)
			}
		})
	}
}

func TestEmptyTokenDisablesWrites(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer ")
	if RoleFromRequest(req, "") != RoleViewer {
		t.Fatal("empty officer token must never grant the officer role")
	}
}

func TestTogglePaymentFlow(t *testing.T) {
	srv, svc := newTestServer(t, nil, Options{})
	today := svc.Today().String()

	rr := do(t, srv, http.MethodPost, "/api/students", `{"name":"Alice"}`, true)
	var st core.Student
	decode(t, rr, &st)

	toggle := "/api/students/" + st.ID + "/payments/" + today + "/toggle"
	if rr := do(t, srv, http.MethodPost, toggle, "", true); rr.Code != http.StatusConflict {
		t.Fatalf("toggle on inactive date: status=%d", rr.Code)
	}

	if rr := do(t, srv, http.MethodPut, "/api/settings/collection-days/"+today, `{"active":true}`, true); rr.Code != http.StatusOK {
		t.Fatalf("activate: status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodPost, toggle, "", true)
	if rr.Code != http.StatusOK {
		t.Fatalf("toggle: status=%d body=%s", rr.Code, rr.Body.String())
	}
	var got struct {
		Amount float64 `json:"amount"`
	}
	decode(t, rr, &got)
	if got.Amount != 2000 {
		t.Fatalf("toggled amount=%v want 2000", got.Amount)
	}

	rr = do(t, srv, http.MethodGet, "/api/overview", "", false)
	var ov struct {
		Summary struct {
			Income float64 `json:"income"`
		} `json:"summary"`
	}
	decode(t, rr, &ov)
	if ov.Summary.Income != 2000 {
		t.Fatalf("income=%v want 2000", ov.Summary.Income)
	}
}

func TestBulkMarkAndQuota(t *testing.T) {
	srv, svc := newTestServer(t, nil, Options{})
	today := svc.Today().String()
	do(t, srv, http.MethodPost, "/api/students/import", "Alice\nF Beth\n", true)
	do(t, srv, http.MethodPut, "/api/settings/collection-days/"+today, `{"active":true}`, true)

	if rr := do(t, srv, http.MethodPut, "/api/settings/quotas/"+today, `{"amount":"5"}`, true); rr.Code != http.StatusOK {
		t.Fatalf("quota: status=%d body=%s", rr.Code, rr.Body.String())
	}
	if rr := do(t, srv, http.MethodPost, "/api/ledger/"+today+"/mark", `{"paid":true}`, true); rr.Code != http.StatusNoContent {
		t.Fatalf("mark: status=%d body=%s", rr.Code, rr.Body.String())
	}

	for _, s := range svc.Students(context.Background()) {
		if amount, _ := s.Payment(core.CalendarDate(today)); amount.String() != "5" {
			t.Fatalf("%s paid %s, want 5", s.Name, amount)
		}
	}

	if rr := do(t, srv, http.MethodDelete, "/api/settings/quotas/"+today, "", true); rr.Code != http.StatusOK {
		t.Fatalf("clear quota: status=%d", rr.Code)
	}
	if q := svc.Settings(context.Background()).CustomQuotas; len(q) != 0 {
		t.Fatalf("custom quotas not cleared: %v", q)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	srv, svc := newTestServer(t, nil, Options{})
	ctx := context.Background()
	if _, err := svc.SetCollectionDay(ctx, "2024-01-08", true); err != nil {
		t.Fatalf("activate: %v", err)
	}
	one, _ := core.ParseAmount("1")
	if _, err := svc.SetCustomQuota(ctx, "2024-01-08", one); err != nil {
		t.Fatalf("custom quota: %v", err)
	}

	got := do(t, srv, http.MethodGet, "/api/settings", "", false)
	if got.Code != http.StatusOK {
		t.Fatalf("get: status=%d", got.Code)
	}
	if rr := do(t, srv, http.MethodPut, "/api/settings", got.Body.String(), true); rr.Code != http.StatusOK {
		t.Fatalf("put back: status=%d body=%s", rr.Code, rr.Body.String())
	}

	if rr := do(t, srv, http.MethodPost, "/api/expenses", `{"amount":12.5,"description":"Tape"}`, true); rr.Code != http.StatusCreated {
		t.Fatalf("numeric amount: status=%d body=%s", rr.Code, rr.Body.String())
	}

	st := svc.Settings(ctx)
	if !st.CollectionDays["2024-01-08"] {
		t.Fatalf("collection day lost: %v", st.CollectionDays)
	}
	if q := st.CustomQuotas["2024-01-08"]; q.String() != "1" {
		t.Fatalf("custom quota=%s want 1", q)
	}
	if st.DailyQuota.String() != "2000" {
		t.Fatalf("daily quota=%s want 2000", st.DailyQuota)
	}
}

func TestValidationErrors(t *testing.T) {
	srv, _ := newTestServer(t, nil, Options{})

	tests := []struct {
		name, method, path, body string
	}{
		{"bad amount", http.MethodPost, "/api/expenses", `{"amount":"abc"}`},
		{"zero expense", http.MethodPost, "/api/expenses", `{"amount":"0","description":"x"}`},
		{"long description", http.MethodPost, "/api/expenses", `{"amount":"1","description":"` + strings.Repeat("x", 201) + `"}`},
		{"blank student", http.MethodPost, "/api/students", `{"name":"  "}`},
		{"bad gender", http.MethodPost, "/api/students", `{"name":"A","gender":"X"}`},
		{"unknown field", http.MethodPost, "/api/students", `{"name":"A","age":3}`},
		{"bad agenda date", http.MethodPost, "/api/agenda", `{"title":"Quiz","date":"2024-02-30","type":"exam"}`},
		{"bad agenda type", http.MethodPost, "/api/agenda", `{"title":"Quiz","date":"2024-02-10","type":"party"}`},
		{"bad path date", http.MethodPut, "/api/settings/quotas/tomorrow", `{"amount":"1"}`},
		{"negative quota", http.MethodPut, "/api/settings", `{"dailyQuota":"-1"}`},
		{"negative numeric quota", http.MethodPut, "/api/settings", `{"dailyQuota":-1}`},
		{"bad custom quota date", http.MethodPut, "/api/settings", `{"dailyQuota":5,"customQuotas":{"someday":1}}`},
		{"missing active", http.MethodPut, "/api/settings/collection-days/2024-01-08", `{}`},
		{"blank announcement", http.MethodPost, "/api/announcements", `{"title":""}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, tt.method, tt.path, tt.body, true)
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
			}
			var body errorBody
			decode(t, rr, &body)
			if body.Error == "" {
				t.Fatal("error message missing")
			}
		})
	}
}

func TestWishlistConvert(t *testing.T) {
	srv, svc := newTestServer(t, nil, Options{})

	rr := do(t, srv, http.MethodPost, "/api/wishlist", `{"item":"Markers","estimatedCost":"15","priority":"high"}`, true)
	if rr.Code != http.StatusCreated {
		t.Fatalf("add: status=%d body=%s", rr.Code, rr.Body.String())
	}
	var p core.PlannedExpense
	decode(t, rr, &p)

	if rr := do(t, srv, http.MethodPost, "/api/wishlist/"+p.ID+"/convert", "", true); rr.Code != http.StatusCreated {
		t.Fatalf("convert: status=%d body=%s", rr.Code, rr.Body.String())
	}
	if n := len(svc.Wishlist(context.Background())); n != 0 {
		t.Fatalf("wishlist has %d items after convert", n)
	}
	exp := svc.Expenses(context.Background())
	if len(exp) != 1 || exp[0].Category != core.CategoryMaterials || exp[0].Amount.String() != "15" {
		t.Fatalf("unexpected expenses %+v", exp)
	}

	if rr := do(t, srv, http.MethodPost, "/api/wishlist/missing/convert", "", true); rr.Code != http.StatusNotFound {
		t.Fatalf("convert missing: status=%d", rr.Code)
	}
}

func TestDeletesAreIdempotent(t *testing.T) {
	srv, _ := newTestServer(t, nil, Options{})
	for _, path := range []string{"/api/students/x", "/api/expenses/x", "/api/wishlist/x", "/api/announcements/x", "/api/agenda/x"} {
		if rr := do(t, srv, http.MethodDelete, path, "", true); rr.Code != http.StatusNoContent {
			t.Fatalf("DELETE %s status=%d", path, rr.Code)
		}
	}
}

func TestBoardRoutes(t *testing.T) {
	srv, _ := newTestServer(t, nil, Options{})
	if rr := do(t, srv, http.MethodPost, "/api/announcements", `{"title":"Trip","content":"Bring lunch","important":true}`, true); rr.Code != http.StatusCreated {
		t.Fatalf("announcement: status=%d body=%s", rr.Code, rr.Body.String())
	}
	if rr := do(t, srv, http.MethodPost, "/api/agenda", `{"title":"Quiz","date":"2024-02-10","type":"exam"}`, true); rr.Code != http.StatusCreated {
		t.Fatalf("agenda: status=%d body=%s", rr.Code, rr.Body.String())
	}

	var items []core.AgendaItem
	decode(t, do(t, srv, http.MethodGet, "/api/agenda", "", false), &items)
	if len(items) != 1 || items[0].Type != core.Exam {
		t.Fatalf("unexpected agenda %+v", items)
	}
}

func multipartImage(t *testing.T, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "roster.jpg")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write(data)
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestImportRosterImage(t *testing.T) {
	send := func(srv *Server) *httptest.ResponseRecorder {
		body, ct := multipartImage(t, []byte("jpeg"))
		req := httptest.NewRequest(http.MethodPost, "/api/students/import-image", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set("Authorization", "Bearer "+testToken)
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, req)
		return rr
	}

	unconfigured, _ := newTestServer(t, nil, Options{})
	if rr := send(unconfigured); rr.Code != http.StatusNotImplemented {
		t.Fatalf("no reader: status=%d", rr.Code)
	}

	srv, svc := newTestServer(t, fakeReader{guesses: []core.StudentGuess{{Name: "Dina", Gender: core.Female}}}, Options{})
	rr := send(srv)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var got map[string]int
	decode(t, rr, &got)
	if got["imported"] != 1 || len(svc.Students(context.Background())) != 1 {
		t.Fatalf("imported=%v", got)
	}
}

func TestImportRosterText(t *testing.T) {
	srv, svc := newTestServer(t, nil, Options{})
	rr := do(t, srv, http.MethodPost, "/api/students/import", "Alice\nF Beth\nM Carl\n\n", true)
	var got map[string]int
	decode(t, rr, &got)
	if got["imported"] != 3 {
		t.Fatalf("imported=%v", got)
	}
	students := svc.Students(context.Background())
	if students[1].Name != "Beth" || students[1].Gender != core.Female {
		t.Fatalf("unexpected roster %+v", students)
	}

	if rr := do(t, srv, http.MethodPost, "/api/students/import", "  \n", true); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty import: status=%d", rr.Code)
	}
}

func TestRateLimitAppliesToWrites(t *testing.T) {
	srv, _ := newTestServer(t, nil, Options{RateLimitPerMinute: 1})
	if rr := do(t, srv, http.MethodPost, "/api/expenses", `{"amount":"1"}`, true); rr.Code != http.StatusCreated {
		t.Fatalf("first write: status=%d body=%s", rr.Code, rr.Body.String())
	}
	if rr := do(t, srv, http.MethodPost, "/api/expenses", `{"amount":"1"}`, true); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second write: status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/expenses", "", false); rr.Code != http.StatusOK {
		t.Fatalf("reads are not limited: status=%d", rr.Code)
	}
}
