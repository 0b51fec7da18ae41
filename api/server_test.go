package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fast-food-fast/db/memdb"
	"fast-food-fast/logger"
	"fast-food-fast/models"
	"fast-food-fast/services"
)

type testServer struct {
	t     *testing.T
	store *memdb.Store
	srv   *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memdb.New()
	log := logger.Nop()
	users := services.NewUsers(store, services.NewTokens("test-secret", time.Hour), log)
	orders := services.NewOrders(store, users, nil, log)
	s := NewServer(users, services.NewMenu(store), orders, store, log)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	if err := users.EnsureAdmin(context.Background(), "odin", "Allfather1"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	return &testServer{t: t, store: store, srv: srv}
}

// do sends a request and decodes a JSON response body into out when out is non-nil.
func (ts *testServer) do(method, path, token, body string, out any) *http.Response {
	ts.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, reader)
	if err != nil {
		ts.t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		ts.t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			ts.t.Fatalf("%s %s: decode response: %v", method, path, err)
		}
	}
	return resp
}

func (ts *testServer) login(username, password string) string {
	ts.t.Helper()
	var out struct {
		Token string `json:"token"`
	}
	resp := ts.do(http.MethodPost, "/api/v1/auth/login", "", `{"username":"`+username+`","password":"`+password+`"}`, &out)
	if resp.StatusCode != http.StatusOK || out.Token == "" {
		ts.t.Fatalf("login %s: status %d", username, resp.StatusCode)
	}
	return out.Token
}

func (ts *testServer) signupAndLogin(username string) string {
	ts.t.Helper()
	body := `{"username":"` + username + `","password":"Secret12","email":"` + username + `@asgard.io","telephone":"+256-712-345678"}`
	resp := ts.do(http.MethodPost, "/api/v1/auth/signup", "", body, nil)
	if resp.StatusCode != http.StatusCreated {
		ts.t.Fatalf("signup %s: status %d", username, resp.StatusCode)
	}
	return ts.login(username, "Secret12")
}

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

func TestSignupAndLogin(t *testing.T) {
	ts := newTestServer(t)

	var user map[string]any
	body := `{"username":"loki","password":"Secret12","email":"loki@asgard.io","telephone":"+256-712-345678"}`
	resp := ts.do(http.MethodPost, "/api/v1/auth/signup", "", body, &user)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status = %d", resp.StatusCode)
	}
	if user["username"] != "Loki" || user["admin"] != false {
		t.Errorf("signup body = %v", user)
	}
	if _, leaked := user["password"]; leaked {
		t.Error("password leaked in signup response")
	}

	var dup errorBody
	resp = ts.do(http.MethodPost, "/api/v1/auth/signup", "", body, &dup)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate signup status = %d, want 409", resp.StatusCode)
	}
	if dup.Error == "" || dup.RequestID == "" {
		t.Errorf("error body = %+v", dup)
	}
	if resp.Header.Get("X-Request-ID") != dup.RequestID {
		t.Errorf("X-Request-ID %q does not match body %q", resp.Header.Get("X-Request-ID"), dup.RequestID)
	}

	ts.login("loki", "Secret12")

	tests := []struct {
		name string
		body string
		want int
	}{
		{"wrong password", `{"username":"loki","password":"Nope1234"}`, http.StatusUnauthorized},
		{"unknown user", `{"username":"ghost","password":"Secret12"}`, http.StatusNotFound},
		{"bad json", `{"username":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(http.MethodPost, "/api/v1/auth/login", "", tt.body, nil)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestOrders_LokiScenario(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signupAndLogin("loki")

	var order models.Order
	resp := ts.do(http.MethodPost, "/api/v1/users/orders", token, `{"items":[{"item":"pizza","quantity":1,"cost":20000}]}`, &order)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	if order.Status != models.OrderStatusNew || order.TotalCost != 20000 || order.PublicID == "" || order.Customer != "Loki" {
		t.Errorf("created order = %+v", order)
	}
	if loc := resp.Header.Get("Location"); loc != "/api/v1/orders/"+order.PublicID {
		t.Errorf("Location = %q", loc)
	}

	var history struct {
		Orders []models.Order `json:"orders"`
	}
	resp = ts.do(http.MethodGet, "/api/v1/users/orders", token, "", &history)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("history status = %d", resp.StatusCode)
	}
	if len(history.Orders) != 1 || history.Orders[0].PublicID != order.PublicID || history.Orders[0].TotalCost != 20000 {
		t.Errorf("history = %+v", history.Orders)
	}

	var single models.Order
	resp = ts.do(http.MethodGet, "/api/v1/orders/"+order.PublicID, token, "", &single)
	if resp.StatusCode != http.StatusOK || single.PublicID != order.PublicID {
		t.Errorf("get own order: status %d, %+v", resp.StatusCode, single)
	}

	thor := ts.signupAndLogin("thor")
	resp = ts.do(http.MethodGet, "/api/v1/orders/"+order.PublicID, thor, "", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("foreign order status = %d, want 403", resp.StatusCode)
	}
	resp = ts.do(http.MethodGet, "/api/v1/orders/ffffffffffff", token, "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing order status = %d, want 404", resp.StatusCode)
	}
}

func TestOrders_RequireAuth(t *testing.T) {
	ts := newTestServer(t)
	tests := []struct {
		method, path, token string
	}{
		{http.MethodPost, "/api/v1/users/orders", ""},
		{http.MethodGet, "/api/v1/users/orders", ""},
		{http.MethodGet, "/api/v1/users/orders", "not-a-jwt"},
		{http.MethodGet, "/api/v1/orders", ""},
	}
	for _, tt := range tests {
		resp := ts.do(tt.method, tt.path, tt.token, "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s %s token=%q: status = %d, want 401", tt.method, tt.path, tt.token, resp.StatusCode)
		}
	}
}

func TestAllOrders_AdminOnly(t *testing.T) {
	ts := newTestServer(t)
	loki := ts.signupAndLogin("loki")

	// forbidden regardless of whether any orders exist
	resp := ts.do(http.MethodGet, "/api/v1/orders", loki, "", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("non-admin, no orders: status = %d, want 403", resp.StatusCode)
	}
	ts.do(http.MethodPost, "/api/v1/users/orders", loki, `{"items":[{"item":"pizza","quantity":1,"cost":20000}]}`, nil)
	resp = ts.do(http.MethodGet, "/api/v1/orders", loki, "", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("non-admin, with orders: status = %d, want 403", resp.StatusCode)
	}

	admin := ts.login("odin", "Allfather1")
	var all struct {
		Orders []models.Order `json:"orders"`
	}
	resp = ts.do(http.MethodGet, "/api/v1/orders", admin, "", &all)
	if resp.StatusCode != http.StatusOK || len(all.Orders) != 1 || all.Orders[0].Customer != "Loki" {
		t.Errorf("admin all orders: status %d, %+v", resp.StatusCode, all.Orders)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	ts := newTestServer(t)
	loki := ts.signupAndLogin("loki")
	admin := ts.login("odin", "Allfather1")

	var order models.Order
	ts.do(http.MethodPost, "/api/v1/users/orders", loki, `{"items":[{"item":"pizza","quantity":1,"cost":20000}]}`, &order)
	path := "/api/v1/orders/" + order.PublicID

	if resp := ts.do(http.MethodPut, path, loki, `{"status":"complete"}`, nil); resp.StatusCode != http.StatusForbidden {
		t.Errorf("customer status update = %d, want 403", resp.StatusCode)
	}

	var bad errorBody
	resp := ts.do(http.MethodPut, path, admin, `{"status":"teleported"}`, &bad)
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(bad.Error, "status") {
		t.Errorf("invalid status: %d %+v", resp.StatusCode, bad)
	}

	var updated models.Order
	resp = ts.do(http.MethodPut, path, admin, `{"status":"Processing"}`, &updated)
	if resp.StatusCode != http.StatusOK || updated.Status != models.OrderStatusProcessing || updated.TotalCost != 20000 {
		t.Errorf("update: %d %+v", resp.StatusCode, updated)
	}

	if resp := ts.do(http.MethodPut, "/api/v1/orders/ffffffffffff", admin, `{"status":"complete"}`, nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing order update = %d, want 404", resp.StatusCode)
	}
}

func TestMenu(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.login("odin", "Allfather1")
	loki := ts.signupAndLogin("loki")

	var menu struct {
		Menu []models.MenuItem `json:"menu"`
	}
	resp := ts.do(http.MethodGet, "/api/v1/menu", "", "", &menu)
	if resp.StatusCode != http.StatusOK || menu.Menu == nil || len(menu.Menu) != 0 {
		t.Errorf("empty menu: %d %+v", resp.StatusCode, menu.Menu)
	}

	chicken := `{"item":"Chicken","unit":"piece","rate":5000}`
	if resp := ts.do(http.MethodPost, "/api/v1/menu", loki, chicken, nil); resp.StatusCode != http.StatusForbidden {
		t.Errorf("customer add = %d, want 403", resp.StatusCode)
	}

	var item models.MenuItem
	resp = ts.do(http.MethodPost, "/api/v1/menu", admin, chicken, &item)
	if resp.StatusCode != http.StatusCreated || item.ID == 0 {
		t.Fatalf("add: %d %+v", resp.StatusCode, item)
	}
	itemPath := resp.Header.Get("Location")
	if itemPath == "" {
		t.Fatal("missing Location header")
	}

	if resp := ts.do(http.MethodPost, "/api/v1/menu", admin, chicken, nil); resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate add = %d, want 409", resp.StatusCode)
	}

	var got models.MenuItem
	if resp := ts.do(http.MethodGet, itemPath, "", "", &got); resp.StatusCode != http.StatusOK || got != item {
		t.Errorf("get item: %d %+v", resp.StatusCode, got)
	}

	var updated models.MenuItem
	resp = ts.do(http.MethodPut, itemPath, admin, `{"item":"Chicken","unit":"quarter","rate":6500}`, &updated)
	if resp.StatusCode != http.StatusOK || updated.Rate != 6500 || updated.ID != item.ID {
		t.Errorf("update: %d %+v", resp.StatusCode, updated)
	}

	if resp := ts.do(http.MethodGet, "/api/v1/menu/abc", "", "", nil); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("non-numeric id = %d, want 400", resp.StatusCode)
	}

	if resp := ts.do(http.MethodDelete, itemPath, admin, "", nil); resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", resp.StatusCode)
	}
	if resp := ts.do(http.MethodDelete, itemPath, admin, "", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", resp.StatusCode)
	}
	if resp := ts.do(http.MethodGet, itemPath, "", "", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("get deleted = %d, want 404", resp.StatusCode)
	}
}

func TestHealthAndStoreFailure(t *testing.T) {
	ts := newTestServer(t)

	if resp := ts.do(http.MethodGet, "/api/v1/health", "", "", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("health = %d, want 200", resp.StatusCode)
	}
	if resp := ts.do(http.MethodGet, "/api/v1/", "", "", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("welcome = %d, want 200", resp.StatusCode)
	}
	for _, path := range []string{"/", "/health"} {
		if resp := ts.do(http.MethodGet, path, "", "", nil); resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET %s outside /api/v1 = %d, want 404", path, resp.StatusCode)
		}
	}

	ts.store.FailWith = errors.New("connection refused")
	if resp := ts.do(http.MethodGet, "/api/v1/health", "", "", nil); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("health with db down = %d, want 503", resp.StatusCode)
	}
	var body errorBody
	resp := ts.do(http.MethodGet, "/api/v1/menu", "", "", &body)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("menu with db down = %d, want 500", resp.StatusCode)
	}
	if strings.Contains(body.Error, "connection refused") {
		t.Errorf("store detail leaked to client: %q", body.Error)
	}
}

func TestRecover(t *testing.T) {
	s := &Server{log: logger.Nop()}
	h := s.withRequestLog(s.withRecover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
