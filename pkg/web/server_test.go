package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace/noop"

	"itemservice/pkg/item"
	"itemservice/pkg/item/memory"
	"itemservice/pkg/logger"
	"itemservice/pkg/metrics"
	"itemservice/pkg/requestid"
)

func newServer(t *testing.T) (*Server, *memory.Repository) {
	t.Helper()
	repo := memory.New()
	if _, err := item.Seed(context.Background(), repo); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s, err := New(repo, logger.Nop(), metrics.New(), noop.NewTracerProvider().Tracer("test"))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return s, repo
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func postForm(path string, v url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(v.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestItemsPage(t *testing.T) {
	s, _ := newServer(t)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/basic/items", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	a, b := strings.Index(body, "testA"), strings.Index(body, "testB")
	if a < 0 || b < 0 || a > b {
		t.Fatalf("expected testA before testB in:\n%s", body)
	}
}

func TestItemPage(t *testing.T) {
	s, _ := newServer(t)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/basic/items/2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "testB") || strings.Contains(rec.Body.String(), `class="saved"`) {
		t.Fatalf("unexpected body:\n%s", rec.Body.String())
	}

	rec = do(s, httptest.NewRequest(http.MethodGet, "/basic/items/99", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	rec = do(s, httptest.NewRequest(http.MethodGet, "/basic/items/abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAddItemRedirects(t *testing.T) {
	s, repo := newServer(t)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/basic/items/add", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `action="/basic/items/add"`) {
		t.Fatalf("add form: %d\n%s", rec.Code, rec.Body.String())
	}

	rec = do(s, postForm("/basic/items/add", url.Values{
		"itemName": {"testC"}, "price": {"500"}, "quantity": {"5"},
	}))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/basic/items/3?status=true" {
		t.Fatalf("unexpected redirect %q", loc)
	}
	got, err := repo.FindByID(context.Background(), 3)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got != (item.Item{ID: 3, ItemName: "testC", Price: 500, Quantity: 5}) {
		t.Fatalf("unexpected item %+v", got)
	}

	rec = do(s, httptest.NewRequest(http.MethodGet, "/basic/items/3?status=true", nil))
	if !strings.Contains(rec.Body.String(), `class="saved"`) {
		t.Fatalf("expected saved banner:\n%s", rec.Body.String())
	}
}

func TestAddItemRejectsBadInput(t *testing.T) {
	s, repo := newServer(t)
	cases := map[string]url.Values{
		"non-numeric price": {"itemName": {"x"}, "price": {"ten"}, "quantity": {"1"}},
		"missing quantity":  {"itemName": {"x"}, "price": {"10"}},
		"blank name":        {"itemName": {"  "}, "price": {"10"}, "quantity": {"1"}},
	}
	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(s, postForm("/basic/items/add", v))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), `class="errors"`) {
				t.Fatalf("expected error list:\n%s", rec.Body.String())
			}
		})
	}
	all, _ := repo.FindAll(context.Background())
	if len(all) != 2 {
		t.Fatalf("bad input stored items: %d", len(all))
	}
}

func TestAddItemAcceptsOddNumbers(t *testing.T) {
	s, repo := newServer(t)
	rec := do(s, postForm("/basic/items/add", url.Values{
		"itemName": {"refund"}, "price": {"-100"}, "quantity": {"0"},
	}))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	got, _ := repo.FindByID(context.Background(), 3)
	if got.Price != -100 || got.Quantity != 0 {
		t.Fatalf("unexpected item %+v", got)
	}
}

func TestEditItem(t *testing.T) {
	s, repo := newServer(t)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/basic/items/1/edit", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `value="testA"`) {
		t.Fatalf("edit form: %d\n%s", rec.Code, rec.Body.String())
	}

	rec = do(s, postForm("/basic/items/1/edit", url.Values{
		"itemName": {"testA-mod"}, "price": {"1300"}, "quantity": {"11"},
	}))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/basic/items/1" {
		t.Fatalf("expected redirect to item 1, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	got, _ := repo.FindByID(context.Background(), 1)
	if got != (item.Item{ID: 1, ItemName: "testA-mod", Price: 1300, Quantity: 11}) {
		t.Fatalf("unexpected item %+v", got)
	}

	rec = do(s, postForm("/basic/items/42/edit", url.Values{
		"itemName": {"ghost"}, "price": {"1"}, "quantity": {"1"},
	}))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if _, err := repo.FindByID(context.Background(), 42); !errors.Is(err, item.ErrNotFound) {
		t.Fatalf("edit created item 42: %v", err)
	}
}

func TestAPI(t *testing.T) {
	s, _ := newServer(t)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/items", nil))
	var list []item.Item
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 2 || list[0].ID != 1 || list[1].ItemName != "testB" {
		t.Fatalf("unexpected list %+v", list)
	}

	rec = do(s, httptest.NewRequest(http.MethodPost, "/api/items",
		strings.NewReader(`{"itemName":"testC","price":500,"quantity":5}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created item.Item
	json.Unmarshal(rec.Body.Bytes(), &created)
	if created.ID != 3 || rec.Header().Get("Location") != "/api/items/3" {
		t.Fatalf("unexpected create %+v %q", created, rec.Header().Get("Location"))
	}

	req := httptest.NewRequest(http.MethodPut, "/api/items/1",
		strings.NewReader(`{"itemName":"testA-mod","price":1300,"quantity":11}`))
	rec = do(s, req)
	var updated item.Item
	json.Unmarshal(rec.Body.Bytes(), &updated)
	if rec.Code != http.StatusOK || updated != (item.Item{ID: 1, ItemName: "testA-mod", Price: 1300, Quantity: 11}) {
		t.Fatalf("unexpected update %d %+v", rec.Code, updated)
	}

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/items/1", nil))
	var got item.Item
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got != updated {
		t.Fatalf("expected %+v, got %+v", updated, got)
	}
}

func TestAPIErrors(t *testing.T) {
	s, _ := newServer(t)
	cases := []struct {
		name, method, path, body string
		code                     int
	}{
		{"get missing", http.MethodGet, "/api/items/99", "", http.StatusNotFound},
		{"get bad id", http.MethodGet, "/api/items/x", "", http.StatusBadRequest},
		{"put missing", http.MethodPut, "/api/items/99", `{"itemName":"a","price":1,"quantity":1}`, http.StatusNotFound},
		{"price not a number", http.MethodPost, "/api/items", `{"itemName":"a","price":"1","quantity":1}`, http.StatusBadRequest},
		{"missing price", http.MethodPost, "/api/items", `{"itemName":"a","quantity":1}`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/items", `{"itemName":"a","price":1,"quantity":1,"id":7}`, http.StatusBadRequest},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := do(s, httptest.NewRequest(c.method, c.path, strings.NewReader(c.body)))
			if rec.Code != c.code {
				t.Fatalf("expected %d, got %d: %s", c.code, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	s, _ := newServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestid.Header, "abc-123")
	rec := do(s, req)
	if got := rec.Header().Get(requestid.Header); got != "abc-123" {
		t.Fatalf("expected propagated id, got %q", got)
	}
	rec = do(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Header().Get(requestid.Header) == "" {
		t.Fatal("expected generated id")
	}
}

type downRepo struct{ *memory.Repository }

func (downRepo) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealth(t *testing.T) {
	s, _ := newServer(t)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"healthy"`) {
		t.Fatalf("unexpected health %d %s", rec.Code, rec.Body.String())
	}

	down, err := New(downRepo{memory.New()}, logger.Nop(), metrics.New(), noop.NewTracerProvider().Tracer("test"))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	rec = do(down, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), `"down"`) {
		t.Fatalf("unexpected health %d %s", rec.Code, rec.Body.String())
	}
}

func TestFormErrorKeepsInput(t *testing.T) {
	s, _ := newServer(t)
	rec := do(s, postForm("/basic/items/1/edit", url.Values{
		"itemName": {"testA"}, "price": {"ten"}, "quantity": {"7"},
	}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`value="testA"`, `value="ten"`, `value="7"`, `action="/basic/items/1/edit"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in:\n%s", want, body)
		}
	}
}

func TestEditFormShowsCurrentValues(t *testing.T) {
	s, _ := newServer(t)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/basic/items/2/edit", nil))
	body := rec.Body.String()
	for _, want := range []string{`value="testB"`, `value="3200"`, `value="21"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in:\n%s", want, body)
		}
	}
}

func TestAPIAcceptsLargeNumbers(t *testing.T) {
	s, _ := newServer(t)
	rec := do(s, httptest.NewRequest(http.MethodPost, "/api/items",
		strings.NewReader(`{"itemName":"bulk","price":3000000000,"quantity":1}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created item.Item
	json.Unmarshal(rec.Body.Bytes(), &created)
	if created.Price != 3000000000 {
		t.Fatalf("unexpected price %d", created.Price)
	}
}
