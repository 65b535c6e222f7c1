package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/betbot/controlpanel/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	mu       sync.Mutex
	state    domain.State
	calls    []string
	err      error
	refreshN int
}

func (f *fakeController) State() domain.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeController) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeController) StartStrategy(context.Context) error { return f.record("start") }
func (f *fakeController) StopStrategy(context.Context) error  { return f.record("stop") }
func (f *fakeController) ClosePosition(_ context.Context, symbol string) error {
	return f.record("close " + symbol)
}
func (f *fakeController) RequestRefresh() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshN++
}

func runningState(running bool) domain.State {
	snap := domain.EmptySnapshot()
	snap.Status = domain.Status{IsTradingHours: true, StrategyRunning: running, CurrentTime: "2024-03-01 10:00:00 EST"}
	snap.Account = domain.Account{Equity: decimal.RequireFromString("12345.6")}
	snap.Positions = []domain.Position{{Symbol: "BRK.B", Qty: decimal.NewFromInt(1)}}
	snap.FetchedAt = time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	return domain.State{Snapshot: snap, HasData: true}
}

func newTestServer(t *testing.T, ctrl *fakeController) http.Handler {
	t.Helper()
	s, err := New(Config{Location: time.UTC, BaseInterval: 5 * time.Second, FastInterval: 2 * time.Second}, ctrl)
	require.NoError(t, err)
	return s.Router()
}

func do(h http.Handler, method, path string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNew_RequiresController(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.Error(t, err)
}

func TestIndex_Idle(t *testing.T) {
	h := newTestServer(t, &fakeController{state: runningState(false)})
	rec := do(h, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `content="5"`)
	assert.Contains(t, body, "$12,345.60")
	assert.Contains(t, body, `data-action="start">Start Strategy`)
	assert.Contains(t, body, `data-action="stop" disabled>Stop Strategy`)
	assert.Contains(t, body, `action="/actions/close/BRK.B"`)
	assert.Contains(t, body, `data-action="close" disabled>Close`)
	assert.NotContains(t, body, `id="panel-trades"`)
}

func TestIndex_RunningRefreshesFast(t *testing.T) {
	h := newTestServer(t, &fakeController{state: runningState(true)})
	body := do(h, http.MethodGet, "/").Body.String()
	assert.Contains(t, body, `content="2"`)
	assert.Contains(t, body, `data-action="start" disabled>Start Strategy`)
	assert.Contains(t, body, `data-action="close">Close`)
}

func TestIndex_Placeholders(t *testing.T) {
	h := newTestServer(t, &fakeController{state: domain.State{Loading: true}})
	body := do(h, http.MethodGet, "/").Body.String()
	assert.Contains(t, body, `id="loading"`)
	assert.NotContains(t, body, `id="panel-status"`)

	h = newTestServer(t, &fakeController{state: domain.State{Err: "status: http 500"}})
	body = do(h, http.MethodGet, "/").Body.String()
	assert.Contains(t, body, "Error: status: http 500")
	assert.NotContains(t, body, `id="panel-status"`)

	st := runningState(false)
	st.Err = "account: http 502"
	h = newTestServer(t, &fakeController{state: st})
	body = do(h, http.MethodGet, "/").Body.String()
	assert.Contains(t, body, `id="banner"`)
	assert.Contains(t, body, `id="panel-status"`)
}

func TestActions_RedirectHome(t *testing.T) {
	ctrl := &fakeController{state: runningState(true)}
	h := newTestServer(t, ctrl)

	for _, path := range []string{"/actions/start", "/actions/stop", "/actions/close/BRK.B"} {
		rec := do(h, http.MethodPost, path)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	}
	assert.Equal(t, []string{"start", "stop", "close BRK.B"}, ctrl.calls)
}

func TestActions_CloseSymbolWithSlash(t *testing.T) {
	ctrl := &fakeController{state: runningState(true)}
	ctrl.state.Snapshot.Positions = []domain.Position{{Symbol: "BRK/B", Qty: decimal.NewFromInt(1)}}
	h := newTestServer(t, ctrl)

	body := do(h, http.MethodGet, "/").Body.String()
	assert.Contains(t, body, `action="/actions/close/BRK%2FB"`)

	rec := do(h, http.MethodPost, "/actions/close/BRK%2FB")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, []string{"close BRK/B"}, ctrl.calls)

	rec = do(h, http.MethodPost, "/actions/close/")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, ctrl.calls, 1)
}

func TestActions_JSON(t *testing.T) {
	ctrl := &fakeController{state: runningState(true), err: errors.New("failed to start strategy: boom")}
	h := newTestServer(t, ctrl)

	rec := do(h, http.MethodPost, "/actions/start", "Accept", "application/json")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"ok":false,"error":"failed to start strategy: boom"}`, rec.Body.String())
}

func TestActions_MethodNotAllowed(t *testing.T) {
	ctrl := &fakeController{state: runningState(true)}
	h := newTestServer(t, ctrl)
	rec := do(h, http.MethodGet, "/actions/start")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, ctrl.calls)
}

func TestAPIState(t *testing.T) {
	h := newTestServer(t, &fakeController{state: runningState(true)})
	rec := do(h, http.MethodGet, "/api/state")
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, false, got["loading"])
	assert.Equal(t, true, got["has_data"])
	assert.Equal(t, true, got["status"].(map[string]any)["strategy_running"])
	assert.Len(t, got["positions"], 1)
	assert.Equal(t, []any{}, got["trades"])
	assert.Equal(t, "2024-03-01T15:00:00Z", got["fetched_at"])
	assert.NotContains(t, got, "error")
}

func TestRefreshAndHealth(t *testing.T) {
	ctrl := &fakeController{state: runningState(false)}
	h := newTestServer(t, ctrl)

	assert.Equal(t, http.StatusAccepted, do(h, http.MethodPost, "/api/refresh").Code)
	assert.Equal(t, 1, ctrl.refreshN)

	rec := do(h, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = do(h, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "controlpanel_")
}
