package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speaax/delve-companion/internal/events"
	"github.com/speaax/delve-companion/internal/logger"
	"github.com/speaax/delve-companion/internal/profiles"
	"github.com/speaax/delve-companion/internal/storage"
	"github.com/speaax/delve-companion/internal/tracker"
)

type testAPI struct {
	server     *Server
	dispatcher *events.EventDispatcher
}

func newTestAPI(t *testing.T, cfg *Config, withHistory bool) *testAPI {
	t.Helper()
	dispatcher := events.NewEventDispatcher(logger.Discard())
	opts := []tracker.Option{tracker.WithDispatcher(dispatcher), tracker.WithLogger(logger.Discard())}

	var history *storage.Service
	var persister profiles.Persister
	if withHistory {
		db, err := storage.OpenInMemory()
		require.NoError(t, err)
		history = storage.NewService(db)
		t.Cleanup(func() { _ = history.Close() })
		persister = history
		opts = append(opts, tracker.WithHistory(history))
	}

	tr := tracker.New(profiles.NewStore(persister), nil, opts...)
	deps := Deps{Tracker: tr, Logger: logger.Discard()}
	if history != nil {
		deps.History = history
	}
	return &testAPI{server: NewServer(cfg, deps), dispatcher: dispatcher}
}

func (a *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	a.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dst))
}

func TestNewServer_Defaults(t *testing.T) {
	a := newTestAPI(t, nil, false)
	assert.Equal(t, 8765, a.server.Port())
	assert.NotNil(t, a.server.WebSocketHub())
	assert.NotNil(t, a.server.NewWebSocketObserver())
}

func TestHealthAndVersion(t *testing.T) {
	a := newTestAPI(t, nil, false)

	rec := a.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")

	rec = a.do(t, http.MethodGet, "/api/v1/version", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version"`)
}

func TestRecordFloorAndSummary(t *testing.T) {
	a := newTestAPI(t, nil, false)

	rec := a.do(t, http.MethodPost, "/api/v1/events/floor", `{"mode":"standard","floor":"8+"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodPost, "/api/v1/events/floor", `{"floor":"3"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodGet, "/api/v1/profiles/STANDARD/all/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary tracker.Summary
	decodeData(t, rec, &summary)
	assert.Equal(t, "STANDARD", summary.Mode)
	assert.Equal(t, 2, summary.TotalKills)
	assert.Equal(t, 1, summary.Profile.WavesPast8)
	assert.Equal(t, 1, summary.Profile.LevelKills[3])
	assert.Greater(t, summary.Luck.Any.Expected, 0.0)

	rec = a.do(t, http.MethodGet, "/api/v1/profiles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "STANDARD")
}

func TestRecordFloor_Validation(t *testing.T) {
	a := newTestAPI(t, nil, false)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"floor out of range", `{"floor":"9+"}`, http.StatusBadRequest},
		{"missing floor", `{"mode":"STANDARD"}`, http.StatusBadRequest},
		{"bad mode", `{"mode":"no spaces","floor":"2"}`, http.StatusBadRequest},
		{"unknown field", `{"floor":"2","boss":"yama"}`, http.StatusBadRequest},
		{"not json", `floor=2`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, http.MethodPost, "/api/v1/events/floor", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	rec := a.do(t, http.MethodPost, "/api/v1/events/floor", `{"floor":"0"}`)
	assert.Contains(t, rec.Body.String(), `"floor"`)
}

func TestContentTypeEnforced(t *testing.T) {
	a := newTestAPI(t, nil, false)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events/floor", strings.NewReader(`{"floor":"2"}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	a.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestRecordDropAndSync(t *testing.T) {
	a := newTestAPI(t, nil, false)

	rec := a.do(t, http.MethodPost, "/api/v1/events/drop", `{"item_id":31130}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodPost, "/api/v1/sync/kills", `{"level_kills":{"1":10,"8":4},"waves_past_8":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodPost, "/api/v1/sync/drops", `{"obtained":{"31088":3}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodGet, "/api/v1/profiles/STANDARD/ALL", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all struct {
		LevelKills      map[int]int `json:"levelKills"`
		WavesPast8      int         `json:"wavesPast8"`
		ObtainedUniques map[int]int `json:"obtainedUniques"`
	}
	decodeData(t, rec, &all)
	assert.Equal(t, map[int]int{1: 10, 8: 4}, all.LevelKills)
	assert.Equal(t, 2, all.WavesPast8)
	assert.Equal(t, map[int]int{31088: 3}, all.ObtainedUniques)

	// Sessions keep the live drop; syncs only touch ALL.
	rec = a.do(t, http.MethodGet, "/api/v1/profiles/STANDARD/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"31130":1`)
}

func TestSync_Validation(t *testing.T) {
	a := newTestAPI(t, nil, false)

	rec := a.do(t, http.MethodPost, "/api/v1/sync/kills", `{"level_kills":{"9":1}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/v1/sync/kills", `{"level_kills":{"2":-1}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/v1/sync/drops", `{"obtained":{"31088":-2}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfiles_UnknownView(t *testing.T) {
	a := newTestAPI(t, nil, false)
	rec := a.do(t, http.MethodGet, "/api/v1/profiles/STANDARD/yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetManual(t *testing.T) {
	a := newTestAPI(t, nil, false)
	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/api/v1/events/floor", `{"floor":"4"}`).Code)

	rec := a.do(t, http.MethodPost, "/api/v1/profiles/STANDARD/manual/reset", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodGet, "/api/v1/profiles/STANDARD/all/summary", "")
	var summary tracker.Summary
	decodeData(t, rec, &summary)
	assert.Equal(t, 1, summary.TotalKills, "reset leaves ALL alone")

	rec = a.do(t, http.MethodGet, "/api/v1/profiles/STANDARD/manual/summary", "")
	decodeData(t, rec, &summary)
	assert.Equal(t, 0, summary.TotalKills)
}

func TestChart(t *testing.T) {
	a := newTestAPI(t, nil, false)
	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/api/v1/events/floor", `{"floor":"6"}`).Code)

	rec := a.do(t, http.MethodGet, "/api/v1/profiles/STANDARD/all/chart?kind=progress", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, rec.Body.String(), "Delve drops")

	rec = a.do(t, http.MethodGet, "/api/v1/profiles/STANDARD/all/chart?kind=pie", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDropRates(t *testing.T) {
	a := newTestAPI(t, nil, false)
	rec := a.do(t, http.MethodGet, "/api/v1/droprates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"8+"`)
	assert.Contains(t, body, "avernic_treads")
}

func TestHistory(t *testing.T) {
	t.Run("without storage", func(t *testing.T) {
		a := newTestAPI(t, nil, false)
		rec := a.do(t, http.MethodGet, "/api/v1/history", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("with storage", func(t *testing.T) {
		a := newTestAPI(t, nil, true)
		require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/api/v1/events/floor", `{"floor":"2"}`).Code)
		require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/api/v1/events/drop", `{"item_id":31109}`).Code)

		rec := a.do(t, http.MethodGet, "/api/v1/history?period=today&limit=10", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var hist storage.History
		decodeData(t, rec, &hist)
		assert.Len(t, hist.Events, 2)
		assert.Equal(t, 1, hist.Profile.LevelKills[2])

		assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/api/v1/history?period=decade", "").Code)
		assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/api/v1/history?limit=-3", "").Code)
	})
}

func TestRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit = 1
	cfg.Burst = 1
	a := newTestAPI(t, cfg, false)

	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/health", "").Code)
	rec := a.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestMetricsEndpoint(t *testing.T) {
	a := newTestAPI(t, nil, false)
	a.do(t, http.MethodGet, "/health", "")

	rec := a.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "delve_http_requests_total")
}

func TestWebSocketReceivesTrackerEvents(t *testing.T) {
	a := newTestAPI(t, nil, false)
	hub := a.server.WebSocketHub()
	go hub.Run()
	defer hub.Stop()
	a.dispatcher.Register(a.server.NewWebSocketObserver())

	ts := httptest.NewServer(a.server.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, 1, hub.ClientCount())

	resp, err := http.Post(ts.URL+"/api/v1/events/floor", "application/json", bytes.NewBufferString(`{"floor":"5"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)

	var received struct {
		Type string                     `json:"type"`
		Data events.FloorCompletedEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(message, &received))
	assert.Equal(t, events.TypeFloorCompleted, received.Type)
	assert.Equal(t, "5", received.Data.Floor)
	assert.Equal(t, "STANDARD", received.Data.GameMode)
}
