package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	appdb "lodging-availability-backend/internal/db"
	"lodging-availability-backend/internal/events"
	"lodging-availability-backend/internal/idempotency"
	"lodging-availability-backend/internal/store"
)

var testNow = time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ReservationEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e events.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType
	}
	return out
}

type testServer struct {
	router    *gin.Engine
	store     store.Store
	publisher *recordingPublisher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gormDB, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "api.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, appdb.Migrate(gormDB))

	opts := store.DefaultOptions()
	opts.Now = func() time.Time { return testNow }
	s := store.NewGormStore(gormDB, opts)

	publisher := &recordingPublisher{}
	h := NewHandler(s, publisher, nil, zap.NewNop(), Options{
		MinDate:             opts.Bounds.MinDate,
		CalendarDefaultDays: 30,
		Now:                 func() time.Time { return testNow },
	})
	router := NewRouter(h, RouterConfig{
		RateLimit:   1000,
		Burst:       1000,
		Idempotency: idempotency.NewMemoryStore(time.Minute),
	}, zap.NewNop())

	return &testServer{router: router, store: s, publisher: publisher}
}

func (ts *testServer) do(t *testing.T, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type unitBody struct {
	ID    int64 `json:"id"`
	Qty   int   `json:"qty"`
	Rates []struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Price int64  `json:"price"`
	} `json:"rates"`
}

// createUnit posts a unit with a single rate and returns its ids.
func (ts *testServer) createUnit(t *testing.T, qty int, price int64) (int64, int64) {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/units", gin.H{
		"name":  "Garden Villa",
		"qty":   qty,
		"rates": []gin.H{{"name": "Room Only", "price": price}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	unit := decode[unitBody](t, w)
	require.Len(t, unit.Rates, 1)
	return unit.ID, unit.Rates[0].ID
}
