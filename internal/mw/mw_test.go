package mw

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"

	"lodging-availability-backend/internal/idempotency"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiter(t *testing.T) {
	router := gin.New()
	router.Use(RateLimiter(rate.Limit(1), 2, "X-Forwarded-For"))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(client string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", client+", 10.0.0.1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("203.0.113.7"))
	assert.Equal(t, http.StatusOK, send("203.0.113.7"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.7"))
	// Another client has its own bucket.
	assert.Equal(t, http.StatusOK, send("198.51.100.2"))
}

func TestIdempotency(t *testing.T) {
	var calls int32
	router := gin.New()
	router.Use(Idempotency(idempotency.NewMemoryStore(time.Minute), zap.NewNop()))
	router.POST("/reservations", func(c *gin.Context) {
		n := atomic.AddInt32(&calls, 1)
		if c.Query("fail") != "" {
			c.JSON(http.StatusConflict, gin.H{"error": "sold out"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"call": n})
	})

	post := func(key, query string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/reservations"+query, strings.NewReader(`{}`))
		if key != "" {
			req.Header.Set(IdempotencyHeader, key)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	first := post("abc", "")
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.JSONEq(t, `{"call":1}`, first.Body.String())

	replay := post("abc", "")
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.JSONEq(t, `{"call":1}`, replay.Body.String())
	assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))

	// Without a key every request reaches the handler.
	assert.JSONEq(t, `{"call":2}`, post("", "").Body.String())

	// A failed response is not replayed.
	assert.Equal(t, http.StatusConflict, post("xyz", "?fail=1").Code)
	assert.Equal(t, http.StatusCreated, post("xyz", "").Code)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

type settleRecorder struct {
	idempotency.Store
	completeErr, releaseErr error
	completed, released     bool
}

func (r *settleRecorder) Complete(ctx context.Context, key string, resp idempotency.Response) error {
	r.completed, r.completeErr = true, ctx.Err()
	return r.Store.Complete(ctx, key, resp)
}

func (r *settleRecorder) Release(ctx context.Context, key string) error {
	r.released, r.releaseErr = true, ctx.Err()
	return r.Store.Release(ctx, key)
}

func TestIdempotency_SettlesKeyAfterClientCancel(t *testing.T) {
	rec := &settleRecorder{Store: idempotency.NewMemoryStore(time.Minute)}
	router := gin.New()
	router.Use(Idempotency(rec, zap.NewNop()))

	var cancel context.CancelFunc
	router.POST("/reservations", func(c *gin.Context) {
		cancel()
		if c.Query("fail") != "" {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})

	post := func(key, query string) int {
		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		req := httptest.NewRequest(http.MethodPost, "/reservations"+query, strings.NewReader(`{}`)).WithContext(ctx)
		req.Header.Set(IdempotencyHeader, key)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusInternalServerError, post("k1", "?fail=1"))
	assert.True(t, rec.released)
	assert.NoError(t, rec.releaseErr)
	// The released key accepts a retry instead of reporting it in progress.
	assert.Equal(t, http.StatusCreated, post("k1", ""))
	assert.True(t, rec.completed)
	assert.NoError(t, rec.completeErr)
}

func TestRequestIDAndLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := gin.New()
	router.Use(RequestID(), Logger(zap.New(core)))
	router.GET("/units/:id", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFromContext(c.Request.Context()))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/units/1", nil))
	id := w.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Equal(t, id, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/units/2", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "request handled", entries[1].Message)
		assert.Equal(t, "req-42", entries[1].ContextMap()["request_id"])
		assert.Equal(t, int64(http.StatusOK), entries[1].ContextMap()["status"])
	}
}
