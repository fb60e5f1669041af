package mw

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lodging-availability-backend/internal/idempotency"
)

// IdempotencyHeader carries the client chosen key of a retryable request.
const IdempotencyHeader = "Idempotency-Key"

type bodyCaptureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyCaptureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyCaptureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the first successful response of a request that
// carries an Idempotency-Key header. Failed responses release the key so
// the client can retry.
func Idempotency(store idempotency.Store, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" {
			c.Next()
			return
		}
		scoped := c.Request.Method + " " + c.FullPath() + " " + key
		ctx := c.Request.Context()

		recorded, err := store.Reserve(ctx, scoped)
		switch {
		case errors.Is(err, idempotency.ErrInProgress):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		case err != nil:
			log.Warn("idempotency store unavailable, handling request without it",
				zap.String("key", key), zap.Error(err))
			c.Next()
			return
		case recorded != nil:
			for k, v := range recorded.Header {
				c.Writer.Header()[k] = v
			}
			c.Writer.Header().Set("Idempotent-Replayed", "true")
			c.Writer.WriteHeader(recorded.Status)
			_, _ = c.Writer.Write(recorded.Body)
			c.Abort()
			return
		}

		bcw := &bodyCaptureWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = bcw

		c.Next()

		// The key must be settled even if the client went away.
		ctx = context.WithoutCancel(ctx)

		if bcw.Status() >= 200 && bcw.Status() < 300 {
			resp := idempotency.Response{
				Status: bcw.Status(),
				Header: bcw.Header().Clone(),
				Body:   bcw.body.Bytes(),
			}
			if err := store.Complete(ctx, scoped, resp); err != nil {
				log.Error("failed to record idempotent response", zap.String("key", key), zap.Error(err))
			}
			return
		}
		if err := store.Release(ctx, scoped); err != nil {
			log.Error("failed to release idempotency key", zap.String("key", key), zap.Error(err))
		}
	}
}
