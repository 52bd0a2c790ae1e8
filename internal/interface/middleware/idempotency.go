package middleware

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/party-lifecycle/pkg/helpers"
	"github.com/oksasatya/party-lifecycle/pkg/response"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"
)

// CachedResponse is what gets replayed for a repeated Idempotency-Key.
type CachedResponse struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// IdempotencyStore persists cached responses and in-flight locks, scoped
// per actor.
type IdempotencyStore interface {
	Load(ctx context.Context, actorID, key string) (*CachedResponse, bool, error)
	Lock(ctx context.Context, actorID, key string, ttl time.Duration) (bool, error)
	Save(ctx context.Context, actorID, key string, resp CachedResponse, ttl time.Duration) error
	Unlock(ctx context.Context, actorID, key string) error
}

// RedisIdempotencyStore keeps responses and locks in Redis.
type RedisIdempotencyStore struct {
	RDB *redis.Client
}

func (s RedisIdempotencyStore) Load(ctx context.Context, actorID, key string) (*CachedResponse, bool, error) {
	var out CachedResponse
	ok, err := helpers.RedisGetJSON(ctx, s.RDB, helpers.KeyIdempotency(actorID, key), &out)
	if err != nil || !ok {
		return nil, false, err
	}
	return &out, true, nil
}

func (s RedisIdempotencyStore) Lock(ctx context.Context, actorID, key string, ttl time.Duration) (bool, error) {
	return helpers.RedisLock(ctx, s.RDB, helpers.KeyIdempotencyLock(actorID, key), ttl)
}

func (s RedisIdempotencyStore) Save(ctx context.Context, actorID, key string, resp CachedResponse, ttl time.Duration) error {
	return helpers.RedisSetJSON(ctx, s.RDB, helpers.KeyIdempotency(actorID, key), resp, ttl)
}

func (s RedisIdempotencyStore) Unlock(ctx context.Context, actorID, key string) error {
	return helpers.RedisDel(ctx, s.RDB, helpers.KeyIdempotencyLock(actorID, key))
}

type bodyRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response when a POST repeats an
// Idempotency-Key for the same caller. Server errors are never cached, and
// store failures fall through to normal handling.
func Idempotency(store IdempotencyStore, ttl time.Duration, logger *logrus.Logger) gin.HandlerFunc {
	if store == nil || ttl <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	logger = loggerOr(logger)
	return func(c *gin.Context) {
		idem := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
		if c.Request.Method != http.MethodPost || idem == "" {
			c.Next()
			return
		}
		if len(idem) > 128 {
			response.Error[any](c, http.StatusBadRequest, "idempotency key too long", nil)
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		actor := c.GetString(CtxUserIDKey)
		log := logger.WithFields(logrus.Fields{"request_id": c.GetString("request_id"), "idempotency_key": idem})

		cached, ok, err := store.Load(ctx, actor, idem)
		if err != nil {
			log.WithError(err).Warn("idempotency lookup failed")
			c.Next()
			return
		}
		if ok {
			if cached.Method != c.Request.Method || cached.Path != c.Request.URL.Path {
				response.Error[any](c, http.StatusUnprocessableEntity, "idempotency key reused for a different request", nil)
				c.Abort()
				return
			}
			c.Header(HeaderReplayed, "true")
			c.Data(cached.Status, "application/json; charset=utf-8", cached.Body)
			c.Abort()
			return
		}

		locked, err := store.Lock(ctx, actor, idem, time.Minute)
		if err != nil {
			log.WithError(err).Warn("idempotency lock failed")
			c.Next()
			return
		}
		if !locked {
			response.Error[any](c, http.StatusConflict, "a request with this idempotency key is in progress", nil)
			c.Abort()
			return
		}
		defer func() {
			if err := store.Unlock(context.WithoutCancel(ctx), actor, idem); err != nil {
				log.WithError(err).Warn("idempotency unlock failed")
			}
		}()

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		status := rec.Status()
		if status >= http.StatusInternalServerError {
			return
		}
		resp := CachedResponse{Method: c.Request.Method, Path: c.Request.URL.Path, Status: status, Body: rec.buf.Bytes()}
		if err := store.Save(context.WithoutCancel(ctx), actor, idem, resp, ttl); err != nil {
			log.WithError(err).Warn("idempotency save failed")
		}
	}
}
