package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/recibo-api/internal/domain/entity"
	"github.com/sangkips/recibo-api/internal/domain/repository"
	"github.com/sangkips/recibo-api/internal/presentation/http/dto/response"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyKeyTTL is how long keys are valid
	IdempotencyKeyTTL = 24 * time.Hour

	maxIdempotencyKeyLength = 255
)

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Repo   repository.IdempotencyRepository
	Logger *slog.Logger
	Now    func() time.Time
}

// responseWriter wraps gin.ResponseWriter to capture the response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response when a kiosk repeats a request with
// the same Idempotency-Key. Keys are scoped to the endpoint; reusing a key with a
// different body is rejected. Server errors are not stored so the client can retry
func Idempotency(config IdempotencyConfig) gin.HandlerFunc {
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
		if idempotencyKey == "" {
			c.Next()
			return
		}
		if len(idempotencyKey) > maxIdempotencyKeyLength {
			response.BadRequest(c, "Idempotency-Key is too long")
			c.Abort()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.BadRequest(c, "Failed to read request body")
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		sum := sha256.Sum256(body)
		requestHash := hex.EncodeToString(sum[:])
		endpoint := c.Request.Method + " " + c.FullPath()

		existing, err := config.Repo.GetByKey(c.Request.Context(), idempotencyKey, endpoint)
		if err != nil {
			config.Logger.WarnContext(c.Request.Context(), "Idempotency lookup failed", slog.Any("error", err))
			c.Next()
			return
		}

		if existing != nil && !existing.IsExpired(config.Now()) {
			if existing.RequestHash != requestHash {
				response.ErrorWithCode(c, http.StatusUnprocessableEntity, "Idempotency-Key was already used with a different request")
				c.Abort()
				return
			}
			c.Header("X-Idempotency-Replayed", "true")
			c.Data(existing.ResponseCode, "application/json; charset=utf-8", []byte(existing.ResponseBody))
			c.Abort()
			return
		}

		blw := &responseWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		if c.Writer.Status() >= http.StatusInternalServerError {
			return
		}

		now := config.Now()
		ikey := &entity.IdempotencyKey{
			Key:          idempotencyKey,
			Endpoint:     endpoint,
			RequestHash:  requestHash,
			ResponseCode: c.Writer.Status(),
			ResponseBody: blw.body.String(),
			ExpiresAt:    now.Add(IdempotencyKeyTTL),
		}
		if existing != nil {
			// Expired key, drop it so the new response can take its place
			if err := config.Repo.DeleteExpired(c.Request.Context(), now); err != nil {
				config.Logger.WarnContext(c.Request.Context(), "Failed to delete expired idempotency keys", slog.Any("error", err))
			}
		}
		if err := config.Repo.Create(c.Request.Context(), ikey); err != nil {
			config.Logger.WarnContext(c.Request.Context(), "Failed to store idempotency key",
				slog.String("endpoint", endpoint),
				slog.Any("error", err),
			)
		}
	}
}
