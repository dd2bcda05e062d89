package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/recibo-api/internal/domain/entity"
	"github.com/sangkips/recibo-api/internal/logger"
	"github.com/stretchr/testify/assert"
)

type memoryIdempotencyRepo struct {
	mu   sync.Mutex
	keys map[string]*entity.IdempotencyKey
}

func newMemoryIdempotencyRepo() *memoryIdempotencyRepo {
	return &memoryIdempotencyRepo{keys: make(map[string]*entity.IdempotencyKey)}
}

func (r *memoryIdempotencyRepo) GetByKey(ctx context.Context, key, endpoint string) (*entity.IdempotencyKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.keys[endpoint+"|"+key], nil
}

func (r *memoryIdempotencyRepo) Create(ctx context.Context, ikey *entity.IdempotencyKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[ikey.Endpoint+"|"+ikey.Key] = ikey
	return nil
}

func (r *memoryIdempotencyRepo) DeleteExpired(ctx context.Context, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range r.keys {
		if v.IsExpired(now) {
			delete(r.keys, k)
		}
	}
	return nil
}

func newIdempotentRouter(repo *memoryIdempotencyRepo, now *time.Time, status *int) (*gin.Engine, *int) {
	calls := 0
	r := gin.New()
	r.Use(Idempotency(IdempotencyConfig{
		Repo:   repo,
		Logger: logger.Discard(),
		Now:    func() time.Time { return *now },
	}))
	r.POST("/api/v1/receipts", func(c *gin.Context) {
		calls++
		c.JSON(*status, gin.H{"call": calls})
	})
	return r, &calls
}

func post(r http.Handler, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/receipts", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_ReplaysFirstResponse(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	status := http.StatusCreated
	r, calls := newIdempotentRouter(newMemoryIdempotencyRepo(), &now, &status)

	first := post(r, "tap-1", `{"itens":[]}`)
	second := post(r, "tap-1", `{"itens":[]}`)

	assert.Equal(t, 1, *calls)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("X-Idempotency-Replayed"))
}

func TestIdempotency_WithoutKeyAlwaysRuns(t *testing.T) {
	now := time.Now()
	status := http.StatusCreated
	r, calls := newIdempotentRouter(newMemoryIdempotencyRepo(), &now, &status)

	post(r, "", `{}`)
	post(r, "", `{}`)
	assert.Equal(t, 2, *calls)
}

func TestIdempotency_DifferentBodyRejected(t *testing.T) {
	now := time.Now()
	status := http.StatusCreated
	r, calls := newIdempotentRouter(newMemoryIdempotencyRepo(), &now, &status)

	post(r, "tap-1", `{"observacoes":"a"}`)
	w := post(r, "tap-1", `{"observacoes":"b"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, 1, *calls)
}

func TestIdempotency_ServerErrorsAreNotStored(t *testing.T) {
	now := time.Now()
	status := http.StatusServiceUnavailable
	r, calls := newIdempotentRouter(newMemoryIdempotencyRepo(), &now, &status)

	post(r, "tap-1", `{}`)
	status = http.StatusCreated
	w := post(r, "tap-1", `{}`)

	assert.Equal(t, 2, *calls)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestIdempotency_ExpiredKeyRunsAgain(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	status := http.StatusCreated
	repo := newMemoryIdempotencyRepo()
	r, calls := newIdempotentRouter(repo, &now, &status)

	post(r, "tap-1", `{}`)
	now = now.Add(IdempotencyKeyTTL + time.Minute)
	w := post(r, "tap-1", `{}`)

	assert.Equal(t, 2, *calls)
	assert.Empty(t, w.Header().Get("X-Idempotency-Replayed"))

	stored, _ := repo.GetByKey(context.Background(), "tap-1", "POST /api/v1/receipts")
	assert.False(t, stored.IsExpired(now))
}
