package passwordReset_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victoor832/ColdMailAI-sub001/internal/auth"
	passwordReset "github.com/victoor832/ColdMailAI-sub001/internal/http_server/handlers/password_reset"
	"github.com/victoor832/ColdMailAI-sub001/internal/models"
	"github.com/victoor832/ColdMailAI-sub001/internal/storage"
)

type memStore struct {
	mu       sync.Mutex
	accounts map[string]models.Account
	tokens   int
	nextID   int64
}

func (s *memStore) SaveAccount(_ context.Context, email string, credHash []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[email]; ok {
		return 0, storage.ErrAccountExists
	}
	s.nextID++
	s.accounts[email] = models.Account{ID: s.nextID, Email: email, CredentialHash: credHash}
	return s.nextID, nil
}

func (s *memStore) AccountByEmail(_ context.Context, email string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[email]
	if !ok {
		return models.Account{}, storage.ErrAccountNotFound
	}
	return a, nil
}

func (s *memStore) UpdateCredentialHash(context.Context, int64, []byte) error { return nil }

func (s *memStore) SaveResetToken(context.Context, int64, []byte, time.Time, time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens++
	return nil
}

func (s *memStore) ResetTokenBySecretHash(context.Context, []byte) (models.ResetToken, error) {
	return models.ResetToken{}, storage.ErrResetTokenNotFound
}

func (s *memStore) RedeemResetToken(context.Context, int64, int64, []byte, time.Time) error {
	return storage.ErrResetTokenNotFound
}

func (s *memStore) tokenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens
}

type noopPublisher struct{}

func (noopPublisher) SendMessage(context.Context, models.Message) error { return nil }

func newHandler(t *testing.T) (http.HandlerFunc, *memStore) {
	t.Helper()

	store := &memStore{accounts: make(map[string]models.Account)}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := auth.New(log, store, store, store, noopPublisher{}, "http://localhost:8080", time.Hour, time.Hour, "test-secret")

	_, err := svc.SignUp(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)

	return passwordReset.New(log, validator.New(), svc), store
}

func doRequest(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/password-reset/request", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	return rec
}

func TestRequestResponsesAreIndistinguishable(t *testing.T) {
	handler, store := newHandler(t)

	known := doRequest(t, handler, `{"email":"a@x.com"}`)
	unknown := doRequest(t, handler, `{"email":"nobody@x.com"}`)

	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, known.Code, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())

	assert.Contains(t, known.Body.String(), passwordReset.MsgResetRequested)

	// Only the registered email gets a token row.
	assert.Equal(t, 1, store.tokenCount())
}

func TestRequestRejectsMalformedEmail(t *testing.T) {
	handler, store := newHandler(t)

	rec := doRequest(t, handler, `{"email":"not-an-email"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, store.tokenCount())
}
