package login_test

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
	"github.com/victoor832/ColdMailAI-sub001/internal/http_server/handlers/login"
	"github.com/victoor832/ColdMailAI-sub001/internal/models"
	"github.com/victoor832/ColdMailAI-sub001/internal/storage"
)

type memStore struct {
	mu       sync.Mutex
	accounts map[string]models.Account
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
	return nil
}

func (s *memStore) ResetTokenBySecretHash(context.Context, []byte) (models.ResetToken, error) {
	return models.ResetToken{}, storage.ErrResetTokenNotFound
}

func (s *memStore) RedeemResetToken(context.Context, int64, int64, []byte, time.Time) error {
	return storage.ErrResetTokenNotFound
}

type noopPublisher struct{}

func (noopPublisher) SendMessage(context.Context, models.Message) error { return nil }

func newHandler(t *testing.T) http.HandlerFunc {
	t.Helper()

	store := &memStore{accounts: make(map[string]models.Account)}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := auth.New(log, store, store, store, noopPublisher{}, "http://localhost:8080", time.Hour, time.Hour, "test-secret")

	_, err := svc.SignUp(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)

	return login.New(log, validator.New(), svc)
}

func doLogin(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	return rec
}

func TestLoginSuccess(t *testing.T) {
	handler := newHandler(t)

	rec := doLogin(t, handler, `{"email":"a@x.com","password":"secret1"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "session_token")
}

func TestLoginFailuresShareOneResponse(t *testing.T) {
	// "Wrong password" and "no such account" must be byte-identical on the
	// wire, otherwise the endpoint leaks which emails are registered.
	handler := newHandler(t)

	wrongPass := doLogin(t, handler, `{"email":"a@x.com","password":"wrong12"}`)
	unknown := doLogin(t, handler, `{"email":"nobody@x.com","password":"secret1"}`)

	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, wrongPass.Code, unknown.Code)
	assert.Equal(t, wrongPass.Body.String(), unknown.Body.String())
}

func TestLoginRejectsMalformedEmail(t *testing.T) {
	handler := newHandler(t)

	rec := doLogin(t, handler, `{"email":"not-an-email","password":"secret1"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
