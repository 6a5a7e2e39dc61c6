package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskflow-api/internal/auth"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

type sentMail struct {
	Email string
	Token string
}

// recordingMailer keeps every reset mail instead of sending it.
type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *recordingMailer) SendResetPasswordMail(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{Email: email, Token: token})
	return m.err
}

func (m *recordingMailer) Sent() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

func newTestTokens(t testing.TB) *auth.Manager {
	t.Helper()

	tokens, err := auth.NewManager("test-secret", "taskflow-test", auth.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	return tokens
}

// failingPasswordRepository fails every password write.
type failingPasswordRepository struct {
	repository.UserRepository
	err error
}

func (r *failingPasswordRepository) UpdatePassword(context.Context, uint64, string) error {
	return r.err
}
