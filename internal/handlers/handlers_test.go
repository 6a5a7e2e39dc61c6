package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskflow-api/internal/auth"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/middleware"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"github.com/yukikurage/taskflow-api/internal/services"
	"github.com/yukikurage/taskflow-api/internal/testutil"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type recordingMailer struct {
	mu     sync.Mutex
	tokens map[string][]string
}

func (m *recordingMailer) SendResetPasswordMail(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens == nil {
		m.tokens = map[string][]string{}
	}
	m.tokens[email] = append(m.tokens[email], token)
	return nil
}

func (m *recordingMailer) TokensFor(email string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.tokens[email]...)
}

type testEnv struct {
	db          *gorm.DB
	tokens      *auth.Manager
	mailer      *recordingMailer
	authHandler *AuthHandler
	userHandler *UserHandler
	taskHandler *TaskHandler
	userService *services.UserService
	router      *gin.Engine
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	tokens, err := auth.NewManager("test-secret", "taskflow-test", auth.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	mailer := &recordingMailer{}

	userRepo := repository.NewUserRepository(db)
	authService := services.NewAuthService(userRepo, repository.NewResetTokenRepository(db), tokens, mailer)
	userService := services.NewUserService(userRepo, tokens)
	taskService := services.NewTaskService(repository.NewTaskRepository(db))

	env := &testEnv{
		db:          db,
		tokens:      tokens,
		mailer:      mailer,
		authHandler: NewAuthHandler(authService, userService),
		userHandler: NewUserHandler(userService),
		taskHandler: NewTaskHandler(taskService),
		userService: userService,
	}
	env.router = env.newRouter()
	return env
}

func (env *testEnv) newRouter() *gin.Engine {
	r := gin.New()
	requireAuth := middleware.RequireAuth(env.tokens)

	r.POST("/user/register", env.authHandler.Register)
	r.POST("/user/login", env.authHandler.Login)
	r.POST("/user/forgot-password", env.authHandler.ForgotPassword)
	r.POST("/user/reset-password", env.authHandler.ResetPassword)
	r.GET("/user/me", requireAuth, env.authHandler.GetCurrentUser)
	r.PATCH("/user/name", requireAuth, env.authHandler.ChangeName)
	r.PATCH("/user/password", requireAuth, env.authHandler.ChangePassword)
	r.DELETE("/user", requireAuth, env.authHandler.DeleteCurrentUser)

	users := r.Group("/users", requireAuth, middleware.RequireAdmin(env.userService))
	users.GET("", env.userHandler.ListUsers)
	users.DELETE("/:id", env.userHandler.DeleteUser)

	tasks := r.Group("/tasks", requireAuth)
	tasks.GET("", env.taskHandler.ListTasks)
	tasks.POST("", env.taskHandler.CreateTask)
	tasks.GET("/:id", middleware.RequireTaskID(), env.taskHandler.GetTask)
	tasks.PUT("/:id", middleware.RequireTaskID(), env.taskHandler.ReplaceTask)
	tasks.PATCH("/:id", middleware.RequireTaskID(), env.taskHandler.PatchTask)
	tasks.DELETE("/:id", middleware.RequireTaskID(), env.taskHandler.DeleteTask)
	return r
}

// request sends body as JSON, with a bearer token when token is not empty.
func (env *testEnv) request(t *testing.T, method, url string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

type authBody struct {
	Token string `json:"token"`
	User  struct {
		ID    uint64 `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
		Role  string `json:"role"`
	} `json:"user"`
}

// register creates a user through the API and returns the session token.
func (env *testEnv) register(t *testing.T, email string) authBody {
	t.Helper()

	w := env.request(t, http.MethodPost, "/user/register", map[string]string{
		"email":    email,
		"password": "longenough1",
		"name":     "Tester",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body authBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func decodeAPIError(t *testing.T, w *httptest.ResponseRecorder) apierrors.APIError {
	t.Helper()
	var body apierrors.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}
