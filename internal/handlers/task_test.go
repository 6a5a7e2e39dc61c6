package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/models"
)

// TaskHandlerTestSuite defines the test suite for TaskHandler
type TaskHandlerTestSuite struct {
	suite.Suite
	env   *testEnv
	alice authBody
	bob   authBody
}

type taskBody struct {
	ID          uint64  `json:"id"`
	UserID      uint64  `json:"userId"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"dueDate"`
	Done        bool    `json:"done"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

// SetupTest runs before each test
func (suite *TaskHandlerTestSuite) SetupTest() {
	suite.env = setupTestEnv(suite.T())
	suite.alice = suite.env.register(suite.T(), "alice@x.com")
	suite.bob = suite.env.register(suite.T(), "bob@x.com")
}

func (suite *TaskHandlerTestSuite) do(method, url string, body interface{}, token string) *httptest.ResponseRecorder {
	return suite.env.request(suite.T(), method, url, body, token)
}

func (suite *TaskHandlerTestSuite) decodeTask(w *httptest.ResponseRecorder) taskBody {
	var task taskBody
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &task), w.Body.String())
	return task
}

func (suite *TaskHandlerTestSuite) createTask(token, title string) taskBody {
	w := suite.do(http.MethodPost, "/tasks", map[string]interface{}{
		"title":       title,
		"description": "Test Description",
		"dueDate":     "2024-01-01T10:15:45.500Z",
	}, token)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return suite.decodeTask(w)
}

func taskURL(id uint64) string {
	return fmt.Sprintf("/tasks/%d", id)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_TruncatesDueDate() {
	task := suite.createTask(suite.alice.Token, "Write report")

	suite.Equal(suite.alice.User.ID, task.UserID)
	suite.False(task.Done)
	suite.Require().NotNil(task.DueDate)
	suite.Equal("2024-01-01T10:15:00Z", *task.DueDate)

	w := suite.do(http.MethodGet, taskURL(task.ID), nil, suite.alice.Token)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal("2024-01-01T10:15:00Z", *suite.decodeTask(w).DueDate)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_AcceptsRawDueDate() {
	w := suite.do(http.MethodPost, "/tasks", map[string]interface{}{
		"title":       "Legacy client",
		"description": "Uses rawDueDate",
		"rawDueDate":  "2024-05-06",
	}, suite.alice.Token)
	suite.Require().Equal(http.StatusCreated, w.Code)
	suite.Equal("2024-05-06T00:00:00Z", *suite.decodeTask(w).DueDate)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_ValidationError() {
	for _, body := range []map[string]interface{}{
		{"description": "d", "dueDate": "2024-01-01"},
		{"title": "t", "dueDate": "2024-01-01"},
		{"title": "t", "description": "d"},
		{"title": "t", "description": "d", "dueDate": "someday"},
	} {
		w := suite.do(http.MethodPost, "/tasks", body, suite.alice.Token)
		suite.Equal(http.StatusBadRequest, w.Code, "%v", body)
	}

	var count int64
	suite.Require().NoError(suite.env.db.Model(&models.Task{}).Count(&count).Error)
	suite.Zero(count)
}

func (suite *TaskHandlerTestSuite) TestDueDateOutOfRange() {
	task := suite.createTask(suite.alice.Token, "keep")

	for _, dueDate := range []float64{1e15, 1e300, -1e300} {
		w := suite.do(http.MethodPost, "/tasks", map[string]interface{}{
			"title":       "far away",
			"description": "d",
			"dueDate":     dueDate,
		}, suite.alice.Token)
		suite.Equal(http.StatusBadRequest, w.Code, "%v", dueDate)
		suite.Equal(apierrors.ErrCodeInvalidInput, decodeAPIError(suite.T(), w).Code)

		w = suite.do(http.MethodPatch, taskURL(task.ID), map[string]interface{}{"dueDate": dueDate}, suite.alice.Token)
		suite.Equal(http.StatusBadRequest, w.Code, "%v", dueDate)
	}

	var count int64
	suite.Require().NoError(suite.env.db.Model(&models.Task{}).Count(&count).Error)
	suite.Equal(int64(1), count)

	w := suite.do(http.MethodGet, taskURL(task.ID), nil, suite.alice.Token)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal("2024-01-01T10:15:00Z", *suite.decodeTask(w).DueDate)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_IgnoresClientUserID() {
	w := suite.do(http.MethodPost, "/tasks", map[string]interface{}{
		"title":       "Mine",
		"description": "d",
		"dueDate":     "2024-01-01",
		"userId":      suite.bob.User.ID,
	}, suite.alice.Token)
	suite.Require().Equal(http.StatusCreated, w.Code)
	suite.Equal(suite.alice.User.ID, suite.decodeTask(w).UserID)
}

func (suite *TaskHandlerTestSuite) TestListTasks() {
	suite.createTask(suite.alice.Token, "first")
	suite.createTask(suite.alice.Token, "second")
	suite.createTask(suite.bob.Token, "bob's")

	w := suite.do(http.MethodGet, "/tasks", nil, suite.alice.Token)
	suite.Require().Equal(http.StatusOK, w.Code)

	var response struct {
		Tasks []taskBody `json:"tasks"`
		Total int        `json:"total"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.Equal(2, response.Total)
	suite.Require().Len(response.Tasks, 2)
	suite.Equal("first", response.Tasks[0].Title)
}

func (suite *TaskHandlerTestSuite) TestListTasks_EmptyIsOK() {
	c, w := suite.createAuthContext(http.MethodGet, "/tasks", suite.bob.User.ID)

	suite.env.taskHandler.ListTasks(c)

	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"tasks":[],"total":0}`, w.Body.String())
}

func (suite *TaskHandlerTestSuite) TestForeignTaskIsNotFound() {
	task := suite.createTask(suite.alice.Token, "private")
	url := taskURL(task.ID)

	missing := suite.do(http.MethodGet, taskURL(task.ID+100), nil, suite.bob.Token)
	suite.Equal(http.StatusNotFound, missing.Code)

	for _, w := range []*httptest.ResponseRecorder{
		suite.do(http.MethodGet, url, nil, suite.bob.Token),
		suite.do(http.MethodPatch, url, map[string]interface{}{"done": true}, suite.bob.Token),
		suite.do(http.MethodPut, url, map[string]interface{}{
			"title": "x", "description": "y", "done": true, "dueDate": nil,
		}, suite.bob.Token),
		suite.do(http.MethodDelete, url, nil, suite.bob.Token),
	} {
		suite.Equal(http.StatusNotFound, w.Code)
		suite.Equal(apierrors.ErrCodeNotFound, decodeAPIError(suite.T(), w).Code)
		suite.JSONEq(missing.Body.String(), w.Body.String())
	}

	w := suite.do(http.MethodGet, url, nil, suite.alice.Token)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.False(suite.decodeTask(w).Done)
}

func (suite *TaskHandlerTestSuite) TestPatchTask() {
	task := suite.createTask(suite.alice.Token, "draft")

	w := suite.do(http.MethodPatch, taskURL(task.ID), map[string]interface{}{
		"done":  true,
		"color": "blue",
	}, suite.alice.Token)
	suite.Require().Equal(http.StatusOK, w.Code)
	patched := suite.decodeTask(w)
	suite.True(patched.Done)
	suite.Equal("draft", patched.Title)
}

func (suite *TaskHandlerTestSuite) TestPatchTask_OnlyUnknownKeys() {
	task := suite.createTask(suite.alice.Token, "draft")

	w := suite.do(http.MethodPatch, taskURL(task.ID), map[string]interface{}{"color": "blue"}, suite.alice.Token)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(apierrors.ErrCodeInvalidInput, decodeAPIError(suite.T(), w).Code)

	w = suite.do(http.MethodGet, taskURL(task.ID), nil, suite.alice.Token)
	suite.Equal(task.UpdatedAt, suite.decodeTask(w).UpdatedAt)
}

func (suite *TaskHandlerTestSuite) TestReplaceTask() {
	task := suite.createTask(suite.alice.Token, "draft")

	w := suite.do(http.MethodPut, taskURL(task.ID), map[string]interface{}{
		"title":       "final",
		"description": "rewritten",
		"done":        false,
		"dueDate":     nil,
	}, suite.alice.Token)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	replaced := suite.decodeTask(w)
	suite.Equal("final", replaced.Title)
	suite.Nil(replaced.DueDate)

	w = suite.do(http.MethodPut, taskURL(task.ID), map[string]interface{}{
		"title":       "final",
		"description": "rewritten",
		"dueDate":     nil,
	}, suite.alice.Token)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestDeleteTask() {
	task := suite.createTask(suite.alice.Token, "doomed")

	w := suite.do(http.MethodDelete, taskURL(task.ID), nil, suite.alice.Token)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal("doomed", suite.decodeTask(w).Title)

	w = suite.do(http.MethodGet, taskURL(task.ID), nil, suite.alice.Token)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *TaskHandlerTestSuite) TestInvalidTaskID() {
	w := suite.do(http.MethodGet, "/tasks/abc", nil, suite.alice.Token)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestRequiresSession() {
	w := suite.do(http.MethodGet, "/tasks", nil, "")
	suite.Equal(http.StatusUnauthorized, w.Code)

	reset, err := suite.env.tokens.IssueResetToken(suite.alice.User.ID, "alice@x.com")
	suite.Require().NoError(err)
	w = suite.do(http.MethodGet, "/tasks", nil, reset)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

// createAuthContext builds a context as if RequireAuth had run
func (suite *TaskHandlerTestSuite) createAuthContext(method, url string, userID uint64) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, url, nil)
	c.Set("user_id", userID)
	return c, w
}

// TestTaskHandlerTestSuite runs the test suite
func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}
