package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yukikurage/taskflow-api/internal/constants"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/repository"
)

var (
	ErrTaskNotFound        = apierrors.New(apierrors.ErrNotFound, "Task not found")
	ErrTitleRequired       = apierrors.New(apierrors.ErrValidation, "Title is required")
	ErrTitleTooLong        = apierrors.New(apierrors.ErrValidation, fmt.Sprintf("Title must be at most %d characters", constants.MaxTitleLength))
	ErrDescriptionRequired = apierrors.New(apierrors.ErrValidation, "Description is required")
	ErrDueDateRequired     = apierrors.New(apierrors.ErrValidation, "Due date is required")
	ErrInvalidDueDate      = apierrors.New(apierrors.ErrValidation, "Due date must be an RFC 3339 timestamp, a YYYY-MM-DD date or epoch milliseconds")
	ErrInvalidDone         = apierrors.New(apierrors.ErrValidation, "done must be a boolean")
	ErrInvalidTaskField    = apierrors.New(apierrors.ErrValidation, "title and description must be strings")
	ErrNoFieldsToUpdate    = apierrors.New(apierrors.ErrValidation, "No valid fields to update")
	ErrIncompleteTask      = apierrors.New(apierrors.ErrValidation, "title, description, done and dueDate are all required")
)

// Request keys accepted by ReplaceTask and PatchTask, mapped to their columns.
var taskFieldColumns = map[string]string{
	"title":       "title",
	"description": "description",
	"dueDate":     "due_date",
	"done":        "done",
}

var dueDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// TaskService scopes every task operation to the acting user.
type TaskService struct {
	taskRepo repository.TaskRepository
	now      func() time.Time
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		now:      time.Now,
	}
}

// CreateTaskInput represents input for creating a task. DueDate holds the raw
// decoded JSON value.
type CreateTaskInput struct {
	UserID      uint64
	Title       string
	Description string
	DueDate     interface{}
}

// ListTasks returns every task owned by userID
func (s *TaskService) ListTasks(ctx context.Context, userID uint64) ([]models.Task, error) {
	tasks, err := s.taskRepo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask returns the task only if userID owns it
func (s *TaskService) GetTask(ctx context.Context, taskID, userID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindOwned(ctx, taskID, userID)
	if err != nil {
		return nil, mapTaskError("failed to find task", err)
	}
	return task, nil
}

// CreateTask validates input and stores a new open task
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, ErrDescriptionRequired
	}
	if input.DueDate == nil {
		return nil, ErrDueDateRequired
	}
	dueDate, err := ParseDueDate(input.DueDate)
	if err != nil {
		return nil, err
	}

	now := s.now()
	task := &models.Task{
		UserID:      input.UserID,
		Title:       title,
		Description: &description,
		DueDate:     dueDate,
		Done:        false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// ReplaceTask overwrites all four editable fields. Every key must be present;
// done may be false and dueDate may be null.
func (s *TaskService) ReplaceTask(ctx context.Context, taskID, userID uint64, fields map[string]interface{}) (*models.Task, error) {
	for key := range taskFieldColumns {
		if _, ok := fields[key]; !ok {
			return nil, ErrIncompleteTask
		}
	}

	updates, err := s.buildUpdates(fields)
	if err != nil {
		return nil, err
	}
	if desc, ok := updates["description"].(string); !ok || desc == "" {
		return nil, ErrDescriptionRequired
	}

	task, err := s.taskRepo.UpdateOwned(ctx, taskID, userID, updates)
	if err != nil {
		return nil, mapTaskError("failed to replace task", err)
	}
	return task, nil
}

// PatchTask applies the allow-listed subset of fields. Unknown keys are
// dropped; nothing is written when none remain.
func (s *TaskService) PatchTask(ctx context.Context, taskID, userID uint64, fields map[string]interface{}) (*models.Task, error) {
	updates, err := s.buildUpdates(fields)
	if err != nil {
		return nil, err
	}

	task, err := s.taskRepo.UpdateOwned(ctx, taskID, userID, updates)
	if err != nil {
		return nil, mapTaskError("failed to update task", err)
	}
	return task, nil
}

// DeleteTask removes the task and returns its state before deletion
func (s *TaskService) DeleteTask(ctx context.Context, taskID, userID uint64) (*models.Task, error) {
	task, err := s.taskRepo.DeleteOwned(ctx, taskID, userID)
	if err != nil {
		return nil, mapTaskError("failed to delete task", err)
	}
	return task, nil
}

// buildUpdates filters fields to the allow-set, validates each value and
// returns a column map that also refreshes updated_at.
func (s *TaskService) buildUpdates(fields map[string]interface{}) (map[string]interface{}, error) {
	updates := make(map[string]interface{}, len(taskFieldColumns)+1)

	for key, column := range taskFieldColumns {
		raw, ok := fields[key]
		if !ok {
			continue
		}

		switch key {
		case "title":
			str, isString := raw.(string)
			if !isString {
				return nil, ErrInvalidTaskField
			}
			title, err := validateTitle(str)
			if err != nil {
				return nil, err
			}
			updates[column] = title
		case "description":
			if raw == nil {
				updates[column] = nil
				continue
			}
			str, isString := raw.(string)
			if !isString {
				return nil, ErrInvalidTaskField
			}
			updates[column] = strings.TrimSpace(str)
		case "done":
			done, isBool := raw.(bool)
			if !isBool {
				return nil, ErrInvalidDone
			}
			updates[column] = done
		case "dueDate":
			dueDate, err := ParseDueDate(raw)
			if err != nil {
				return nil, err
			}
			if dueDate == nil {
				updates[column] = nil
			} else {
				updates[column] = *dueDate
			}
		}
	}

	if len(updates) == 0 {
		return nil, ErrNoFieldsToUpdate
	}

	updates["updated_at"] = s.now()
	return updates, nil
}

// ParseDueDate converts a decoded JSON value into a minute-precision UTC
// instant. Strings may be RFC 3339, "2006-01-02T15:04" or "2006-01-02";
// numbers are epoch milliseconds. nil yields nil.
func ParseDueDate(raw interface{}) (*time.Time, error) {
	var t time.Time

	switch v := raw.(type) {
	case nil:
		return nil, nil
	case time.Time:
		t = v
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		t = *v
	case string:
		parsed, err := parseDueDateString(strings.TrimSpace(v))
		if err != nil {
			return nil, err
		}
		t = parsed
	case float64:
		ms, err := floatMillis(v)
		if err != nil {
			return nil, err
		}
		t = time.UnixMilli(ms)
	case int64:
		t = time.UnixMilli(v)
	case int:
		t = time.UnixMilli(int64(v))
	case json.Number:
		ms, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil {
				return nil, ErrInvalidDueDate
			}
			if ms, err = floatMillis(f); err != nil {
				return nil, err
			}
		}
		t = time.UnixMilli(ms)
	default:
		return nil, ErrInvalidDueDate
	}

	t = t.UTC().Truncate(time.Minute)
	if t.Year() < minDueDateYear || t.Year() > maxDueDateYear {
		return nil, ErrInvalidDueDate
	}
	return &t, nil
}

// Due dates must render as four-digit RFC 3339 years.
const (
	minDueDateYear = 0
	maxDueDateYear = 9999
)

func floatMillis(v float64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v >= math.MaxInt64 || v < math.MinInt64 {
		return 0, ErrInvalidDueDate
	}
	return int64(v), nil
}

func parseDueDateString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, ErrInvalidDueDate
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDueDate
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > constants.MaxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}

func mapTaskError(action string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTaskNotFound
	}
	return fmt.Errorf("%s: %w", action, err)
}
