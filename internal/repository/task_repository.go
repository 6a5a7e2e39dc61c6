package repository

import (
	"context"

	"github.com/yukikurage/taskflow-api/internal/database"
	"github.com/yukikurage/taskflow-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// ListByOwner returns all tasks owned by userID
func (r *GormTaskRepository) ListByOwner(ctx context.Context, userID uint64) ([]models.Task, error) {
	tasks := []models.Task{}
	err := r.db.WithContext(ctx).
		Scopes(database.OwnedBy(userID)).
		Order("created_at ASC, id ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// FindOwned finds the task (id, userID)
func (r *GormTaskRepository) FindOwned(ctx context.Context, id, userID uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).Scopes(database.OwnedRecord(id, userID)).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// UpdateOwned applies fields to the task (id, userID). The UPDATE itself carries
// the ownership predicate, so a concurrent delete or a foreign task yields
// ErrNotFound instead of a write.
func (r *GormTaskRepository) UpdateOwned(ctx context.Context, id, userID uint64, fields map[string]interface{}) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Task{}).
			Scopes(database.OwnedRecord(id, userID)).
			Updates(fields)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		return tx.Scopes(database.OwnedRecord(id, userID)).First(&task).Error
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteOwned deletes the task (id, userID) and returns its prior state
func (r *GormTaskRepository) DeleteOwned(ctx context.Context, id, userID uint64) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(database.OwnedRecord(id, userID)).First(&task).Error; err != nil {
			return err
		}

		result := tx.Scopes(database.OwnedRecord(id, userID)).Delete(&models.Task{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}
