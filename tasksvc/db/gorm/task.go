package gorm

import (
	"context"
	"errors"

	"github.com/ichigozero/todokit/tasksvc"
	stdgorm "gorm.io/gorm"
)

type taskRepository struct {
	db *stdgorm.DB
}

func NewTaskRepository(db *stdgorm.DB) tasksvc.TaskRepository {
	return &taskRepository{db}
}

func (t taskRepository) FindAll(ctx context.Context) ([]tasksvc.Task, error) {
	tasks := []tasksvc.Task{}
	result := t.db.WithContext(ctx).Order("id").Find(&tasks)

	return tasks, result.Error
}

func (t taskRepository) FindByOwner(ctx context.Context, ownerID uint64) ([]tasksvc.Task, error) {
	tasks := []tasksvc.Task{}
	result := t.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id").Find(&tasks)

	return tasks, result.Error
}

func (t taskRepository) Find(ctx context.Context, ownerID, taskID uint64) (tasksvc.Task, error) {
	return find(t.db.WithContext(ctx), ownerID, taskID)
}

func (t taskRepository) Create(ctx context.Context, ownerID uint64, f tasksvc.Fields) (tasksvc.Task, error) {
	task := tasksvc.Task{
		Title:       f.Title,
		Description: f.Description,
		Priority:    f.Priority,
		Complete:    f.Complete,
		OwnerID:     ownerID,
	}
	result := t.db.WithContext(ctx).Create(&task)

	return task, result.Error
}

func (t taskRepository) Update(ctx context.Context, ownerID, taskID uint64, f tasksvc.Fields) (tasksvc.Task, error) {
	var task tasksvc.Task
	err := t.db.WithContext(ctx).Transaction(func(tx *stdgorm.DB) error {
		result := tx.Model(&tasksvc.Task{}).
			Where("id = ? AND owner_id = ?", taskID, ownerID).
			Updates(map[string]interface{}{
				"title":       f.Title,
				"description": f.Description,
				"priority":    f.Priority,
				"complete":    f.Complete,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return tasksvc.ErrTaskNotFound
		}

		var err error
		task, err = find(tx, ownerID, taskID)
		return err
	})
	if err != nil {
		return tasksvc.Task{}, err
	}

	return task, nil
}

func (t taskRepository) Delete(ctx context.Context, ownerID, taskID uint64) error {
	return t.db.WithContext(ctx).Transaction(func(tx *stdgorm.DB) error {
		result := tx.Where("id = ? AND owner_id = ?", taskID, ownerID).Delete(&tasksvc.Task{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return tasksvc.ErrTaskNotFound
		}
		return nil
	})
}

func find(db *stdgorm.DB, ownerID, taskID uint64) (tasksvc.Task, error) {
	var task tasksvc.Task
	err := db.Where("id = ? AND owner_id = ?", taskID, ownerID).First(&task).Error
	if errors.Is(err, stdgorm.ErrRecordNotFound) {
		return tasksvc.Task{}, tasksvc.ErrTaskNotFound
	}

	return task, err
}
