package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ErnestWetherell/microcanvas-m1/internal/models"
)

func (s *Store) CreateTask(ctx context.Context, t *models.Task) error {
	if t.Status == "" {
		t.Status = models.StatusTodo
	}
	if t.Points == 0 {
		t.Points = models.DefaultPoints
	}
	return errors.Wrap(s.conn(ctx).Create(t).Error, "create task")
}

// TaskByID loads the task with its course and team.
func (s *Store) TaskByID(ctx context.Context, id uint) (*models.Task, error) {
	var t models.Task
	if err := s.conn(ctx).Preload("Course").Preload("Team").First(&t, id).Error; err != nil {
		return nil, notFound(err, "task %d", id)
	}
	return &t, nil
}

// TasksForCourse lists the course's tasks in creation order, with Team loaded.
func (s *Store) TasksForCourse(ctx context.Context, courseID uint) ([]models.Task, error) {
	var tasks []models.Task
	err := s.conn(ctx).Preload("Team").Where("course_id = ?", courseID).Order("id ASC").Find(&tasks).Error
	return tasks, errors.Wrap(err, "list course tasks")
}

func (s *Store) TasksForTeam(ctx context.Context, teamID uint) ([]models.Task, error) {
	var tasks []models.Task
	err := s.conn(ctx).Where("team_id = ?", teamID).Order("id ASC").Find(&tasks).Error
	return tasks, errors.Wrap(err, "list team tasks")
}

func (s *Store) CountTasks(ctx context.Context, courseID uint) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Task{}).Where("course_id = ?", courseID).Count(&n).Error
	return n, errors.Wrap(err, "count tasks")
}

// UpcomingTasks returns up to limit tasks from the user's courses, soonest
// due first, tasks without a due date last.
func (s *Store) UpcomingTasks(ctx context.Context, userID uint, limit int) ([]models.Task, error) {
	courseIDs := s.conn(ctx).Model(&models.CourseMembership{}).Select("course_id").Where("user_id = ?", userID)

	var tasks []models.Task
	err := s.conn(ctx).
		Preload("Course").
		Where("course_id IN (?)", courseIDs).
		Order("CASE WHEN due_date IS NULL THEN 1 ELSE 0 END, due_date ASC, id ASC").
		Limit(limit).
		Find(&tasks).Error
	return tasks, errors.Wrap(err, "list upcoming tasks")
}

// UpdateTaskStatus moves the task to status. Any status can follow any other.
func (s *Store) UpdateTaskStatus(ctx context.Context, id uint, status models.TaskStatus) error {
	if _, err := models.ParseStatus(string(status)); err != nil {
		return err
	}
	res := s.conn(ctx).Model(&models.Task{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return errors.Wrap(res.Error, "update task status")
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "task %d", id)
	}
	return nil
}

// SetTaskScore stores the grade; a nil score marks the task as not graded.
func (s *Store) SetTaskScore(ctx context.Context, id uint, score *int) error {
	res := s.conn(ctx).Model(&models.Task{}).Where("id = ?", id).Update("score", score)
	if res.Error != nil {
		return errors.Wrap(res.Error, "update task score")
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "task %d", id)
	}
	return nil
}

func (s *Store) DeleteTask(ctx context.Context, id uint) error {
	return s.WithTx(ctx, func(tx *Store) error {
		if _, err := tx.TaskByID(ctx, id); err != nil {
			return err
		}
		db := tx.conn(ctx)
		if err := db.Where("task_id = ?", id).Delete(&models.TaskComment{}).Error; err != nil {
			return errors.Wrap(err, "delete task comments")
		}
		return errors.Wrap(db.Delete(&models.Task{}, id).Error, "delete task")
	})
}
