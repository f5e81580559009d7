package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ErnestWetherell/microcanvas-m1/internal/models"
)

// AddComment stores a new comment. Comments are never edited afterwards.
func (s *Store) AddComment(ctx context.Context, taskID, authorID uint, body string) (*models.TaskComment, error) {
	c := &models.TaskComment{TaskID: taskID, AuthorID: authorID, Body: body}
	if err := s.conn(ctx).Create(c).Error; err != nil {
		return nil, errors.Wrap(err, "create comment")
	}
	return c, nil
}

// CommentsForTask lists the task's comments newest first, with Author loaded.
func (s *Store) CommentsForTask(ctx context.Context, taskID uint) ([]models.TaskComment, error) {
	var comments []models.TaskComment
	err := s.conn(ctx).
		Preload("Author").
		Where("task_id = ?", taskID).
		Order("created_at DESC, id DESC").
		Find(&comments).Error
	return comments, errors.Wrap(err, "list task comments")
}

func (s *Store) CountComments(ctx context.Context, taskID uint) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.TaskComment{}).Where("task_id = ?", taskID).Count(&n).Error
	return n, errors.Wrap(err, "count comments")
}
