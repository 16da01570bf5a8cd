package repository

import (
	"context"
	"fmt"

	"github.com/dayzadb/adb-dashboard/internal/database"
	"github.com/dayzadb/adb-dashboard/internal/domain/model"
)

// FeedbackRepository — доступ к таблице user_feedback.
type FeedbackRepository interface {
	// Insert сохраняет обращение; timestamp назначает база данных.
	Insert(ctx context.Context, fb *model.Feedback) error
	// List возвращает обращения, новые первыми; limit <= 0 — без ограничения.
	List(ctx context.Context, limit int) ([]*model.Feedback, error)
}

type feedbackRepo struct {
	pool *database.Pool
}

// NewFeedbackRepository создаёт репозиторий обратной связи.
func NewFeedbackRepository(pool *database.Pool) FeedbackRepository {
	return &feedbackRepo{pool: pool}
}

func (r *feedbackRepo) Insert(ctx context.Context, fb *model.Feedback) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("ошибка получения соединения: %w", err)
	}
	defer r.pool.Release(conn)

	err = conn.QueryRow(ctx, `
		INSERT INTO user_feedback (user_id, subject, message, category, priority)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, "timestamp"`,
		fb.UserID, fb.Subject, fb.Message, fb.Category, fb.Priority,
	).Scan(&fb.ID, &fb.Timestamp)
	if err != nil {
		return fmt.Errorf("ошибка сохранения обращения: %w", err)
	}
	return nil
}

func (r *feedbackRepo) List(ctx context.Context, limit int) ([]*model.Feedback, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения соединения: %w", err)
	}
	defer r.pool.Release(conn)

	query := `
		SELECT id, user_id, subject, message, category, priority, "timestamp"
		FROM user_feedback
		ORDER BY "timestamp" DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения обращений: %w", err)
	}
	defer rows.Close()

	var result []*model.Feedback
	for rows.Next() {
		fb := &model.Feedback{}
		if err := rows.Scan(
			&fb.ID, &fb.UserID, &fb.Subject, &fb.Message,
			&fb.Category, &fb.Priority, &fb.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования обращения: %w", err)
		}
		result = append(result, fb)
	}
	return result, rows.Err()
}
