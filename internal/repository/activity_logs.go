package repository

import (
	"context"
	"fmt"

	"github.com/dayzadb/adb-dashboard/internal/database"
	"github.com/dayzadb/adb-dashboard/internal/domain/model"
)

// ActivityLogRepository — доступ к таблице activity_logs (append-only).
// Записи не обновляются и не удаляются.
type ActivityLogRepository interface {
	// Insert добавляет запись; timestamp назначает база данных.
	Insert(ctx context.Context, entry *model.ActivityLogEntry) error
	// List возвращает записи, новые первыми; limit <= 0 — без ограничения.
	List(ctx context.Context, limit int) ([]*model.ActivityLogEntry, error)
}

type activityLogRepo struct {
	pool *database.Pool
}

// NewActivityLogRepository создаёт репозиторий журнала действий.
func NewActivityLogRepository(pool *database.Pool) ActivityLogRepository {
	return &activityLogRepo{pool: pool}
}

func (r *activityLogRepo) Insert(ctx context.Context, entry *model.ActivityLogEntry) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("ошибка получения соединения: %w", err)
	}
	defer r.pool.Release(conn)

	// Пустые снимки состояния пишутся как NULL
	before := nullIfEmpty(entry.BeforeState)
	after := nullIfEmpty(entry.AfterState)

	err = conn.QueryRow(ctx, `
		INSERT INTO activity_logs (user_id, action, details, before_state, after_state)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, "timestamp"`,
		entry.UserID, entry.Action, entry.Details, before, after,
	).Scan(&entry.ID, &entry.Timestamp)
	if err != nil {
		return fmt.Errorf("ошибка записи в журнал действий: %w", err)
	}
	return nil
}

func (r *activityLogRepo) List(ctx context.Context, limit int) ([]*model.ActivityLogEntry, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения соединения: %w", err)
	}
	defer r.pool.Release(conn)

	query := `
		SELECT id, user_id, action, details,
			COALESCE(before_state::text, ''), COALESCE(after_state::text, ''), "timestamp"
		FROM activity_logs
		ORDER BY "timestamp" DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала действий: %w", err)
	}
	defer rows.Close()

	var result []*model.ActivityLogEntry
	for rows.Next() {
		entry := &model.ActivityLogEntry{}
		if err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.Action, &entry.Details,
			&entry.BeforeState, &entry.AfterState, &entry.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи журнала: %w", err)
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

// nullIfEmpty возвращает nil для пустой строки (NULL в базе данных).
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
