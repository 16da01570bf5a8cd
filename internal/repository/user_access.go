package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dayzadb/adb-dashboard/internal/database"
	"github.com/dayzadb/adb-dashboard/internal/domain/model"
)

// UserAccessRepository — доступ к таблицам user_access и user_servers.
type UserAccessRepository interface {
	// List возвращает всех пользователей дашборда с их привязками к серверам.
	List(ctx context.Context) ([]*model.UserAccess, error)
	// GetByDiscordID возвращает пользователя по Discord ID.
	GetByDiscordID(ctx context.Context, discordID string) (*model.UserAccess, error)
	// Create добавляет пользователя; занятый discord_id → ErrConflict.
	Create(ctx context.Context, ua *model.UserAccess) error
	// Update обновляет имя и уровень доступа пользователя.
	Update(ctx context.Context, ua *model.UserAccess) error
	// Delete удаляет пользователя и все его привязки в одной транзакции.
	Delete(ctx context.Context, discordID string) error
	// AssignServers заменяет привязки пользователя целиком
	// (удаление старых и вставка новых в одной транзакции).
	AssignServers(ctx context.Context, discordID string, servers []string) error
	// AssignedServers возвращает имена серверов, назначенных пользователю.
	AssignedServers(ctx context.Context, discordID string) ([]string, error)
}

type userAccessRepo struct {
	pool *database.Pool
}

// NewUserAccessRepository создаёт репозиторий пользователей дашборда.
func NewUserAccessRepository(pool *database.Pool) UserAccessRepository {
	return &userAccessRepo{pool: pool}
}

func (r *userAccessRepo) List(ctx context.Context) ([]*model.UserAccess, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения соединения: %w", err)
	}
	defer r.pool.Release(conn)

	rows, err := conn.Query(ctx, `
		SELECT id, discord_id, username, access_level
		FROM user_access
		ORDER BY username, discord_id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка пользователей: %w", err)
	}
	defer rows.Close()

	var result []*model.UserAccess
	byDiscordID := make(map[string]*model.UserAccess)
	for rows.Next() {
		ua := &model.UserAccess{}
		if err := rows.Scan(&ua.ID, &ua.DiscordID, &ua.Username, &ua.AccessLevel); err != nil {
			return nil, fmt.Errorf("ошибка сканирования пользователя: %w", err)
		}
		result = append(result, ua)
		byDiscordID[ua.DiscordID] = ua
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	// Подтягиваем привязки одним запросом
	srvRows, err := conn.Query(ctx, `SELECT discord_id, server_name FROM user_servers ORDER BY server_name`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения привязок: %w", err)
	}
	defer srvRows.Close()

	for srvRows.Next() {
		var discordID, serverName string
		if err := srvRows.Scan(&discordID, &serverName); err != nil {
			return nil, fmt.Errorf("ошибка сканирования привязки: %w", err)
		}
		if ua, ok := byDiscordID[discordID]; ok {
			ua.Servers = append(ua.Servers, serverName)
		}
	}
	return result, srvRows.Err()
}

func (r *userAccessRepo) GetByDiscordID(ctx context.Context, discordID string) (*model.UserAccess, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения соединения: %w", err)
	}
	defer r.pool.Release(conn)

	ua := &model.UserAccess{}
	err = conn.QueryRow(ctx, `
		SELECT id, discord_id, username, access_level
		FROM user_access
		WHERE discord_id = $1`, discordID,
	).Scan(&ua.ID, &ua.DiscordID, &ua.Username, &ua.AccessLevel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}

	ua.Servers, err = assignedServers(ctx, conn, discordID)
	if err != nil {
		return nil, err
	}
	return ua, nil
}

func (r *userAccessRepo) Create(ctx context.Context, ua *model.UserAccess) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("ошибка получения соединения: %w", err)
	}
	defer r.pool.Release(conn)

	err = conn.QueryRow(ctx, `
		INSERT INTO user_access (discord_id, username, access_level)
		VALUES ($1, $2, $3)
		RETURNING id`,
		ua.DiscordID, ua.Username, ua.AccessLevel,
	).Scan(&ua.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: пользователь с таким Discord ID уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка добавления пользователя: %w", err)
	}
	return nil
}

func (r *userAccessRepo) Update(ctx context.Context, ua *model.UserAccess) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("ошибка получения соединения: %w", err)
	}
	defer r.pool.Release(conn)

	tag, err := conn.Exec(ctx, `
		UPDATE user_access
		SET username = $2, access_level = $3
		WHERE discord_id = $1`,
		ua.DiscordID, ua.Username, ua.AccessLevel,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления пользователя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userAccessRepo) Delete(ctx context.Context, discordID string) error {
	// Пользователь и его привязки удаляются атомарно
	return runInTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_servers WHERE discord_id = $1`, discordID); err != nil {
			return fmt.Errorf("ошибка удаления привязок: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM user_access WHERE discord_id = $1`, discordID)
		if err != nil {
			return fmt.Errorf("ошибка удаления пользователя: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *userAccessRepo) AssignServers(ctx context.Context, discordID string, servers []string) error {
	// Замена привязок целиком: старые удаляются, новые вставляются
	// в одной транзакции, промежуточное состояние наружу не видно
	return runInTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_servers WHERE discord_id = $1`, discordID); err != nil {
			return fmt.Errorf("ошибка удаления старых привязок: %w", err)
		}
		for _, server := range servers {
			if _, err := tx.Exec(ctx, `
				INSERT INTO user_servers (discord_id, server_name)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING`,
				discordID, server,
			); err != nil {
				return fmt.Errorf("ошибка добавления привязки %q: %w", server, err)
			}
		}
		return nil
	})
}

func (r *userAccessRepo) AssignedServers(ctx context.Context, discordID string) ([]string, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения соединения: %w", err)
	}
	defer r.pool.Release(conn)

	return assignedServers(ctx, conn, discordID)
}

// assignedServers возвращает имена серверов пользователя (по алфавиту).
func assignedServers(ctx context.Context, db DBTX, discordID string) ([]string, error) {
	rows, err := db.Query(ctx, `
		SELECT server_name FROM user_servers
		WHERE discord_id = $1
		ORDER BY server_name`, discordID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения привязок: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("ошибка сканирования привязки: %w", err)
		}
		result = append(result, name)
	}
	return result, rows.Err()
}
