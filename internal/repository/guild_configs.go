package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dayzadb/adb-dashboard/internal/database"
	"github.com/dayzadb/adb-dashboard/internal/domain/model"
)

// GuildConfigRepository — доступ к таблице guild_configs.
type GuildConfigRepository interface {
	// List возвращает все конфигурации серверов.
	List(ctx context.Context) ([]*model.GuildConfig, error)
	// GetByID возвращает конфигурацию по идентификатору.
	GetByID(ctx context.Context, id int64) (*model.GuildConfig, error)
	// ServerNames возвращает имена всех серверов (по алфавиту).
	ServerNames(ctx context.Context) ([]string, error)
	// Update обновляет конфигурацию; занятое server_name → ErrConflict.
	Update(ctx context.Context, cfg *model.GuildConfig) error
	// UpdateWithRename обновляет конфигурацию и переносит игроков
	// на новое имя сервера в одной транзакции.
	// Возвращает число перенесённых игроков.
	UpdateWithRename(ctx context.Context, cfg *model.GuildConfig, oldName string) (int64, error)
}

type guildConfigRepo struct {
	pool *database.Pool
}

// NewGuildConfigRepository создаёт репозиторий конфигураций серверов.
func NewGuildConfigRepository(pool *database.Pool) GuildConfigRepository {
	return &guildConfigRepo{pool: pool}
}

const guildConfigColumns = `id, guild_id, guild_name, server_name,
	nitrado_service_id, nitrado_token, alert_channel_id, admin_role_id`

// scanGuildConfig сканирует строку результата в модель GuildConfig.
func scanGuildConfig(row pgx.Row) (*model.GuildConfig, error) {
	cfg := &model.GuildConfig{}
	err := row.Scan(
		&cfg.ID, &cfg.GuildID, &cfg.GuildName, &cfg.ServerName,
		&cfg.NitradoServiceID, &cfg.NitradoToken, &cfg.AlertChannelID, &cfg.AdminRoleID,
	)
	return cfg, err
}

func (r *guildConfigRepo) List(ctx context.Context) ([]*model.GuildConfig, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения соединения: %w", err)
	}
	defer r.pool.Release(conn)

	query := fmt.Sprintf(`SELECT %s FROM guild_configs ORDER BY server_name`, guildConfigColumns)
	rows, err := conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка конфигураций: %w", err)
	}
	defer rows.Close()

	var result []*model.GuildConfig
	for rows.Next() {
		cfg, err := scanGuildConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования конфигурации: %w", err)
		}
		result = append(result, cfg)
	}
	return result, rows.Err()
}

func (r *guildConfigRepo) GetByID(ctx context.Context, id int64) (*model.GuildConfig, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения соединения: %w", err)
	}
	defer r.pool.Release(conn)

	query := fmt.Sprintf(`SELECT %s FROM guild_configs WHERE id = $1`, guildConfigColumns)
	cfg, err := scanGuildConfig(conn.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения конфигурации: %w", err)
	}
	return cfg, nil
}

func (r *guildConfigRepo) ServerNames(ctx context.Context) ([]string, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения соединения: %w", err)
	}
	defer r.pool.Release(conn)

	rows, err := conn.Query(ctx, `SELECT DISTINCT server_name FROM guild_configs ORDER BY server_name`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения имён серверов: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("ошибка сканирования имени сервера: %w", err)
		}
		result = append(result, name)
	}
	return result, rows.Err()
}

func (r *guildConfigRepo) Update(ctx context.Context, cfg *model.GuildConfig) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("ошибка получения соединения: %w", err)
	}
	defer r.pool.Release(conn)

	return updateGuildConfig(ctx, conn, cfg)
}

func (r *guildConfigRepo) UpdateWithRename(ctx context.Context, cfg *model.GuildConfig, oldName string) (int64, error) {
	var renamed int64
	// Обновление конфигурации и перенос игроков — атомарно:
	// при конфликте имени или сбое игроки остаются на старом имени
	err := runInTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := updateGuildConfig(ctx, tx, cfg); err != nil {
			return err
		}
		n, err := renameServer(ctx, tx, oldName, cfg.ServerName)
		if err != nil {
			return err
		}
		renamed = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return renamed, nil
}

// updateGuildConfig — общая реализация обновления конфигурации,
// работает и на соединении, и внутри транзакции.
func updateGuildConfig(ctx context.Context, db DBTX, cfg *model.GuildConfig) error {
	query := `
		UPDATE guild_configs
		SET guild_id = $2, guild_name = $3, server_name = $4,
			nitrado_service_id = $5, nitrado_token = $6,
			alert_channel_id = $7, admin_role_id = $8
		WHERE id = $1`

	tag, err := db.Exec(ctx, query,
		cfg.ID, cfg.GuildID, cfg.GuildName, cfg.ServerName,
		cfg.NitradoServiceID, cfg.NitradoToken, cfg.AlertChannelID, cfg.AdminRoleID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: сервер с таким именем уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка обновления конфигурации: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
