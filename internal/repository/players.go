package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dayzadb/adb-dashboard/internal/database"
	"github.com/dayzadb/adb-dashboard/internal/domain/model"
)

// ServerFilterAll — сентинел «все серверы»: фильтр по серверу не применяется.
const ServerFilterAll = "All"

// PlayerFilter — параметры выборки игроков.
type PlayerFilter struct {
	// ServerName — фильтр по серверу (регистронезависимое вхождение
	// с обрезкой пробелов); пустая строка или "All" — без фильтра
	ServerName string
	// Search — поиск по gamertag (регистронезависимое вхождение)
	Search string
	// OnlyFlagged — только аккаунты с alt_flag
	OnlyFlagged bool
	// Limit и Offset — пагинация; Limit <= 0 — без ограничения
	Limit  int
	Offset int
}

// PlayerRepository — доступ к таблицам players и player_history.
type PlayerRepository interface {
	// List возвращает игроков по фильтру, новые регистрации первыми.
	List(ctx context.Context, filter PlayerFilter) ([]*model.Player, error)
	// GetByID возвращает игрока по идентификатору.
	GetByID(ctx context.Context, id int64) (*model.Player, error)
	// UpdateDetails обновляет gamertag и флаги аккаунта.
	UpdateDetails(ctx context.Context, p *model.Player) error
	// MainAccountByDevice возвращает первый непомеченный аккаунт устройства.
	MainAccountByDevice(ctx context.Context, deviceID string) (*model.Player, error)
	// Stats возвращает агрегированную статистику; serverFilter "" или "All" — по всем.
	Stats(ctx context.Context, serverFilter string) (*model.PlayerStats, error)
	// Trend возвращает число регистраций по календарным дням (по возрастанию даты).
	Trend(ctx context.Context, serverFilter string) ([]model.TrendPoint, error)
	// RenameServer переносит все аккаунты со старого имени сервера на новое.
	// Сопоставление старого имени — без учёта регистра и краевых пробелов.
	RenameServer(ctx context.Context, oldName, newName string) (int64, error)
}

type playerRepo struct {
	pool *database.Pool
}

// NewPlayerRepository создаёт репозиторий игроков.
func NewPlayerRepository(pool *database.Pool) PlayerRepository {
	return &playerRepo{pool: pool}
}

const playerColumns = `id, gamertag, gamertag_id, device_id, server_name,
	alt_flag, watchlisted, whitelist, multiple_devices, first_seen, last_seen`

// scanPlayer сканирует строку результата в модель Player.
func scanPlayer(row pgx.Row) (*model.Player, error) {
	p := &model.Player{}
	err := row.Scan(
		&p.ID, &p.Gamertag, &p.GamertagID, &p.DeviceID, &p.ServerName,
		&p.AltFlag, &p.Watchlisted, &p.Whitelist, &p.MultipleDevices,
		&p.FirstSeen, &p.LastSeen,
	)
	return p, err
}

// hasServerFilter определяет, задан ли фильтр по серверу.
// Пустая строка и сентинел "All" означают «все серверы».
func hasServerFilter(serverFilter string) bool {
	return serverFilter != "" && serverFilter != ServerFilterAll
}

func (r *playerRepo) List(ctx context.Context, filter PlayerFilter) ([]*model.Player, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения соединения: %w", err)
	}
	defer r.pool.Release(conn)

	query := fmt.Sprintf(`SELECT %s FROM players`, playerColumns)
	var conditions []string
	var args []any

	if hasServerFilter(filter.ServerName) {
		args = append(args, filter.ServerName)
		conditions = append(conditions,
			fmt.Sprintf("LOWER(TRIM(server_name)) LIKE '%%' || LOWER(TRIM($%d)) || '%%'", len(args)))
	}
	if filter.Search != "" {
		args = append(args, filter.Search)
		conditions = append(conditions,
			fmt.Sprintf("LOWER(gamertag) LIKE '%%' || LOWER($%d) || '%%'", len(args)))
	}
	if filter.OnlyFlagged {
		conditions = append(conditions, "alt_flag")
	}

	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY last_seen DESC, id DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка игроков: %w", err)
	}
	defer rows.Close()

	var result []*model.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования игрока: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *playerRepo) GetByID(ctx context.Context, id int64) (*model.Player, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения соединения: %w", err)
	}
	defer r.pool.Release(conn)

	query := fmt.Sprintf(`SELECT %s FROM players WHERE id = $1`, playerColumns)
	p, err := scanPlayer(conn.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения игрока: %w", err)
	}
	return p, nil
}

func (r *playerRepo) UpdateDetails(ctx context.Context, p *model.Player) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("ошибка получения соединения: %w", err)
	}
	defer r.pool.Release(conn)

	query := `
		UPDATE players
		SET gamertag = $2, alt_flag = $3, watchlisted = $4,
			whitelist = $5, multiple_devices = $6
		WHERE id = $1`

	tag, err := conn.Exec(ctx, query,
		p.ID, p.Gamertag, p.AltFlag, p.Watchlisted, p.Whitelist, p.MultipleDevices,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления игрока: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *playerRepo) MainAccountByDevice(ctx context.Context, deviceID string) (*model.Player, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения соединения: %w", err)
	}
	defer r.pool.Release(conn)

	// Основной аккаунт устройства — первый непомеченный (наименьший id)
	query := fmt.Sprintf(`
		SELECT %s FROM players
		WHERE device_id = $1 AND NOT alt_flag
		ORDER BY id
		LIMIT 1`, playerColumns)

	p, err := scanPlayer(conn.QueryRow(ctx, query, deviceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка поиска основного аккаунта: %w", err)
	}
	return p, nil
}

func (r *playerRepo) Stats(ctx context.Context, serverFilter string) (*model.PlayerStats, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения соединения: %w", err)
	}
	defer r.pool.Release(conn)

	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE alt_flag),
			COUNT(*) FILTER (WHERE watchlisted),
			COUNT(*) FILTER (WHERE whitelist),
			COUNT(*) FILTER (WHERE multiple_devices)
		FROM players`
	var args []any

	if hasServerFilter(serverFilter) {
		query += ` WHERE LOWER(TRIM(server_name)) LIKE '%' || LOWER(TRIM($1)) || '%'`
		args = append(args, serverFilter)
	}

	stats := &model.PlayerStats{}
	err = conn.QueryRow(ctx, query, args...).Scan(
		&stats.Total, &stats.Alts, &stats.Watchlisted, &stats.Whitelisted, &stats.MultiDevice,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения статистики: %w", err)
	}
	return stats, nil
}

func (r *playerRepo) Trend(ctx context.Context, serverFilter string) ([]model.TrendPoint, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения соединения: %w", err)
	}
	defer r.pool.Release(conn)

	query := `
		SELECT DATE("timestamp") AS day, COUNT(*)
		FROM player_history`
	var args []any

	if hasServerFilter(serverFilter) {
		query += ` WHERE LOWER(TRIM(server_name)) LIKE '%' || LOWER(TRIM($1)) || '%'`
		args = append(args, serverFilter)
	}
	query += ` GROUP BY day ORDER BY day`

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения динамики регистраций: %w", err)
	}
	defer rows.Close()

	var result []model.TrendPoint
	for rows.Next() {
		var pt model.TrendPoint
		if err := rows.Scan(&pt.Date, &pt.Count); err != nil {
			return nil, fmt.Errorf("ошибка сканирования точки динамики: %w", err)
		}
		result = append(result, pt)
	}
	return result, rows.Err()
}

func (r *playerRepo) RenameServer(ctx context.Context, oldName, newName string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка получения соединения: %w", err)
	}
	defer r.pool.Release(conn)

	return renameServer(ctx, conn, oldName, newName)
}

// renameServer — общая реализация переноса аккаунтов на новое имя сервера.
// Вынесена отдельно, чтобы выполняться и внутри транзакции
// (GuildConfigRepository.UpdateWithRename).
func renameServer(ctx context.Context, db DBTX, oldName, newName string) (int64, error) {
	tag, err := db.Exec(ctx, `
		UPDATE players
		SET server_name = $2
		WHERE LOWER(TRIM(server_name)) = LOWER(TRIM($1))`,
		oldName, newName,
	)
	if err != nil {
		return 0, fmt.Errorf("ошибка переноса игроков на новое имя сервера: %w", err)
	}
	return tag.RowsAffected(), nil
}
