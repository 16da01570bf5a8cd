// pool.go — пул соединений PostgreSQL фиксированной ёмкости.
//
// Семантика пула:
//   - ёмкость задаётся при создании (ADB_DB_POOL_SIZE), пул заполняется сразу;
//   - Acquire никогда не блокирует вызывающего: если пул пуст,
//     открывается свежее соединение сверх ёмкости;
//   - соединение из пула проверяется ping-ом перед выдачей,
//     мёртвые соединения закрываются и заменяются;
//   - Release возвращает соединение в пул; если пул полон
//     (соединение было открыто сверх ёмкости), оно закрывается.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dayzadb/adb-dashboard/internal/config"
)

// ErrPoolClosed возвращается из Acquire после закрытия пула.
var ErrPoolClosed = errors.New("пул соединений закрыт")

// Conn — минимальный интерфейс соединения с базой данных.
// Реализуется *pgx.Conn; в unit-тестах подменяется фейком.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Factory открывает новое соединение с базой данных.
type Factory func(ctx context.Context) (Conn, error)

// Pool — пул соединений фиксированной ёмкости поверх буферизованного канала.
type Pool struct {
	idle    chan Conn
	factory Factory
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
}

// Open создаёт пул соединений к PostgreSQL и заполняет его до ёмкости.
// Если хотя бы одно соединение открыть не удалось, уже открытые закрываются
// и возвращается ошибка.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Pool, error) {
	dsn := cfg.DatabaseDSN()
	// *pgx.Conn реализует интерфейс Conn напрямую
	factory := func(ctx context.Context) (Conn, error) {
		return pgx.Connect(ctx, dsn)
	}

	pool, err := NewPool(ctx, cfg.DBPoolSize, factory, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("Пул соединений PostgreSQL создан",
		slog.String("host", cfg.DBHost),
		slog.Int("port", cfg.DBPort),
		slog.String("database", cfg.DBName),
		slog.Int("size", cfg.DBPoolSize),
	)

	return pool, nil
}

// NewPool создаёт пул заданной ёмкости с произвольной фабрикой соединений.
// Используется напрямую в тестах.
func NewPool(ctx context.Context, size int, factory Factory, logger *slog.Logger) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("недопустимая ёмкость пула: %d", size)
	}

	p := &Pool{
		idle:    make(chan Conn, size),
		factory: factory,
		logger:  logger.With(slog.String("component", "db_pool")),
	}

	// Заполняем пул до ёмкости; при ошибке закрываем уже открытые соединения
	for i := 0; i < size; i++ {
		conn, err := factory(ctx)
		if err != nil {
			p.drain()
			return nil, fmt.Errorf("ошибка открытия соединения %d/%d: %w", i+1, size, err)
		}
		p.idle <- conn
	}

	return p, nil
}

// Acquire возвращает соединение из пула. Никогда не блокирует:
// если пул пуст, открывается свежее соединение сверх ёмкости.
// Соединения из пула проверяются ping-ом; мёртвые закрываются и
// не выдаются.
func (p *Pool) Acquire(ctx context.Context) (Conn, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	p.mu.Unlock()

	for {
		select {
		case conn := <-p.idle:
			// Проверяем живость простаивавшего соединения
			if err := p.ping(ctx, conn); err != nil {
				p.logger.Warn("Мёртвое соединение удалено из пула", slog.String("error", err.Error()))
				p.closeConn(conn)
				continue
			}
			return conn, nil
		default:
			// Пул пуст — открываем соединение сверх ёмкости,
			// чтобы не блокировать вызывающего
			conn, err := p.factory(ctx)
			if err != nil {
				return nil, fmt.Errorf("ошибка открытия дополнительного соединения: %w", err)
			}
			p.logger.Debug("Пул исчерпан, открыто дополнительное соединение")
			return conn, nil
		}
	}
}

// Release возвращает соединение в пул. Если пул полон (соединение было
// открыто сверх ёмкости) или уже закрыт, соединение закрывается.
func (p *Pool) Release(conn Conn) {
	if conn == nil {
		return
	}

	// Проверка closed и возврат в канал — под одним мьютексом:
	// иначе Release, опередивший Close между проверкой и записью,
	// оставил бы соединение в канале после drain
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.closeConn(conn)
		return
	}

	select {
	case p.idle <- conn:
		p.mu.Unlock()
	default:
		// Пул полон — лишнее соединение закрываем
		p.mu.Unlock()
		p.closeConn(conn)
	}
}

// Close закрывает пул и все простаивающие соединения.
// Соединения, выданные наружу, закрываются при Release.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.drain()
	p.logger.Info("Пул соединений PostgreSQL закрыт")
}

// IdleCount возвращает число простаивающих соединений в пуле.
func (p *Pool) IdleCount() int {
	return len(p.idle)
}

// drain закрывает все простаивающие соединения.
func (p *Pool) drain() {
	for {
		select {
		case conn := <-p.idle:
			p.closeConn(conn)
		default:
			return
		}
	}
}

// ping проверяет соединение с коротким таймаутом.
func (p *Pool) ping(ctx context.Context, conn Conn) error {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return conn.Ping(pingCtx)
}

// closeConn закрывает соединение, ошибки закрытия только логируются.
func (p *Pool) closeConn(conn Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := conn.Close(ctx); err != nil {
		p.logger.Debug("Ошибка закрытия соединения", slog.String("error", err.Error()))
	}
}
