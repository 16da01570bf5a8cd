package database

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeConn — фейковое соединение для unit-тестов пула.
type fakeConn struct {
	id      int
	pingErr error
	closed  atomic.Bool
}

func (c *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (c *fakeConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("не реализовано")
}

func (c *fakeConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (c *fakeConn) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errors.New("не реализовано")
}

func (c *fakeConn) Ping(ctx context.Context) error {
	return c.pingErr
}

func (c *fakeConn) Close(ctx context.Context) error {
	c.closed.Store(true)
	return nil
}

// testLogger — логгер, не пишущий в вывод тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingFactory создаёт фабрику, нумерующую соединения.
func countingFactory(counter *atomic.Int64) Factory {
	return func(ctx context.Context) (Conn, error) {
		id := counter.Add(1)
		return &fakeConn{id: int(id)}, nil
	}
}

func TestNewPool_PrefillsToCapacity(t *testing.T) {
	var counter atomic.Int64
	pool, err := NewPool(context.Background(), 3, countingFactory(&counter), testLogger())
	if err != nil {
		t.Fatalf("NewPool() ошибка: %v", err)
	}
	defer pool.Close()

	if got := pool.IdleCount(); got != 3 {
		t.Errorf("IdleCount() = %d, ожидается 3", got)
	}
	if counter.Load() != 3 {
		t.Errorf("фабрика вызвана %d раз, ожидается 3", counter.Load())
	}
}

func TestNewPool_InvalidSize(t *testing.T) {
	var counter atomic.Int64
	if _, err := NewPool(context.Background(), 0, countingFactory(&counter), testLogger()); err == nil {
		t.Error("NewPool(0) должен вернуть ошибку")
	}
}

func TestNewPool_FactoryFailureClosesOpened(t *testing.T) {
	opened := []*fakeConn{}
	calls := 0
	factory := func(ctx context.Context) (Conn, error) {
		calls++
		if calls == 3 {
			return nil, errors.New("соединение отклонено")
		}
		c := &fakeConn{id: calls}
		opened = append(opened, c)
		return c, nil
	}

	if _, err := NewPool(context.Background(), 3, factory, testLogger()); err == nil {
		t.Fatal("NewPool() должен вернуть ошибку при отказе фабрики")
	}

	for _, c := range opened {
		if !c.closed.Load() {
			t.Errorf("соединение %d не закрыто после отказа фабрики", c.id)
		}
	}
}

func TestAcquireRelease_RoundTrip(t *testing.T) {
	var counter atomic.Int64
	pool, err := NewPool(context.Background(), 2, countingFactory(&counter), testLogger())
	if err != nil {
		t.Fatalf("NewPool() ошибка: %v", err)
	}
	defer pool.Close()

	conn, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() ошибка: %v", err)
	}
	if got := pool.IdleCount(); got != 1 {
		t.Errorf("IdleCount() после Acquire = %d, ожидается 1", got)
	}

	pool.Release(conn)
	if got := pool.IdleCount(); got != 2 {
		t.Errorf("IdleCount() после Release = %d, ожидается 2", got)
	}
	// Соединение вернулось в пул, новых не открывалось
	if counter.Load() != 2 {
		t.Errorf("фабрика вызвана %d раз, ожидается 2", counter.Load())
	}
}

func TestAcquire_OverflowNeverBlocks(t *testing.T) {
	var counter atomic.Int64
	pool, err := NewPool(context.Background(), 1, countingFactory(&counter), testLogger())
	if err != nil {
		t.Fatalf("NewPool() ошибка: %v", err)
	}
	defer pool.Close()

	// Забираем единственное соединение из пула
	first, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() ошибка: %v", err)
	}

	// Пул пуст — Acquire не блокирует, а открывает соединение сверх ёмкости
	second, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() из пустого пула ошибка: %v", err)
	}
	if counter.Load() != 2 {
		t.Errorf("фабрика вызвана %d раз, ожидается 2 (1 в пуле + 1 сверх ёмкости)", counter.Load())
	}

	// Возвращаем оба: первое занимает место в пуле, второе лишнее — закрывается
	pool.Release(first)
	pool.Release(second)

	if got := pool.IdleCount(); got != 1 {
		t.Errorf("IdleCount() = %d, ожидается 1 (ёмкость пула)", got)
	}
	if !second.(*fakeConn).closed.Load() {
		t.Error("лишнее соединение должно быть закрыто при Release в полный пул")
	}
	if first.(*fakeConn).closed.Load() {
		t.Error("соединение в пределах ёмкости не должно закрываться")
	}
}

func TestAcquire_DeadConnectionReplaced(t *testing.T) {
	dead := &fakeConn{id: 1, pingErr: errors.New("соединение разорвано")}
	alive := &fakeConn{id: 2}
	conns := []Conn{dead, alive}
	i := 0
	factory := func(ctx context.Context) (Conn, error) {
		c := conns[i]
		i++
		return c, nil
	}

	pool, err := NewPool(context.Background(), 2, factory, testLogger())
	if err != nil {
		t.Fatalf("NewPool() ошибка: %v", err)
	}
	defer pool.Close()

	// Первым из канала выйдет мёртвое соединение: оно закрывается,
	// Acquire продолжает и выдаёт живое
	conn, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() ошибка: %v", err)
	}
	if conn.(*fakeConn).id != 2 {
		t.Errorf("Acquire() выдал соединение %d, ожидается живое (2)", conn.(*fakeConn).id)
	}
	if !dead.closed.Load() {
		t.Error("мёртвое соединение должно быть закрыто")
	}
}

func TestClose_DrainsIdleAndRejectsAcquire(t *testing.T) {
	var counter atomic.Int64
	pool, err := NewPool(context.Background(), 2, countingFactory(&counter), testLogger())
	if err != nil {
		t.Fatalf("NewPool() ошибка: %v", err)
	}

	conn, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() ошибка: %v", err)
	}

	pool.Close()

	if got := pool.IdleCount(); got != 0 {
		t.Errorf("IdleCount() после Close = %d, ожидается 0", got)
	}
	if _, err := pool.Acquire(context.Background()); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Acquire() после Close = %v, ожидается ErrPoolClosed", err)
	}

	// Выданное наружу соединение закрывается при Release
	pool.Release(conn)
	if !conn.(*fakeConn).closed.Load() {
		t.Error("Release после Close должен закрыть соединение")
	}
}

func TestRelease_ConcurrentWithClose(t *testing.T) {
	// Release и Close наперегонки: соединение обязано закрыться
	// в любом порядке выполнения, а не остаться в канале после drain
	for i := 0; i < 200; i++ {
		var counter atomic.Int64
		pool, err := NewPool(context.Background(), 1, countingFactory(&counter), testLogger())
		if err != nil {
			t.Fatalf("NewPool() ошибка: %v", err)
		}

		conn, err := pool.Acquire(context.Background())
		if err != nil {
			t.Fatalf("Acquire() ошибка: %v", err)
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			pool.Release(conn)
		}()
		go func() {
			defer wg.Done()
			pool.Close()
		}()
		wg.Wait()

		if !conn.(*fakeConn).closed.Load() {
			t.Fatalf("итерация %d: соединение осталось открытым после Release и Close", i)
		}
		if got := pool.IdleCount(); got != 0 {
			t.Fatalf("итерация %d: IdleCount() = %d, ожидается 0", i, got)
		}
	}
}

func TestRelease_NilConn(t *testing.T) {
	var counter atomic.Int64
	pool, err := NewPool(context.Background(), 1, countingFactory(&counter), testLogger())
	if err != nil {
		t.Fatalf("NewPool() ошибка: %v", err)
	}
	defer pool.Close()

	// Release(nil) не должен паниковать
	pool.Release(nil)
}
