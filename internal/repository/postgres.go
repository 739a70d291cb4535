// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"

	"github.com/dkorovin/lunchbot-system/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrOrderExists возвращается при попытке создать заказ, когда активный уже есть.
var (
	ErrOrderExists = errors.New("active order already exists")
	// ErrOrderNotFound возвращается, если активный заказ не найден.
	ErrOrderNotFound = errors.New("active order not found")
	// ErrQuantityLimit возвращается при попытке превысить максимум порций.
	ErrQuantityLimit = errors.New("quantity limit reached")
	// ErrUserNotRegistered возвращается, если пользователь не зарегистрирован или не верифицирован.
	ErrUserNotRegistered = errors.New("user not registered")
)

// PostgresRepository предоставляет доступ к хранилищу заказов в PostgreSQL.
// Каждая мутация выполняется в одной транзакции, поэтому конкурентные
// изменения одного ключа (пользователь, дата) линеаризуются на уровне БД.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// withRetry повторяет fn при сбоях сериализации и дедлоках.
// Остальные ошибки возвращаются сразу.
func (r *PostgresRepository) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(time.Second))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected {
				return retry.RetryableError(err)
			}
		}

		return err
	})
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// Ping проверяет доступность БД.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// ResolveUser возвращает верифицированного пользователя по идентификатору чата.
// Незарегистрированные, удалённые и неверифицированные пользователи
// неотличимы для ядра заказов: все дают ErrUserNotRegistered.
func (r *PostgresRepository) ResolveUser(ctx context.Context, telegramID int64) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, telegram_id, full_name, phone, location, is_verified, created_at
		 FROM users
		 WHERE telegram_id = $1 AND NOT is_deleted`,
		telegramID,
	)

	var u model.User
	err := row.Scan(&u.ID, &u.TelegramID, &u.FullName, &u.Phone, &u.Location, &u.IsVerified, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotRegistered
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	if !u.IsVerified {
		return nil, ErrUserNotRegistered
	}

	return &u, nil
}

// GetActiveOrder возвращает активный заказ пользователя на указанную дату.
func (r *PostgresRepository) GetActiveOrder(ctx context.Context, userID int64, targetDate time.Time) (*model.Order, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, user_id, target_date, quantity, is_preliminary, is_cancelled, order_time, created_at
		 FROM orders
		 WHERE user_id = $1 AND target_date = $2 AND NOT is_cancelled`,
		userID, targetDate,
	)

	var o model.Order
	err := row.Scan(&o.ID, &o.UserID, &o.TargetDate, &o.Quantity, &o.IsPreliminary, &o.IsCancelled, &o.OrderTime, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get active order: %w", err)
	}

	return &o, nil
}

// CreateOrder создаёт новый заказ. Конфликт с существующим активным заказом
// обнаруживается частичным уникальным индексом в той же операции, что и вставка:
// предварительная проверка в сервисе не закрывает гонку двух одновременных нажатий.
func (r *PostgresRepository) CreateOrder(ctx context.Context, userID int64, targetDate time.Time, quantity int, isPreliminary bool, now time.Time) (int64, error) {
	var id int64

	err := r.withRetry(ctx, func(ctx context.Context) error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO orders (user_id, target_date, quantity, is_preliminary, order_time, created_at)
			 VALUES ($1, $2, $3, $4, $5, $5)
			 RETURNING id`,
			userID, targetDate, quantity, isPreliminary, now,
		).Scan(&id)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, ErrOrderExists
		}
		return 0, fmt.Errorf("create order: %w", err)
	}

	return id, nil
}

// ChangeQuantity изменяет количество порций активного заказа на delta.
// Чтение и запись выполняются в одной транзакции с блокировкой строки,
// поэтому конкурентные изменения не теряют обновлений.
// При уменьшении ниже минимума заказ отменяется (cancelled = true).
func (r *PostgresRepository) ChangeQuantity(ctx context.Context, userID int64, targetDate time.Time, delta int, now time.Time) (newQty int, cancelled bool, err error) {
	err = r.withRetry(ctx, func(ctx context.Context) error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var id int64
		var qty int
		err = tx.QueryRow(ctx,
			`SELECT id, quantity FROM orders
			 WHERE user_id = $1 AND target_date = $2 AND NOT is_cancelled
			 FOR UPDATE`,
			userID, targetDate,
		).Scan(&id, &qty)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("select for update: %w", err)
		}

		next := qty + delta

		switch {
		case next > model.MaxQuantity:
			return ErrQuantityLimit

		case next < model.MinQuantity:
			_, err = tx.Exec(ctx,
				`UPDATE orders SET is_cancelled = TRUE, order_time = $2 WHERE id = $1`,
				id, now,
			)
			if err != nil {
				return fmt.Errorf("auto cancel order: %w", err)
			}
			newQty, cancelled = 0, true

		default:
			_, err = tx.Exec(ctx,
				`UPDATE orders SET quantity = $2, order_time = $3 WHERE id = $1`,
				id, next, now,
			)
			if err != nil {
				return fmt.Errorf("update quantity: %w", err)
			}
			newQty, cancelled = next, false
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, false, err
	}

	return newQty, cancelled, nil
}

// CancelOrder отменяет активный заказ пользователя на указанную дату.
// Строка не удаляется: выставляется флаг is_cancelled для отчётов и аудита.
func (r *PostgresRepository) CancelOrder(ctx context.Context, userID int64, targetDate time.Time, now time.Time) error {
	err := r.withRetry(ctx, func(ctx context.Context) error {
		var id int64
		err := r.pool.QueryRow(ctx,
			`UPDATE orders
			 SET is_cancelled = TRUE, order_time = $3
			 WHERE user_id = $1 AND target_date = $2 AND NOT is_cancelled
			 RETURNING id`,
			userID, targetDate, now,
		).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return err
	})
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("cancel order: %w", err)
	}

	return nil
}

// GetActiveOrdersFrom возвращает активные заказы пользователя начиная с указанной даты.
func (r *PostgresRepository) GetActiveOrdersFrom(ctx context.Context, userID int64, from time.Time) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, target_date, quantity, is_preliminary, is_cancelled, order_time, created_at
		 FROM orders
		 WHERE user_id = $1 AND target_date >= $2 AND NOT is_cancelled
		 ORDER BY target_date`,
		userID, from,
	)
	if err != nil {
		return nil, fmt.Errorf("select active orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.TargetDate, &o.Quantity, &o.IsPreliminary, &o.IsCancelled, &o.OrderTime, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

// GetOrdersReport возвращает строки отчёта за период [from, to] включительно.
// Читаются только зафиксированные транзакции: незавершённые мутации не видны.
func (r *PostgresRepository) GetOrdersReport(ctx context.Context, from, to time.Time) ([]model.ReportRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.full_name, u.location, o.target_date, o.quantity, o.is_preliminary, o.is_cancelled
		 FROM orders o
		 JOIN users u ON u.id = o.user_id
		 WHERE o.target_date BETWEEN $1 AND $2
		 ORDER BY o.target_date, u.location, u.full_name`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("select report rows: %w", err)
	}
	defer rows.Close()

	var res []model.ReportRow
	for rows.Next() {
		var row model.ReportRow
		if err := rows.Scan(&row.FullName, &row.Location, &row.TargetDate, &row.Quantity, &row.IsPreliminary, &row.IsCancelled); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		res = append(res, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// LocationTotals возвращает суммарное количество порций по объектам за день.
func (r *PostgresRepository) LocationTotals(ctx context.Context, targetDate time.Time) ([]model.LocationTotal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.location, SUM(o.quantity)
		 FROM orders o
		 JOIN users u ON u.id = o.user_id
		 WHERE o.target_date = $1 AND NOT o.is_cancelled
		 GROUP BY u.location
		 ORDER BY u.location`,
		targetDate,
	)
	if err != nil {
		return nil, fmt.Errorf("select location totals: %w", err)
	}
	defer rows.Close()

	var res []model.LocationTotal
	for rows.Next() {
		var lt model.LocationTotal
		if err := rows.Scan(&lt.Location, &lt.Portions); err != nil {
			return nil, fmt.Errorf("scan location total: %w", err)
		}
		res = append(res, lt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// GetMonthlyPortions возвращает число порций пользователя за период [from, to).
func (r *PostgresRepository) GetMonthlyPortions(ctx context.Context, userID int64, from, to time.Time) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0)
		 FROM orders
		 WHERE user_id = $1 AND target_date >= $2 AND target_date < $3 AND NOT is_cancelled`,
		userID, from, to,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum monthly portions: %w", err)
	}

	return total, nil
}
