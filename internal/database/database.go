package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/hr-management/internal"
)

const DriverName = "pgx"

// Open connects to PostgreSQL through the pgx stdlib driver and applies the pool settings.
func Open(ctx context.Context, cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, DriverName, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

type (
	txKey          struct{}
	afterCommitKey struct{}
)

type afterCommitHooks struct {
	fns []func(ctx context.Context)
}

// Executor returns the transaction bound to ctx, or db when there is none.
func Executor(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

type Transactor struct {
	db *sqlx.DB
}

func NewTransactor(db *sqlx.DB) *Transactor {
	return &Transactor{db: db}
}

// WithinTx runs fn inside a transaction. Nested calls join the outer transaction.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	hooks := &afterCommitHooks{}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("commit transaction: %w", cErr)
			return
		}
		for _, hook := range hooks.fns {
			hook(ctx)
		}
	}()

	txCtx := context.WithValue(ctx, txKey{}, tx)
	return fn(context.WithValue(txCtx, afterCommitKey{}, hooks))
}

// AfterCommit runs fn once the transaction bound to ctx commits, or immediately when there is
// none. fn gets the context the transaction was started from. Hooks of a rolled back transaction
// never run.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	if hooks, ok := ctx.Value(afterCommitKey{}).(*afterCommitHooks); ok {
		hooks.fns = append(hooks.fns, fn)
		return
	}
	fn(ctx)
}

// IsUniqueViolation reports whether err came from a unique constraint. PostgreSQL errors are
// matched by SQLSTATE; SQLite (tests) by message.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern lowercases term and escapes LIKE wildcards so it matches literally anywhere in
// the value. Queries must pair it with ESCAPE '\'.
func ContainsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// PrefixPattern is ContainsPattern anchored at the start of the value.
func PrefixPattern(term string) string {
	return likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// DateArg binds a calendar date as YYYY-MM-DD so DATE columns compare the same on every driver.
func DateArg(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}

// TxManager is what services depend on to scope multi-statement writes.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
