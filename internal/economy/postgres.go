package economy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/edenforge/bazaar/internal/economy/migrations"
)

// queryTimeout bounds every ledger query; the purchase path runs on the
// main loop and must not stall on a slow database.
const queryTimeout = 3 * time.Second

// Postgres is a database-backed ledger. The harness registers it as the
// external economy provider when a DSN is configured. Debits are atomic: a
// single conditional UPDATE either takes the full amount or nothing.
type Postgres struct {
	pool           *pgxpool.Pool
	defaultBalance int64
	symbol         string
}

// NewPostgres connects, applies migrations, and returns a ledger handle.
func NewPostgres(ctx context.Context, dsn string, defaultBalance int64, symbol string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to ledger database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging ledger database: %w", err)
	}
	if err := runMigrations(ctx, dsn); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool, defaultBalance: defaultBalance, symbol: symbol}, nil
}

// runMigrations applies the embedded goose migrations.
func runMigrations(ctx context.Context, dsn string) error {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("opening sql connection for migrations: %w", err)
	}
	defer sqlDB.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("running ledger migrations: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// ensure inserts the default balance row if the player is unknown.
func (p *Postgres) ensure(ctx context.Context, player uuid.UUID) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO balances (player_id, balance) VALUES ($1, $2)
		 ON CONFLICT (player_id) DO NOTHING`,
		player, p.defaultBalance,
	)
	if err != nil {
		return fmt.Errorf("ensuring balance row for %s: %w", player, err)
	}
	return nil
}

func (p *Postgres) Has(player uuid.UUID, amount int64) (bool, error) {
	balance, err := p.Balance(player)
	if err != nil {
		return false, err
	}
	return balance >= amount, nil
}

func (p *Postgres) Withdraw(player uuid.UUID, amount int64) (bool, error) {
	if amount < 0 {
		return false, fmt.Errorf("negative withdrawal %d", amount)
	}
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err := p.ensure(ctx, player); err != nil {
		return false, err
	}
	tag, err := p.pool.Exec(ctx,
		`UPDATE balances SET balance = balance - $2, updated_at = now()
		 WHERE player_id = $1 AND balance >= $2`,
		player, amount,
	)
	if err != nil {
		return false, fmt.Errorf("debiting %d from %s: %w", amount, player, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (p *Postgres) Deposit(player uuid.UUID, amount int64) (bool, error) {
	if amount < 0 {
		return false, fmt.Errorf("negative deposit %d", amount)
	}
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	_, err := p.pool.Exec(ctx,
		`INSERT INTO balances (player_id, balance) VALUES ($1, $2 + $3)
		 ON CONFLICT (player_id) DO UPDATE
		 SET balance = balances.balance + $3, updated_at = now()`,
		player, p.defaultBalance, amount,
	)
	if err != nil {
		return false, fmt.Errorf("crediting %d to %s: %w", amount, player, err)
	}
	return true, nil
}

func (p *Postgres) Balance(player uuid.UUID) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var balance int64
	err := p.pool.QueryRow(ctx,
		`SELECT balance FROM balances WHERE player_id = $1`, player,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return p.defaultBalance, nil
		}
		return 0, fmt.Errorf("querying balance for %s: %w", player, err)
	}
	return balance, nil
}

func (p *Postgres) Format(amount int64) string {
	return p.symbol + strconv.FormatInt(amount, 10)
}
