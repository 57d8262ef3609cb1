package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/victoor832/ColdMailAI-sub001/internal/config"
	"github.com/victoor832/ColdMailAI-sub001/internal/models"
	"github.com/victoor832/ColdMailAI-sub001/internal/storage"
)

// poolIface is the slice of pgxpool.Pool the repo uses; pgxmock satisfies
// it in tests.
type poolIface interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

type PostgresRepo struct {
	pool poolIface
}

func New(ctx context.Context, cfg *config.Config) (*PostgresRepo, error) {
	const op = "storage.postgres.New"

	dsn := dsn(cfg)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pool: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	return &PostgresRepo{pool: pool}, nil
}

// NewWithPool builds a repo over an existing pool-like connection.
func NewWithPool(pool poolIface) *PostgresRepo {
	return &PostgresRepo{pool: pool}
}

// SaveAccount inserts a new account. The unique index on email is the sole
// arbiter of duplicates; a violation maps to storage.ErrAccountExists.
func (r *PostgresRepo) SaveAccount(ctx context.Context, email string, credHash []byte) (int64, error) {
	const op = "storage.postgres.SaveAccount"

	query := `
		INSERT INTO accounts (email, password_hash)
		VALUES ($1, $2)
		RETURNING id;
	`

	var id int64

	err := r.pool.QueryRow(ctx, query, email, credHash).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, storage.ErrAccountExists
		}

		return 0, fmt.Errorf("%s: failed to save account: %w", op, err)
	}

	return id, nil
}

func (r *PostgresRepo) AccountByEmail(ctx context.Context, email string) (models.Account, error) {
	query := `
		SELECT id, email, password_hash
		FROM accounts
		WHERE email = $1;
	`

	row := r.pool.QueryRow(ctx, query, email)

	var a models.Account
	err := row.Scan(
		&a.ID,
		&a.Email,
		&a.CredentialHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, storage.ErrAccountNotFound
		}

		return models.Account{}, err
	}

	return a, nil
}

func (r *PostgresRepo) UpdateCredentialHash(ctx context.Context, accountID int64, credHash []byte) error {
	const op = "storage.postgres.UpdateCredentialHash"

	query := `UPDATE accounts SET password_hash = $1 WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, credHash, accountID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrAccountNotFound
	}

	return nil
}

func (r *PostgresRepo) SaveResetToken(
	ctx context.Context,
	accountID int64,
	secretHash []byte,
	issuedAt, expiresAt time.Time,
) error {
	const op = "storage.postgres.SaveResetToken"

	const query = `
		INSERT INTO reset_tokens (account_id, secret_hash, issued_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query, accountID, secretHash, issuedAt, expiresAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) ResetTokenBySecretHash(ctx context.Context, secretHash []byte) (models.ResetToken, error) {
	const query = `
		SELECT id, account_id, secret_hash, issued_at, expires_at, consumed_at
		FROM reset_tokens
		WHERE secret_hash = $1;
	`

	row := r.pool.QueryRow(ctx, query, secretHash)

	var t models.ResetToken
	err := row.Scan(
		&t.ID,
		&t.AccountID,
		&t.SecretHash,
		&t.IssuedAt,
		&t.ExpiresAt,
		&t.ConsumedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ResetToken{}, storage.ErrResetTokenNotFound
		}

		return models.ResetToken{}, err
	}

	return t, nil
}

// RedeemResetToken updates the account credential and marks the token
// consumed in a single transaction. The guarded UPDATE on consumed_at makes
// concurrent redemptions of the same token resolve to exactly one winner;
// the loser gets storage.ErrResetTokenNotFound and nothing is written.
func (r *PostgresRepo) RedeemResetToken(
	ctx context.Context,
	tokenID, accountID int64,
	credHash []byte,
	consumedAt time.Time,
) error {
	const op = "storage.postgres.RedeemResetToken"

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: failed to begin tx: %w", op, err)
	}
	defer tx.Rollback(ctx)

	const consumeQuery = `
		UPDATE reset_tokens
		SET consumed_at = $1
		WHERE id = $2 AND consumed_at IS NULL
	`

	tag, err := tx.Exec(ctx, consumeQuery, consumedAt, tokenID)
	if err != nil {
		return fmt.Errorf("%s: failed to consume token: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrResetTokenNotFound
	}

	const credQuery = `UPDATE accounts SET password_hash = $1 WHERE id = $2`

	if _, err := tx.Exec(ctx, credQuery, credHash, accountID); err != nil {
		return fmt.Errorf("%s: failed to update credential: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: failed to commit: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}

func dsn(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=%s",
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
	)
}
