package postgres

// Package postgres provides a PostgreSQL-backed credential store for
// deployments that run several gateway replicas without Redis.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	apperrors "github.com/ShageeshanT/kalyanijewellers/internal/errors"
	"github.com/ShageeshanT/kalyanijewellers/internal/ports"
)

// CredentialStore keeps namespaces as rows in credential_entries.
// Multi-key writes run in one transaction.
type CredentialStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewCredentialStore creates a store over an open database handle.
func NewCredentialStore(db *sql.DB, logger *slog.Logger) *CredentialStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CredentialStore{db: db, logger: logger.With("component", "credential_store")}
}

func (s *CredentialStore) Get(ctx context.Context, namespace, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM credential_entries WHERE namespace = $1 AND key = $2`,
		namespace, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ports.ErrNotFound
		}
		return "", fmt.Errorf("get credential entry: %w", apperrors.MapDBError(err))
	}
	return value, nil
}

func (s *CredentialStore) GetMany(ctx context.Context, namespace string, keys []string) (out map[string]string, err error) {
	out = make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM credential_entries WHERE namespace = $1 AND key = ANY($2)`,
		namespace, keys,
	)
	if err != nil {
		return nil, fmt.Errorf("list credential entries: %w", apperrors.MapDBError(err))
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", cerr)
		}
	}()

	for rows.Next() {
		var k, v string
		if scanErr := rows.Scan(&k, &v); scanErr != nil {
			return nil, fmt.Errorf("scan credential entry: %w", scanErr)
		}
		out[k] = v
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate credential entries: %w", apperrors.MapDBError(rowsErr))
	}
	return out, nil
}

func (s *CredentialStore) SetMany(ctx context.Context, namespace string, values map[string]string) error {
	if namespace == "" {
		return apperrors.ValidationField("namespace", "namespace cannot be empty")
	}
	if len(values) == 0 {
		return nil
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		for k, v := range values {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO credential_entries (namespace, key, value, updated_at)
				VALUES ($1, $2, $3, now())
				ON CONFLICT (namespace, key)
				DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
				namespace, k, v,
			); err != nil {
				return fmt.Errorf("upsert credential entry %q: %w", k, apperrors.MapDBError(err))
			}
		}
		return nil
	})
}

func (s *CredentialStore) Delete(ctx context.Context, namespace string, keys ...string) error {
	if namespace == "" || len(keys) == 0 {
		return nil
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM credential_entries WHERE namespace = $1 AND key = ANY($2)`,
		namespace, keys,
	); err != nil {
		return fmt.Errorf("delete credential entries: %w", apperrors.MapDBError(err))
	}
	return nil
}

func (s *CredentialStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", apperrors.MapDBError(err))
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			s.logger.ErrorContext(ctx, "failed to rollback transaction", "error", rollbackErr)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", apperrors.MapDBError(err))
	}
	return nil
}
