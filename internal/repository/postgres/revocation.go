package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RevocationStore хранит отозванные токены в таблице revoked_tokens.
// Используется, когда Redis не настроен.
type RevocationStore struct {
	pool *pgxpool.Pool
}

// NewRevocationStore создает хранилище отозванных токенов
func NewRevocationStore(pool *pgxpool.Pool) *RevocationStore {
	return &RevocationStore{pool: pool}
}

// Revoke помечает токен отозванным и заодно удаляет истекшие записи
func (s *RevocationStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	conn := getConn(ctx, s.pool)

	query := `
		INSERT INTO revoked_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`

	if _, err := conn.Exec(ctx, query, jti, expiresAt); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	if _, err := conn.Exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at < now()`); err != nil {
		return fmt.Errorf("failed to purge expired tokens: %w", err)
	}

	return nil
}

// IsRevoked проверяет, отозван ли токен
func (s *RevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	conn := getConn(ctx, s.pool)

	var revoked bool
	err := conn.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE jti = $1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}

	return revoked, nil
}
