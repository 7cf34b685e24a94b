package repository

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"tradebot-backend/internal/domain"
)

// PostgresTokenRepository persists device tokens so push notifications
// survive restarts.
type PostgresTokenRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresTokenRepository(pool *pgxpool.Pool) *PostgresTokenRepository {
	return &PostgresTokenRepository{pool: pool}
}

func (r *PostgresTokenRepository) RegisterToken(userID, token, platform string) error {
	_, err := r.pool.Exec(context.Background(), `
		insert into device_tokens(token, user_id, platform) values ($1,$2,$3)
		on conflict (token) do update set
			user_id = excluded.user_id,
			platform = excluded.platform
	`, token, userID, platform)
	return err
}

func (r *PostgresTokenRepository) UnregisterToken(token string) error {
	_, err := r.pool.Exec(context.Background(), `delete from device_tokens where token = $1`, token)
	return err
}

func (r *PostgresTokenRepository) TokensForUser(userID string) []string {
	rows, err := r.pool.Query(context.Background(), `select token from device_tokens where user_id = $1`, userID)
	if err != nil {
		log.Printf("device token lookup for user %s failed: %v", userID, err)
		return nil
	}
	defer rows.Close()

	tokens := make([]string, 0)
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// compile-time check
var _ domain.DeviceTokenStore = (*PostgresTokenRepository)(nil)
