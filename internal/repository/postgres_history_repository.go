package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"tradebot-backend/internal/domain"
)

// PostgresTradeHistoryRepository persists closed trades.
type PostgresTradeHistoryRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresTradeHistoryRepository(pool *pgxpool.Pool) *PostgresTradeHistoryRepository {
	return &PostgresTradeHistoryRepository{pool: pool}
}

func (r *PostgresTradeHistoryRepository) RecordTrade(record *domain.TradeRecord) error {
	if record == nil {
		return errors.New("nil trade record")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.ClosedAt.IsZero() {
		record.ClosedAt = time.Now()
	}

	_, err := r.pool.Exec(context.Background(), `
		insert into trade_history(
			id, user_id, contract_id, contract_family, buy_price, profit, win, closed_at
		) values ($1,$2,$3,$4,$5,$6,$7,$8)
		on conflict (id) do nothing
	`,
		record.ID,
		record.UserID,
		record.ContractID,
		string(record.Family),
		record.BuyPrice,
		record.Profit,
		record.Win,
		record.ClosedAt,
	)
	return err
}

func (r *PostgresTradeHistoryRepository) GetHistory(userID string, from time.Time) ([]*domain.TradeRecord, error) {
	rows, err := r.pool.Query(context.Background(), `
		select id, user_id, contract_id, contract_family, buy_price, profit, win, closed_at
		from trade_history
		where user_id = $1 and closed_at >= $2
		order by closed_at desc
	`, userID, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*domain.TradeRecord, 0)
	for rows.Next() {
		var rec domain.TradeRecord
		var family string
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.ContractID,
			&family,
			&rec.BuyPrice,
			&rec.Profit,
			&rec.Win,
			&rec.ClosedAt,
		); err != nil {
			return nil, err
		}
		rec.Family = domain.ContractFamily(family)
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// compile-time check
var _ domain.TradeHistoryStore = (*PostgresTradeHistoryRepository)(nil)
