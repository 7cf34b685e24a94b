package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the minimal tables needed by this app.
// This keeps setup simple (no external migration tool), but still gives persistence.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`create table if not exists user_settings (
			user_id text primary key,
			deriv_token_enc text not null default '',
			stake double precision not null default 1,
			duration int not null default 60,
			candle_granularity int not null default 60,
			symbol text not null default 'R_100',
			fusion_logic text not null default 'OR',
			contract_family text not null default 'CALLPUT',
			take_profit int not null default 0,
			stop_loss int not null default 0,
			accumulator_growth_rate double precision not null default 0.02,
			take_profit_accumulator double precision not null default 0,
			stop_loss_accumulator double precision not null default 0,
			multiplier_value int not null default 100,
			take_profit_multiplier double precision not null default 0,
			stop_loss_multiplier double precision not null default 0,
			strategies jsonb not null default '{}'::jsonb,
			created_at timestamptz not null default now(),
			updated_at timestamptz not null default now()
		);`,
		`create table if not exists device_tokens (
			token text primary key,
			user_id text not null,
			platform text not null default '',
			created_at timestamptz not null default now()
		);`,
		`create index if not exists device_tokens_user_idx on device_tokens(user_id);`,
		`create table if not exists trade_history (
			id text primary key,
			user_id text not null,
			contract_id bigint not null,
			contract_family text not null,
			buy_price double precision not null,
			profit double precision not null,
			win boolean not null,
			closed_at timestamptz not null
		);`,
		`create index if not exists trade_history_user_closed_idx on trade_history(user_id, closed_at desc);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
