package repository

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"

	"tradebot-backend/internal/domain"
)

// PostgresSettingsRepository stores per-user trading settings in Postgres.
// The Deriv API token is encrypted at rest using AES-GCM with a 32-byte key.
type PostgresSettingsRepository struct {
	pool       *pgxpool.Pool
	encryptKey []byte
}

func NewPostgresSettingsRepository(pool *pgxpool.Pool, encryptionKey string) *PostgresSettingsRepository {
	key := []byte(encryptionKey)
	if len(key) < 32 {
		padded := make([]byte, 32)
		copy(padded, key)
		key = padded
	} else if len(key) > 32 {
		key = key[:32]
	}

	return &PostgresSettingsRepository{pool: pool, encryptKey: key}
}

func (r *PostgresSettingsRepository) SaveSettings(settings *domain.TradingSettings) error {
	if settings == nil {
		return errors.New("nil settings")
	}

	encryptedToken := ""
	if settings.DerivToken != "" {
		var err error
		encryptedToken, err = r.encrypt(settings.DerivToken)
		if err != nil {
			return err
		}
	}

	strategiesJSON, err := json.Marshal(settings.Strategies)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(context.Background(), `
		insert into user_settings(
			user_id, deriv_token_enc, stake, duration, candle_granularity, symbol,
			fusion_logic, contract_family, take_profit, stop_loss,
			accumulator_growth_rate, take_profit_accumulator, stop_loss_accumulator,
			multiplier_value, take_profit_multiplier, stop_loss_multiplier,
			strategies, created_at, updated_at
		) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17, now(), now())
		on conflict (user_id) do update set
			deriv_token_enc = case when excluded.deriv_token_enc = '' then user_settings.deriv_token_enc else excluded.deriv_token_enc end,
			stake = excluded.stake,
			duration = excluded.duration,
			candle_granularity = excluded.candle_granularity,
			symbol = excluded.symbol,
			fusion_logic = excluded.fusion_logic,
			contract_family = excluded.contract_family,
			take_profit = excluded.take_profit,
			stop_loss = excluded.stop_loss,
			accumulator_growth_rate = excluded.accumulator_growth_rate,
			take_profit_accumulator = excluded.take_profit_accumulator,
			stop_loss_accumulator = excluded.stop_loss_accumulator,
			multiplier_value = excluded.multiplier_value,
			take_profit_multiplier = excluded.take_profit_multiplier,
			stop_loss_multiplier = excluded.stop_loss_multiplier,
			strategies = excluded.strategies,
			updated_at = now()
	`,
		settings.UserID,
		encryptedToken,
		settings.Stake,
		settings.Duration,
		settings.CandleGranularity,
		settings.Symbol,
		string(settings.FusionLogic),
		string(settings.ContractFamily),
		settings.TakeProfit,
		settings.StopLoss,
		settings.AccumulatorGrowthRate,
		settings.TakeProfitAccumulator,
		settings.StopLossAccumulator,
		settings.MultiplierValue,
		settings.TakeProfitMultiplier,
		settings.StopLossMultiplier,
		strategiesJSON,
	)
	return err
}

func (r *PostgresSettingsRepository) GetSettings(userID string) (*domain.TradingSettings, error) {
	row := r.pool.QueryRow(context.Background(), `
		select user_id, deriv_token_enc, stake, duration, candle_granularity, symbol,
			fusion_logic, contract_family, take_profit, stop_loss,
			accumulator_growth_rate, take_profit_accumulator, stop_loss_accumulator,
			multiplier_value, take_profit_multiplier, stop_loss_multiplier, strategies
		from user_settings
		where user_id = $1
	`, userID)

	var settings domain.TradingSettings
	var tokenEnc string
	var fusionLogic, contractFamily string
	var strategiesRaw []byte

	if err := row.Scan(
		&settings.UserID,
		&tokenEnc,
		&settings.Stake,
		&settings.Duration,
		&settings.CandleGranularity,
		&settings.Symbol,
		&fusionLogic,
		&contractFamily,
		&settings.TakeProfit,
		&settings.StopLoss,
		&settings.AccumulatorGrowthRate,
		&settings.TakeProfitAccumulator,
		&settings.StopLossAccumulator,
		&settings.MultiplierValue,
		&settings.TakeProfitMultiplier,
		&settings.StopLossMultiplier,
		&strategiesRaw,
	); err != nil {
		return nil, domain.ErrSettingsNotFound
	}

	if tokenEnc != "" {
		token, err := r.decrypt(tokenEnc)
		if err != nil {
			return nil, err
		}
		settings.DerivToken = token
	}
	settings.FusionLogic = domain.FusionLogic(fusionLogic)
	settings.ContractFamily = domain.ContractFamily(contractFamily)
	_ = json.Unmarshal(strategiesRaw, &settings.Strategies)

	return &settings, nil
}

func (r *PostgresSettingsRepository) DeleteSettings(userID string) error {
	_, err := r.pool.Exec(context.Background(), `delete from user_settings where user_id = $1`, userID)
	return err
}

func (r *PostgresSettingsRepository) encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(r.encryptKey)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (r *PostgresSettingsRepository) decrypt(encrypted string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", err
	}
	block, err := aes.NewCipher(r.encryptKey)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", errors.New("ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// compile-time check
var _ domain.SettingsStore = (*PostgresSettingsRepository)(nil)
