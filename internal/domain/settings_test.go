package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFillsDefaults(t *testing.T) {
	var s TradingSettings
	s.Normalize()

	assert.Equal(t, "R_100", s.Symbol)
	assert.Equal(t, 60, s.CandleGranularity)
	assert.Equal(t, 60, s.Duration)
	assert.Equal(t, 1.0, s.Stake)
	assert.Equal(t, FusionOR, s.FusionLogic)
	assert.Equal(t, FamilyCallPut, s.ContractFamily)
	assert.Equal(t, 0.02, s.AccumulatorGrowthRate)
	assert.Equal(t, 100, s.MultiplierValue)
	assert.Equal(t, 100*time.Millisecond, s.TradeCooldown)
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	s := TradingSettings{
		Symbol:         "R_50",
		Stake:          5,
		FusionLogic:    FusionAND,
		ContractFamily: FamilyAccumulator,
		TradeCooldown:  time.Second,
	}
	s.Normalize()

	assert.Equal(t, "R_50", s.Symbol)
	assert.Equal(t, 5.0, s.Stake)
	assert.Equal(t, FusionAND, s.FusionLogic)
	assert.Equal(t, FamilyAccumulator, s.ContractFamily)
	assert.Equal(t, time.Second, s.TradeCooldown)
}

func TestContractOpen(t *testing.T) {
	assert.False(t, Contract{}.Open())
	assert.False(t, Contract{State: ContractClosed}.Open())
	assert.True(t, Contract{State: ContractProposed}.Open())
	assert.True(t, Contract{State: ContractBought}.Open())
	assert.True(t, Contract{State: ContractMonitoring}.Open())
}
