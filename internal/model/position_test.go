package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPositionValidate(t *testing.T) {
	cases := []struct {
		name     string
		position Position
		wantErr  bool
	}{
		{
			name:     "valid",
			position: Position{TickLower: -100, TickUpper: 100, Liquidity: "1000"},
		},
		{
			name:     "empty integer fields default to zero",
			position: Position{TickLower: -100, TickUpper: 100},
		},
		{
			name:     "inverted ticks",
			position: Position{TickLower: 100, TickUpper: -100},
			wantErr:  true,
		},
		{
			name:     "equal ticks",
			position: Position{TickLower: 0, TickUpper: 0},
			wantErr:  true,
		},
		{
			name:     "bad liquidity",
			position: Position{TickLower: -100, TickUpper: 100, Liquidity: "1e18"},
			wantErr:  true,
		},
		{
			name:     "bad owed amount",
			position: Position{TickLower: -100, TickUpper: 100, TokensOwed0: "0x10"},
			wantErr:  true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.position.Validate()
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestPositionFromSnapshotJSON(t *testing.T) {
	payload := `{
		"tick_lower": -887220,
		"tick_upper": 887220,
		"liquidity": "340282366920938463463374607431768211455",
		"tokens_owed0": "12345",
		"tokens_owed1": "67890",
		"entry_tick": 42
	}`

	var position Position
	require.NoError(t, json.Unmarshal([]byte(payload), &position))
	require.NoError(t, position.Validate())

	liquidity, err := position.LiquidityInt()
	require.NoError(t, err)
	require.Equal(t, "340282366920938463463374607431768211455", liquidity.String())

	owed0, owed1, err := position.Owed()
	require.NoError(t, err)
	require.Equal(t, "12345", owed0.String())
	require.Equal(t, "67890", owed1.String())

	require.NotNil(t, position.EntryTick)
	require.Equal(t, int32(42), *position.EntryTick)
}

func TestParseBigInt(t *testing.T) {
	value, err := ParseBigInt("")
	require.NoError(t, err)
	require.Equal(t, "0", value.String())

	value, err = ParseBigInt("-42")
	require.NoError(t, err)
	require.Equal(t, "-42", value.String())

	_, err = ParseBigInt("12.5")
	require.ErrorIs(t, err, ErrInvalidInput)
}
