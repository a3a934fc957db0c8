package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSymbol(t *testing.T) {
	tests := []struct {
		in      string
		want    Symbol
		wantErr bool
	}{
		{in: "SZ000001", want: Symbol{Market: MarketSZ, Code: "000001"}},
		{in: "sh600519", want: Symbol{Market: MarketSH, Code: "600519"}},
		{in: "0.000063", want: Symbol{Market: MarketSZ, Code: "000063"}},
		{in: "1_688001", want: Symbol{Market: MarketSH, Code: "688001"}},
		{in: " 300750 ", want: Symbol{Market: MarketSZ, Code: "300750"}},
		{in: "601318", want: Symbol{Market: MarketSH, Code: "601318"}},
		{in: "", wantErr: true},
		{in: "HK00700", wantErr: true},
		{in: "830799", wantErr: true},
		{in: "SZ12345678901", wantErr: true},
		{in: "SZ00a001", wantErr: true},
		{in: "2.000001", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSymbol(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidSymbol)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSymbolForms(t *testing.T) {
	s, err := NewSymbol(MarketSZ, "000001")
	require.NoError(t, err)

	assert.Equal(t, "0_000001", s.Key())
	assert.Equal(t, "SZ000001", s.Display())
	assert.Equal(t, "0.000001", s.SecID())

	sh, err := NewSymbol(MarketSH, "600519")
	require.NoError(t, err)
	assert.Equal(t, "1_600519", sh.Key())
	assert.Equal(t, "1.600519", sh.SecID())
}

func TestParseMarket(t *testing.T) {
	for in, want := range map[string]Market{"sz": MarketSZ, "SH": MarketSH, "0": MarketSZ, "1": MarketSH} {
		got, ok := ParseMarket(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseMarket("BJ")
	assert.False(t, ok)
}
