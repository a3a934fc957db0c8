package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestStripJSONP(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"wrapped", `cb({"a":1});`, `{"a":1}`},
		{"wrapped with space", "  jQuery_1({\"a\":1})\n", `{"a":1}`},
		{"empty", "", ""},
		{"garbage", "abc", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(stripJSONP([]byte(tt.input))))
		})
	}
}

func TestTrendsToQuote(t *testing.T) {
	sym := mustSymbol(t, "SH600000")
	now := time.Date(2025, 8, 20, 10, 0, 0, 0, time.Local)

	t.Run("last point wins", func(t *testing.T) {
		resp := &TrendsResponse{Data: &TrendsData{
			Name:     "浦发银行",
			PreClose: 10,
			Trends:   []string{"t1,10,10.2,0,0,0,0,0", "t2,10,9.877,0,0,0,0,0"},
		}}
		q, err := resp.ToQuote(sym, now)
		require.NoError(t, err)
		assert.InDelta(t, 9.877, q.Price, 1e-9)
		assert.Equal(t, "-1.23%", q.ChangeRateDisplay)
		assert.Equal(t, now, q.FetchedAt)
	})

	t.Run("zero preClose", func(t *testing.T) {
		resp := &TrendsResponse{Data: &TrendsData{Name: "X", Trends: []string{"t,1,5,1,1,1,1,1"}}}
		q, err := resp.ToQuote(sym, now)
		require.NoError(t, err)
		assert.Equal(t, 0.0, q.ChangeRate)
		assert.Equal(t, "0.00%", q.ChangeRateDisplay)
	})

	errCases := map[string]*TrendsResponse{
		"nil response":    nil,
		"nil data":        {},
		"blank name":      {Data: &TrendsData{Name: " ", Trends: []string{"t,1,2,3"}}},
		"short point":     {Data: &TrendsData{Name: "X", Trends: []string{"t,1"}}},
		"non-numeric":     {Data: &TrendsData{Name: "X", Trends: []string{"t,1,abc"}}},
		"no trend points": {Data: &TrendsData{Name: "X"}},
	}
	for name, resp := range errCases {
		t.Run(name, func(t *testing.T) {
			_, err := resp.ToQuote(sym, now)
			assert.ErrorIs(t, err, ErrNoData)
		})
	}
}

func TestParseKline(t *testing.T) {
	k, err := ParseKline("2025-08-18,10.00,10.50,10.80,9.90,123456,1300000.50")
	require.NoError(t, err)
	assert.Equal(t, "2025-08-18", k.Date)
	assert.Equal(t, 10.0, k.Open)
	assert.Equal(t, 10.5, k.Close)
	assert.Equal(t, 10.8, k.High)
	assert.Equal(t, 9.9, k.Low)
	assert.Equal(t, int64(123456), k.Volume)
	assert.Equal(t, 1300000.5, k.Turnover)

	_, err = ParseKline("2025-08-18,10.00")
	assert.Error(t, err)
	_, err = ParseKline("2025-08-18,x,1,1,1,1,1")
	assert.Error(t, err)
}

func TestParseSinaQuote(t *testing.T) {
	sym := mustSymbol(t, "SZ000001")
	now := time.Now()

	gbk, err := simplifiedchinese.GBK.NewEncoder().String(
		`var hq_str_sz000001="平安银行,10.40,10.00,10.50,10.60,10.30,10.49,10.50,100,1000";`)
	require.NoError(t, err)

	q, err := ParseSinaQuote(sym, []byte(gbk), now)
	require.NoError(t, err)
	assert.Equal(t, "平安银行", q.Name)
	assert.Equal(t, 10.0, q.PreClose)
	assert.Equal(t, 10.5, q.Price)
	assert.Equal(t, "5.00%", q.ChangeRateDisplay)

	_, err = ParseSinaQuote(sym, []byte(`var hq_str_sz000001="";`), now)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = ParseSinaQuote(sym, []byte(`var hq_str_sz000001="X,1";`), now)
	assert.ErrorIs(t, err, ErrNoData)
}
