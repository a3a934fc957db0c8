package api

// TrendsResponse from GET /api/qt/stock/trends2/get
type TrendsResponse struct {
	RC   int         `json:"rc"`
	Data *TrendsData `json:"data"`
}

// TrendsData is the payload of an intraday trends response.
type TrendsData struct {
	Code     string   `json:"code"`
	Market   int      `json:"market"`
	Name     string   `json:"name"`
	PreClose float64  `json:"preClose"`
	Trends   []string `json:"trends"` // "time,open,close,high,low,volume,amount,avg"
}

// KlinesResponse from GET /api/qt/stock/kline/get
type KlinesResponse struct {
	RC   int         `json:"rc"`
	Data *KlinesData `json:"data"`
}

// KlinesData is the payload of a history kline response.
type KlinesData struct {
	Code   string   `json:"code"`
	Market int      `json:"market"`
	Name   string   `json:"name"`
	Klines []string `json:"klines"` // "date,open,close,high,low,volume,turnover,..."
}
