package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rickgao/stockwatch/internal/model"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// DefaultSinaURL is the Sina realtime quote endpoint.
const DefaultSinaURL = "https://hq.sinajs.cn/list="

const sinaReferer = "https://finance.sina.com.cn"

// SinaClient fetches quotes from Sina. It shares transport, retry, rate
// limit and breaker behaviour with Client.
type SinaClient struct {
	*Client
}

// NewSinaClient creates a Sina quote client.
func NewSinaClient(baseURL string, opts ...ClientOption) *SinaClient {
	if baseURL == "" {
		baseURL = DefaultSinaURL
	}
	return &SinaClient{Client: NewClient(baseURL, opts...)}
}

// FetchQuote requests the realtime quote for sym.
func (s *SinaClient) FetchQuote(ctx context.Context, sym model.Symbol) (model.Quote, error) {
	header := http.Header{}
	header.Set("Referer", sinaReferer)

	endpoint := s.quoteURL + strings.ToLower(string(sym.Market)) + sym.Code
	body, err := s.doWithRetry(ctx, http.MethodGet, endpoint, nil, header)
	if err != nil {
		return model.Quote{}, err
	}

	return ParseSinaQuote(sym, body, time.Now())
}

// ParseSinaQuote decodes a GBK `var hq_str_xx="name,open,preClose,price,...";`
// line.
func ParseSinaQuote(sym model.Symbol, body []byte, fetchedAt time.Time) (model.Quote, error) {
	decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(body)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%s: decode gbk: %w", sym, err)
	}

	start := bytes.IndexByte(decoded, '"')
	end := bytes.LastIndexByte(decoded, '"')
	if start < 0 || end <= start+1 {
		return model.Quote{}, fmt.Errorf("%s: %w: empty sina payload", sym, ErrNoData)
	}

	values := strings.Split(string(decoded[start+1:end]), ",")
	if len(values) < 4 || strings.TrimSpace(values[0]) == "" {
		return model.Quote{}, fmt.Errorf("%s: %w: short sina payload", sym, ErrNoData)
	}

	preClose, err := strconv.ParseFloat(values[2], 64)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%s: %w: bad preClose %q", sym, ErrNoData, values[2])
	}
	price, err := strconv.ParseFloat(values[3], 64)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%s: %w: bad price %q", sym, ErrNoData, values[3])
	}

	return model.NewQuote(sym, values[0], preClose, price, fetchedAt), nil
}
