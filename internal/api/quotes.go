package api

import (
	"context"
	"net/url"
	"time"

	"github.com/rickgao/stockwatch/internal/model"
)

const trendsFields1 = "f1,f2,f3,f4,f5,f6,f7,f8,f9,f10,f11,f12,f13"
const trendsFields2 = "f51,f52,f53,f54,f55,f56,f57,f58"

// FetchQuote requests the intraday trends for sym and returns its latest
// quote. A non-2xx status, transport failure or a payload without data is
// an error; the caller treats any error as "no result this cycle".
func (c *Client) FetchQuote(ctx context.Context, sym model.Symbol) (model.Quote, error) {
	query := url.Values{}
	query.Set("secid", sym.SecID())
	query.Set("fields1", trendsFields1)
	query.Set("fields2", trendsFields2)

	var resp TrendsResponse
	if err := c.get(ctx, c.quoteURL, query, &resp); err != nil {
		return model.Quote{}, err
	}

	return resp.ToQuote(sym, time.Now())
}
