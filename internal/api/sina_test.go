package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestSinaFetchQuote(t *testing.T) {
	var gotPath, gotReferer string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotReferer = r.Header.Get("Referer")
		body, _ := simplifiedchinese.GBK.NewEncoder().String(`var hq_str_sh600519="贵州茅台,1440.00,1445.50,1439.00";`)
		w.Write([]byte(body))
	}))
	defer server.Close()

	c := NewSinaClient(server.URL + "/list=")
	q, err := c.FetchQuote(context.Background(), mustSymbol(t, "SH600519"))
	require.NoError(t, err)

	assert.Equal(t, "/list=sh600519", gotPath)
	assert.Equal(t, sinaReferer, gotReferer)
	assert.Equal(t, "贵州茅台", q.Name)
	assert.Equal(t, 1439.0, q.Price)
	assert.Less(t, q.ChangeRate, 0.0)
}
