package watchlist

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_ReloadsExternalEdits(t *testing.T) {
	s, dir := openTemp(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var changes atomic.Int32
	require.NoError(t, s.Watch(ctx, func() { changes.Add(1) }))

	edited := `{"groups":[{"name":"自选","stocks":[{"marketCode":"0","stockCode":"000001"}]}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultGroupsFile), []byte(edited), 0o644))

	assert.Eventually(t, func() bool {
		return changes.Load() > 0 && len(s.Symbols(DefaultGroup)) == 1
	}, 3*time.Second, 20*time.Millisecond)
}
