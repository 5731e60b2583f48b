package imagecache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	calls int
	data  []byte
	err   error
}

func (f *fakeFetcher) FetchImage(ctx context.Context, path string) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

func TestPrefetch_DownloadsOnce(t *testing.T) {
	fetcher := &fakeFetcher{data: []byte("png")}
	c := New(t.TempDir(), fetcher)
	ctx := context.Background()

	require.NoError(t, c.Prefetch(ctx, "products/espresso.png"))
	assert.True(t, c.Has("products/espresso.png"))

	// Already cached, no second download.
	require.NoError(t, c.Prefetch(ctx, "products/espresso.png"))
	assert.Equal(t, 1, fetcher.calls)

	data, err := c.Open("products/espresso.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)
}

func TestPrefetch_EmptyPathIsNoop(t *testing.T) {
	fetcher := &fakeFetcher{}
	c := New(t.TempDir(), fetcher)

	require.NoError(t, c.Prefetch(context.Background(), ""))
	assert.Zero(t, fetcher.calls)
}

func TestPrefetch_FetchErrorSurfacesButLeavesNoFile(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("connection refused")}
	c := New(t.TempDir(), fetcher)

	err := c.Prefetch(context.Background(), "a.png")
	assert.Error(t, err)
	assert.False(t, c.Has("a.png"))
}

func TestLocalPath_RefusesEscape(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, &fakeFetcher{})

	local := c.localPath("../../etc/passwd")
	assert.Contains(t, local, dir)
}
