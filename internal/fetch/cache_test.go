package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xlatombet/abt/internal/document"
	"github.com/xlatombet/abt/internal/racing"
)

type countingFetcher struct {
	pages Pages
	calls map[string]int
}

func (f *countingFetcher) Fetch(ctx context.Context, url string) (document.Node, error) {
	f.calls[url]++
	return f.pages.Fetch(ctx, url)
}

func newCounting() *countingFetcher {
	return &countingFetcher{
		pages: Pages{"https://example.com/a": `<p>a</p>`},
		calls: make(map[string]int),
	}
}

func TestCache_Fetch(t *testing.T) {
	ctx := context.Background()

	t.Run("reuses pages within TTL", func(t *testing.T) {
		f := newCounting()
		c := NewCache(f, time.Minute)

		for i := 0; i < 3; i++ {
			_, err := c.Fetch(ctx, "https://example.com/a")
			require.NoError(t, err)
		}
		require.Equal(t, 1, f.calls["https://example.com/a"])
		require.Equal(t, 1, c.Size())
	})

	t.Run("refetches expired pages", func(t *testing.T) {
		f := newCounting()
		c := NewCache(f, time.Minute)
		now := time.Date(2023, 11, 26, 10, 0, 0, 0, time.UTC)
		c.now = func() time.Time { return now }

		_, err := c.Fetch(ctx, "https://example.com/a")
		require.NoError(t, err)

		now = now.Add(2 * time.Minute)
		_, err = c.Fetch(ctx, "https://example.com/a")
		require.NoError(t, err)
		require.Equal(t, 2, f.calls["https://example.com/a"])
	})

	t.Run("failures are not cached", func(t *testing.T) {
		f := newCounting()
		c := NewCache(f, time.Minute)

		for i := 0; i < 2; i++ {
			_, err := c.Fetch(ctx, "https://example.com/missing")
			require.True(t, errors.Is(err, racing.ErrFetch))
		}
		require.Equal(t, 2, f.calls["https://example.com/missing"])
		require.Equal(t, 0, c.Size())
	})
}

func TestCache_DropsExpiredOnStore(t *testing.T) {
	f := newCounting()
	f.pages["https://example.com/b"] = `<p>b</p>`
	c := NewCache(f, time.Minute)
	now := time.Date(2023, 11, 26, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, err := c.Fetch(context.Background(), "https://example.com/a")
	require.NoError(t, err)
	now = now.Add(90 * time.Second)
	_, err = c.Fetch(context.Background(), "https://example.com/b")
	require.NoError(t, err)

	require.Equal(t, 1, c.Size())
}
