package numbering

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func staticCount(n int64) CountFunc {
	return func(context.Context) (int64, error) { return n, nil }
}

func TestNextWithoutRedis(t *testing.T) {
	g := New(nil)

	seq, err := g.Next(context.Background(), ScopeOrder, staticCount(3))
	require.NoError(t, err)
	require.Equal(t, int64(4), seq)
}

func TestNextSeedsRedisFromCount(t *testing.T) {
	mr := miniredis.RunT(t)
	g := New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	seq, err := g.Next(context.Background(), ScopeOrder, staticCount(3))
	require.NoError(t, err)
	require.Equal(t, int64(4), seq)

	// Counter is now independent of the store count.
	seq, err = g.Next(context.Background(), ScopeOrder, staticCount(3))
	require.NoError(t, err)
	require.Equal(t, int64(5), seq)
}

func TestNextConcurrentSequencesAreUnique(t *testing.T) {
	mr := miniredis.RunT(t)
	g := New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	const workers = 20
	var mu sync.Mutex
	seen := make(map[int64]bool)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := g.Next(context.Background(), ScopeDelivery, staticCount(0))
			require.NoError(t, err)
			mu.Lock()
			defer mu.Unlock()
			require.False(t, seen[seq], "sequence %d handed out twice", seq)
			seen[seq] = true
		}()
	}
	wg.Wait()
	require.Len(t, seen, workers)
}

func TestNextFallsBackWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()

	g := New(client)
	seq, err := g.Next(context.Background(), ScopeOrder, staticCount(7))
	require.NoError(t, err)
	require.Equal(t, int64(8), seq)
}

func TestNumberFormats(t *testing.T) {
	date := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)

	require.Equal(t, "CMD-20250115-0004", OrderNumber(date, 4))
	require.Equal(t, "BL-20250115-0002", DeliveryNumber(date, 2))
	require.Equal(t, "FACT2025010007", InvoiceNumber(date, 7))
	require.Equal(t, "facture:202501", InvoiceScope(date))
}
