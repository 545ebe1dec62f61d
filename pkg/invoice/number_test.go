package invoice

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(year int, month time.Month) func() time.Time {
	return func() time.Time {
		return time.Date(year, month, 15, 12, 0, 0, 0, time.UTC)
	}
}

func TestAllocatorNext(t *testing.T) {
	t.Run("first allocation starts at 0001", func(t *testing.T) {
		a := NewAllocator(NewMemCounterStore(), "INV")
		a.now = fixedClock(2025, time.January)

		num, err := a.Next()
		require.NoError(t, err)
		assert.Equal(t, "INV-202501-0001", num)
	})

	t.Run("same period increments", func(t *testing.T) {
		a := NewAllocator(NewMemCounterStore(), "INV")
		a.now = fixedClock(2025, time.January)

		_, err := a.Next()
		require.NoError(t, err)
		num, err := a.Next()
		require.NoError(t, err)
		assert.Equal(t, "INV-202501-0002", num)
	})

	t.Run("new period resets to 0001", func(t *testing.T) {
		store := NewMemCounterStore()
		a := NewAllocator(store, "INV")
		a.now = fixedClock(2025, time.January)

		_, err := a.Next()
		require.NoError(t, err)
		_, err = a.Next()
		require.NoError(t, err)

		a.now = fixedClock(2025, time.February)
		num, err := a.Next()
		require.NoError(t, err)
		assert.Equal(t, "INV-202502-0001", num)
	})

	t.Run("counter grows past four digits without wrapping", func(t *testing.T) {
		store := NewMemCounterStore()
		require.NoError(t, store.Save(CounterState{Period: "202501", Counter: 9999}))

		a := NewAllocator(store, "INV")
		a.now = fixedClock(2025, time.January)

		num, err := a.Next()
		require.NoError(t, err)
		assert.Equal(t, "INV-202501-10000", num)
	})

	t.Run("concurrent allocations yield a gapless unique sequence", func(t *testing.T) {
		const n = 50

		a := NewAllocator(NewMemCounterStore(), "INV")
		a.now = fixedClock(2025, time.March)

		var wg sync.WaitGroup
		results := make(chan string, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				num, err := a.Next()
				assert.NoError(t, err)
				results <- num
			}()
		}
		wg.Wait()
		close(results)

		var counters []int
		for num := range results {
			parts := strings.Split(num, "-")
			require.Len(t, parts, 3)
			c, err := strconv.Atoi(parts[2])
			require.NoError(t, err)
			counters = append(counters, c)
		}
		sort.Ints(counters)
		for i, c := range counters {
			assert.Equal(t, i+1, c)
		}
	})
}

func TestFileCounterStore(t *testing.T) {
	t.Run("missing file reports absent", func(t *testing.T) {
		s := NewFileCounterStore(filepath.Join(t.TempDir(), "counter.txt"))
		_, ok, err := s.Load()
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("round trips state", func(t *testing.T) {
		s := NewFileCounterStore(filepath.Join(t.TempDir(), "counter.txt"))
		require.NoError(t, s.Save(CounterState{Period: "202501", Counter: 7}))

		state, ok, err := s.Load()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, CounterState{Period: "202501", Counter: 7}, state)
	})

	t.Run("writes plain period-counter text", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "counter.txt")
		s := NewFileCounterStore(path)
		require.NoError(t, s.Save(CounterState{Period: "202501", Counter: 12}))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "202501-12", string(raw))
	})

	t.Run("malformed content reports absent", func(t *testing.T) {
		for _, content := range []string{"", "garbage", "202501-abc", "202501-0-1", "202501--1"} {
			path := filepath.Join(t.TempDir(), "counter.txt")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			_, ok, err := NewFileCounterStore(path).Load()
			require.NoError(t, err, fmt.Sprintf("content %q", content))
			assert.False(t, ok, fmt.Sprintf("content %q", content))
		}
	})

	t.Run("allocator backed by file survives restart", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "counter.txt")

		a := NewAllocator(NewFileCounterStore(path), "INV")
		a.now = fixedClock(2025, time.January)
		_, err := a.Next()
		require.NoError(t, err)

		// Fresh allocator over the same file, as after a restart.
		b := NewAllocator(NewFileCounterStore(path), "INV")
		b.now = fixedClock(2025, time.January)
		num, err := b.Next()
		require.NoError(t, err)
		assert.Equal(t, "INV-202501-0002", num)
	})
}
