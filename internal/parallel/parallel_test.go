package parallel

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestFor(t *testing.T) {
	for _, cfg := range []Config{
		DefaultConfig(),
		Sequential(),
		{Enabled: true, NumWorkers: 3, MinChunkSize: 1},
		{Enabled: true, NumWorkers: 0, MinChunkSize: 0},
		{Enabled: true, NumWorkers: 16, MinChunkSize: 64},
	} {
		t.Run(fmt.Sprintf("%+v", cfg), func(t *testing.T) {
			var counter int64
			seen := make([]int32, 100)
			For(len(seen), func(i int) {
				atomic.AddInt64(&counter, 1)
				atomic.AddInt32(&seen[i], 1)
			}, cfg)

			assert.Equal(t, int64(len(seen)), counter)
			for i, s := range seen {
				assert.Equal(t, int32(1), s, "index %d", i)
			}
		})
	}
}

func TestForZeroItems(t *testing.T) {
	For(0, func(int) { t.Fatal("called") }, DefaultConfig())
	require.NoError(t, ForErr(0, func(int) error { return errors.New("called") }, DefaultConfig()))
}

func TestForErrReturnsLowestIndex(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}
	var ran int64
	err := ForErr(8, func(i int) error {
		atomic.AddInt64(&ran, 1)
		if i == 2 || i == 6 {
			return fmt.Errorf("item %d", i)
		}
		return nil
	}, cfg)

	assert.EqualError(t, err, "item 2")
	assert.Equal(t, int64(8), ran)
}
