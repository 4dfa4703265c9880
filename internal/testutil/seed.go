// Package testutil holds helpers shared by tests across the module.
package testutil

import (
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// UnlockSeedEnv names the environment variable that replaces fixed test
// seeds with a fresh one per run. The seed used is logged so a failure can
// be replayed by setting the variable to that number.
const UnlockSeedEnv = "UNLOCK_SEED"

// Seed returns a generator scoped to the test.
//
// Without UNLOCK_SEED the generator is seeded with seed. With
// UNLOCK_SEED=1 (or "true") a time-derived seed is drawn; any other integer
// value is used as the seed directly.
func Seed(t testing.TB, seed int64) *rand.Rand {
	t.Helper()
	if v := os.Getenv(UnlockSeedEnv); v != "" {
		switch v {
		case "1", "true":
			seed = time.Now().UnixNano()
		default:
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				t.Fatalf("%s=%q: %v", UnlockSeedEnv, v, err)
			}
			seed = parsed
		}
		t.Logf("%s: using seed %d", UnlockSeedEnv, seed)
	}
	return rand.New(rand.NewSource(seed))
}
