// Package identity generates the placeholder ids of provisional bookmarks
// and the per-session tab ids.
package identity

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// TempPrefix marks ids that were generated client-side and never persisted.
// Store-assigned ids never carry it.
const TempPrefix = "temp-"

const (
	randomLen = 9
	alphabet  = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Generator hands out temporary ids and tab ids.
// The zero value is not usable; call New.
type Generator struct {
	counter atomic.Uint64
	now     func() time.Time
}

// New returns a Generator using the wall clock.
func New() *Generator {
	return &Generator{now: time.Now}
}

// TempID returns "temp-<unixnano>-<counter>-<random>".
// The counter strictly increases within the process, so two calls never
// return the same id even when the clock and random bits repeat.
func (g *Generator) TempID() string {
	n := g.counter.Add(1)

	var sb strings.Builder
	sb.Grow(len(TempPrefix) + 20 + 1 + 8 + 1 + randomLen)
	sb.WriteString(TempPrefix)
	sb.WriteString(strconv.FormatInt(g.now().UnixNano(), 10))
	sb.WriteByte('-')
	sb.WriteString(strconv.FormatUint(n, 10))
	sb.WriteByte('-')
	sb.WriteString(randomSuffix())
	return sb.String()
}

// TabID returns a fresh identity for a session.
func (g *Generator) TabID() string {
	return uuid.NewString()
}

// IsTemp reports whether id was produced by TempID.
func IsTemp(id string) bool {
	return strings.HasPrefix(id, TempPrefix)
}

func randomSuffix() string {
	buf := make([]byte, randomLen)
	limit := big.NewInt(int64(len(alphabet)))
	for i := range buf {
		v, err := rand.Int(rand.Reader, limit)
		if err != nil {
			// Uniqueness comes from the counter; the suffix is only extra entropy.
			buf[i] = alphabet[0]
			continue
		}
		buf[i] = alphabet[v.Int64()]
	}
	return string(buf)
}
