package providers

import (
	"math/rand"
	"sync"
	"time"
)

// Rand is the entropy source behind surge, availability and ETA jitter.
// Production uses a time-seeded source; tests pin a seed or a fixed
// sequence so quotes become reproducible. *math/rand.Rand satisfies this
// interface but is not safe for the concurrent fan-out, hence lockedRand.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newLockedRand() *lockedRand {
	return &lockedRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// quoteEnv bundles the entropy source and clock shared by all providers of
// one engine.
type quoteEnv struct {
	rng Rand
	now func() time.Time
}
