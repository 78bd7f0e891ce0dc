package narrative

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Chooser picks an index in [0, n). Tests inject a fixed one.
type Chooser interface {
	IntN(n int) int
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewChooser returns a goroutine-safe chooser seeded with seed.
func NewChooser(seed uint64) Chooser {
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func defaultChooser() Chooser {
	return NewChooser(uint64(time.Now().UnixNano()))
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}
