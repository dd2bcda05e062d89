// Package callnumber assigns the 4-digit codes customers are called by
package callnumber

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
)

// Space is the number of distinct call numbers (0000-9999)
const Space = 10000

// DefaultMaxAttempts bounds the random draws made before falling back to a scan
const DefaultMaxAttempts = Space

// ErrExhausted is returned when no free call number could be found
var ErrExhausted = errors.New("callnumber: no free call number available")

// Set holds the call numbers currently in use
type Set map[string]struct{}

// NewSet builds a Set from a list of codes
func NewSet(codes ...string) Set {
	s := make(Set, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Has reports whether code is in use
func (s Set) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Add marks code as in use
func (s Set) Add(code string) {
	s[code] = struct{}{}
}

// Source produces uniform integers in [0, n)
type Source interface {
	Intn(n int) int
}

type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (s *lockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// NewRandomSource returns a Source seeded from the runtime and safe for concurrent use
func NewRandomSource() Source {
	return &lockedSource{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// Allocator draws random call numbers that do not collide with a live set
type Allocator struct {
	source      Source
	MaxAttempts int
}

// NewAllocator creates an allocator. A nil source uses NewRandomSource
func NewAllocator(source Source) *Allocator {
	if source == nil {
		source = NewRandomSource()
	}
	return &Allocator{source: source, MaxAttempts: DefaultMaxAttempts}
}

// Allocate returns a code not present in existing. It does not modify existing.
// Random draws come first; once MaxAttempts draws have collided the lowest
// free code is taken, so ErrExhausted means every code is in use
func (a *Allocator) Allocate(existing Set) (string, error) {
	if len(existing) >= Space {
		return "", ErrExhausted
	}

	attempts := a.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	for i := 0; i < attempts; i++ {
		code := Format(a.source.Intn(Space))
		if !existing.Has(code) {
			return code, nil
		}
	}

	for n := 0; n < Space; n++ {
		if code := Format(n); !existing.Has(code) {
			return code, nil
		}
	}
	return "", ErrExhausted
}

// Format renders n as a zero-padded 4-digit code
func Format(n int) string {
	return fmt.Sprintf("%04d", n)
}

// Valid reports whether code is exactly four ASCII digits
func Valid(code string) bool {
	if len(code) != 4 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
