package engine

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"math/rand/v2"
	"sync"
)

// Rand is the uniform source behind jitter and fire-button draws.
// Implementations must be safe for concurrent use.
type Rand interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// IntN returns a value in [0, n). n must be positive.
	IntN(n int) int
}

// RandMode selects how a Generator draws randomness.
type RandMode string

const (
	// RandReproducible derives draws from an HMAC-SHA256 stream over a seed.
	RandReproducible RandMode = "reproducible"
	// RandEntropy uses the runtime's randomly seeded generator.
	RandEntropy RandMode = "entropy"
)

type entropy struct{}

// NewEntropy returns a Rand backed by math/rand/v2's global generator.
func NewEntropy() Rand { return entropy{} }

func (entropy) Float64() float64 { return rand.Float64() }
func (entropy) IntN(n int) int   { return rand.IntN(n) }

// byteStream yields the HMAC-SHA256 bytes of key over "label:nonce:round", 32 per round.
type byteStream struct {
	key         []byte
	label       string
	nonce       uint64
	round       int
	roundCursor int
	buffer      [32]byte
}

func newByteStream(key, label string, nonce uint64) *byteStream {
	return &byteStream{key: []byte(key), label: label, nonce: nonce, roundCursor: 32, round: -1}
}

func (bs *byteStream) next() byte {
	if bs.roundCursor >= 32 {
		bs.round++
		bs.roundCursor = 0
		h := hmac.New(sha256.New, bs.key)
		fmt.Fprintf(h, "%s:%d:%d", bs.label, bs.nonce, bs.round)
		copy(bs.buffer[:], h.Sum(nil))
	}
	b := bs.buffer[bs.roundCursor]
	bs.roundCursor++
	return b
}

// float assembles 4 bytes into [0, 1).
func (bs *byteStream) float() float64 {
	b0, b1, b2, b3 := bs.next(), bs.next(), bs.next(), bs.next()
	return float64(b0)/256.0 +
		float64(b1)/(256.0*256.0) +
		float64(b2)/(256.0*256.0*256.0) +
		float64(b3)/(256.0*256.0*256.0*256.0)
}

// Reproducible is a deterministic Rand: the same seed yields the same sequence.
type Reproducible struct {
	mu     sync.Mutex
	stream *byteStream
}

// NewReproducible seeds a deterministic source.
func NewReproducible(seed string) *Reproducible {
	return &Reproducible{stream: newByteStream(seed, "redsettings", 0)}
}

func (r *Reproducible) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stream.float()
}

func (r *Reproducible) IntN(n int) int {
	if n <= 0 {
		panic("engine: IntN with non-positive n")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	v := int(r.stream.float() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}

// NewRand builds a Rand for mode. Reproducible mode requires a seed.
func NewRand(mode RandMode, seed string) (Rand, error) {
	switch mode {
	case RandEntropy, "":
		return NewEntropy(), nil
	case RandReproducible:
		if seed == "" {
			return nil, fmt.Errorf("engine: reproducible mode needs a seed")
		}
		return NewReproducible(seed), nil
	default:
		return nil, fmt.Errorf("engine: unknown rand mode %q", mode)
	}
}
