package gacha

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// Sampler yields uniform samples in [0, 1). Draw resolution consumes samples
// in a fixed order, so a seeded sampler reproduces an exact outcome sequence.
type Sampler interface {
	Float64() float64
}

// cryptoSampler reads from crypto/rand so outcomes cannot be predicted or
// replayed from anything visible in a request.
type cryptoSampler struct{}

func (cryptoSampler) Float64() float64 {
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		// crypto/rand never fails on supported platforms; fall back rather
		// than panic mid-draw.
		return rand.Float64()
	}
	u := binary.BigEndian.Uint64(buf[:]) >> 11 // 53 bits
	return float64(u) / (1 << 53)
}

// CryptoSampler returns the production sampler.
func CryptoSampler() Sampler { return cryptoSampler{} }

type seededSampler struct{ r *rand.Rand }

// SeededSampler returns a deterministic sampler for tests and simulations.
func SeededSampler(seed uint64) Sampler {
	return &seededSampler{r: rand.New(rand.NewPCG(seed, 0))}
}

func (s *seededSampler) Float64() float64 { return s.r.Float64() }
