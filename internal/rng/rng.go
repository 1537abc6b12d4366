// Package rng provides the seeded random source shared by a sampler and
// the system it drives. The generator state serializes exactly, so a
// resumed run continues the same stream bit for bit.
package rng

import (
	"encoding/base64"
	"encoding/json"
	"math/rand/v2"
)

// Source is a PCG generator whose state can be captured and restored.
// The zero value is not usable; call New.
type Source struct {
	pcg *rand.PCG
	*rand.Rand
}

// splitmix64 expands a seed into well-mixed 64-bit words.
func splitmix64(state *uint64) uint64 {
	*state += 0x9e3779b97f4a7c15
	z := *state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// New returns a generator deterministically seeded from seed.
func New(seed uint64) *Source {
	st := seed
	pcg := rand.NewPCG(splitmix64(&st), splitmix64(&st))
	return &Source{pcg: pcg, Rand: rand.New(pcg)}
}

// Snapshot returns the serialized generator state.
func (s *Source) Snapshot() ([]byte, error) {
	return s.pcg.MarshalBinary()
}

// Restore replaces the generator state with a previous snapshot.
func (s *Source) Restore(data []byte) error {
	return s.pcg.UnmarshalBinary(data)
}

// MarshalJSON encodes the generator state as base64 text so it can be
// embedded in checkpoint files.
func (s *Source) MarshalJSON() ([]byte, error) {
	b, err := s.pcg.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return json.Marshal(base64.StdEncoding.EncodeToString(b))
}

// UnmarshalJSON restores the generator state from its base64 form.
func (s *Source) UnmarshalJSON(data []byte) error {
	var enc string
	if err := json.Unmarshal(data, &enc); err != nil {
		return err
	}
	b, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return err
	}
	if s.pcg == nil {
		s.pcg = rand.NewPCG(0, 0)
		s.Rand = rand.New(s.pcg)
	}
	return s.pcg.UnmarshalBinary(b)
}
