package simulation

import (
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"
)

// Every trial owns an independent PCG stream whose state depends only on the run seed
// and the trial index. Worker count, batch size and completion order therefore cannot
// change any draw.

const golden = 0x9e3779b97f4a7c15

// SeedFromString hashes a snapshot identifier into the 64-bit run seed.
func SeedFromString(seed string) uint64 {
	return xxhash.Sum64String(seed)
}

func splitmix64(state *uint64) uint64 {
	*state += golden
	z := *state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// trialStream is a reusable generator that is re-seeded for every trial a worker runs.
type trialStream struct {
	base uint64
	pcg  *rand.PCG
	rng  *rand.Rand
}

func newTrialStream(base uint64) *trialStream {
	pcg := rand.NewPCG(0, 0)
	return &trialStream{base: base, pcg: pcg, rng: rand.New(pcg)}
}

// reset positions the stream at the start of the given trial.
func (s *trialStream) reset(trial int) *rand.Rand {
	x := s.base ^ (uint64(trial) * golden)
	hi := splitmix64(&x)
	lo := splitmix64(&x)
	s.pcg.Seed(hi, lo)
	return s.rng
}
