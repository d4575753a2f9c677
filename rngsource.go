package fastslam

import (
	"math/rand"

	exprand "golang.org/x/exp/rand"
)

// mathRandSource adapts a *math/rand.Rand to the golang.org/x/exp/rand.Source
// interface required by gonum's distuv/distmv types, so callers throughout
// this package can keep using the standard library's *rand.Rand.
type mathRandSource struct {
	r *rand.Rand
}

var _ exprand.Source = mathRandSource{}

func (s mathRandSource) Uint64() uint64 {
	return s.r.Uint64()
}

func (s mathRandSource) Seed(seed uint64) {
	s.r.Seed(int64(seed))
}

// asExpRandSource wraps src for use as a gonum distuv/distmv Src field.
func asExpRandSource(src *rand.Rand) exprand.Source {
	return mathRandSource{r: src}
}
