package fastslam

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler draws the scalar random variates the filter needs from a single,
// explicitly seeded source. Tests construct a Sampler around a
// deterministic *rand.Rand so that draws are reproducible.
type Sampler struct {
	Src *rand.Rand
}

// NewSampler wraps src. A nil src falls back to a fixed-seed generator so
// callers that don't care about reproducibility still get one.
func NewSampler(src *rand.Rand) *Sampler {
	if src == nil {
		src = rand.New(rand.NewSource(1))
	}
	return &Sampler{Src: src}
}

// SampleNormal draws from N(mu, sigma^2).
func (s *Sampler) SampleNormal(mu, sigma float64) float64 {
	d := distuv.Normal{Mu: mu, Sigma: sigma, Src: asExpRandSource(s.Src)}
	return d.Rand()
}

// SampleUniform draws from U[a, b).
func (s *Sampler) SampleUniform(a, b float64) float64 {
	if a == b {
		return a
	}
	d := distuv.Uniform{Min: a, Max: b, Src: asExpRandSource(s.Src)}
	return d.Rand()
}

// GenCDF builds a non-decreasing cumulative sum of weights and returns the
// running total alongside it. An empty input yields an empty CDF and a
// total of zero.
func GenCDF(weights []float64) (cdf []float64, total float64) {
	cdf = make([]float64, len(weights))
	for i, w := range weights {
		total += w
		cdf[i] = total
	}
	return cdf, total
}

// FindDist returns the Euclidean distance from p to the (X, Y) of pose.
func FindDist(p Point2D, pose Pose2D) float64 {
	return math.Hypot(p.X-pose.X, p.Y-pose.Y)
}
