package fastslam

import (
	"log/slog"
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

// ParticleFilter is the FastSLAM ensemble: N particles plus a parallel
// weight vector (§3). Grounded directly on
// original_source/src/FastSLAM/particle-filter.cpp's FastSLAMPF.
type ParticleFilter struct {
	id uuid.UUID

	robot     RobotManager
	particles []*Particle
	weights   []float64

	cfg     Config
	logger  *slog.Logger
	sampler *Sampler
}

// New constructs a particle filter with N particles (per cfg.NumParticles,
// default DefaultNumParticles), each starting at cfg.StartingPose with an
// empty EKF bank and weight 1/N. Functional Options replace the original's
// overloaded constructors.
func New(robot RobotManager, opts ...Option) *ParticleFilter {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = defaultLogger()
	}
	id := uuid.New()
	logger = logger.With("run_id", id.String())

	pf := &ParticleFilter{
		id:      id,
		robot:   robot,
		cfg:     cfg,
		logger:  logger,
		sampler: NewSampler(cfg.RandSource),
	}

	pf.particles = make([]*Particle, cfg.NumParticles)
	pf.weights = make([]float64, cfg.NumParticles)
	w := 1.0 / float64(cfg.NumParticles)
	for i := range pf.particles {
		pf.particles[i] = NewParticle(cfg.ImportanceFactor, cfg.StartingPose, robot, logger)
		pf.weights[i] = w
	}

	logger.Info("constructed particle filter", "particles", cfg.NumParticles)
	return pf
}

// ID returns the filter's run identifier, attached to every log line it
// emits — useful for correlating log output across a run the way a
// long-lived service tags a request.
func (pf *ParticleFilter) ID() uuid.UUID { return pf.id }

// Particles exposes the current particle set for introspection/tests.
func (pf *ParticleFilter) Particles() []*Particle { return pf.particles }

// Weights exposes the current (possibly unnormalised, possibly stale —
// see spec.md §9) weight vector for introspection/tests.
func (pf *ParticleFilter) Weights() []float64 { return pf.weights }

// SamplePose implements §4.5: draws a correlated perturbation from
// N(0, Q) and adds it to mean, where Q is the robot manager's process
// noise. Cholesky factorisation is attempted first; if Q isn't SPD, an
// eigendecomposition fallback is used instead, which always succeeds for
// symmetric Q.
func (pf *ParticleFilter) SamplePose(mean Pose2D) Pose2D {
	q := pf.robot.ProcessNoise()

	var l mat.Matrix
	var chol mat.Cholesky
	if chol.Factorize(q) {
		var lTri mat.TriDense
		chol.LTo(&lTri)
		l = &lTri
	} else {
		pf.logger.Info("process noise covariance not positive definite, falling back to eigendecomposition")
		l = eigenSqrtFactor(q)
	}

	z := mat.NewVecDense(3, []float64{
		pf.sampler.SampleNormal(0, 1),
		pf.sampler.SampleNormal(0, 1),
		pf.sampler.SampleNormal(0, 1),
	})
	var lz mat.VecDense
	lz.MulVec(l, z)

	return Pose2D{
		X:     mean.X + lz.AtVec(0),
		Y:     mean.Y + lz.AtVec(1),
		Theta: mean.Theta + lz.AtVec(2),
	}
}

// eigenSqrtFactor returns V*diag(sqrt(clamp(lambda, 0))) for the
// eigendecomposition Q = V*diag(lambda)*V^T, a deterministic factor L such
// that L*L^T approximates Q even when Q is only near-SPD.
func eigenSqrtFactor(q mat.Symmetric) *mat.Dense {
	var eig mat.EigenSym
	eig.Factorize(q, true)

	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	sqrtVals := make([]float64, len(values))
	for i, v := range values {
		if v < 0 {
			v = 0
		}
		sqrtVals[i] = math.Sqrt(v)
	}
	diag := mat.NewDiagDense(len(values), sqrtVals)

	var l mat.Dense
	l.Mul(&vectors, diag)
	return &l
}

// DrawWithReplacement returns the index j such that cdf[j-1] <= sample <
// cdf[j] (with cdf[-1] == 0), via binary search. Returns -1 if sample is
// outside [0, cdf.back()] or cdf is empty.
func DrawWithReplacement(cdf []float64, sample float64) int {
	if len(cdf) == 0 {
		return -1
	}
	last := cdf[len(cdf)-1]
	if sample < 0 || sample > last {
		return -1
	}

	start, end := 0, len(cdf)-1
	for start != end {
		mid := (start + end) / 2
		if sample >= cdf[mid] {
			start = mid + 1
		} else {
			end = mid
		}
	}
	return start
}

// ReSampleParticles implements §4.6: low-variance-independent resampling
// with replacement. A fresh auxiliary particle set is built and then swapped
// in, so pre- and post-resample sets never alias each other.
func (pf *ParticleFilter) ReSampleParticles() {
	cdf, total := GenCDF(pf.weights)
	aux := make([]*Particle, len(pf.particles))

	for i := range pf.particles {
		u := pf.sampler.SampleUniform(0, total)
		j := DrawWithReplacement(cdf, u)
		if j < 0 {
			// Unreachable when total > 0; keep the original particle.
			aux[i] = pf.particles[i]
			continue
		}
		aux[i] = pf.particles[j].Clone()
	}

	pf.particles = aux
	if pf.cfg.ResetWeightsOnResample {
		w := 1.0 / float64(len(pf.weights))
		for i := range pf.weights {
			pf.weights[i] = w
		}
	}
}

// UpdateFilter implements §4.7: every particle sees each observation in
// the queue, in order, before the queue advances; weight contributions
// accumulate per the configured WeightCombination (Additive by default,
// matching the source). A particle whose update fails leaves its weight
// slot untouched for that observation (spec.md §9's recommended fix) rather
// than folding in the legacy UpdateErrorWeight sentinel.
func (pf *ParticleFilter) UpdateFilter(poseMean Pose2D, observations []Observation2D) {
	queue := observations
	for len(queue) > 0 {
		obs := queue[0]
		queue = queue[1:]

		for i, particle := range pf.particles {
			sampled := pf.SamplePose(poseMean)
			w, err := particle.UpdateParticle(obs, sampled, pf.cfg.SightingCleanup)
			if err != nil {
				pf.logger.Warn("particle update failed, leaving weight unchanged", "particle", i, "err", err)
				continue
			}

			switch pf.cfg.Combination {
			case Multiplicative:
				pf.weights[i] *= w
			case LogAdditive:
				pf.weights[i] += math.Log(w)
			default:
				pf.weights[i] += w
			}
		}
	}

	pf.ReSampleParticles()
}

// SampleLandmarks implements §4.8: draws a single particle from the
// current weight distribution and returns its landmark means.
func (pf *ParticleFilter) SampleLandmarks() []Point2D {
	cdf, total := GenCDF(pf.weights)
	u := pf.sampler.SampleUniform(0, total)
	idx := DrawWithReplacement(cdf, u)
	if idx < 0 {
		idx = 0
	}
	return pf.particles[idx].Landmarks()
}
