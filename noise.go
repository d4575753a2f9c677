package fastslam

import (
	"errors"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Noise generates additive process/measurement noise samples for
// simulation purposes. It is not part of the core update path — the core
// consumes RobotManager.ProcessNoise()/MeasNoise() directly (§4.3, §4.5) —
// but RobotManager implementations that drive synthetic trajectories (see
// SimpleRobotManager.Sense/StepPose) use it to produce the noisy
// observations and motion the core then has to filter.
type Noise interface {
	Process() []float64
	Measurement() []float64
	ProcessMatrix() mat.Symmetric
	MeasurementMatrix() mat.Symmetric
}

// GaussianNoise draws additive white Gaussian process/measurement noise
// from the covariances Q and R. Grounded on gokalman's AWGN noise model.
type GaussianNoise struct {
	q, r                 *mat.SymDense
	process, measurement *distmv.Normal
}

// NewGaussianNoise builds a GaussianNoise from Q and R, failing if either
// is not positive definite.
func NewGaussianNoise(q, r *mat.SymDense, src *rand.Rand) (*GaussianNoise, error) {
	qSize, _ := q.Dims()
	process, ok := distmv.NewNormal(make([]float64, qSize), q, asExpRandSource(src))
	if !ok {
		return nil, errors.New("fastslam: process noise covariance is not positive definite")
	}
	rSize, _ := r.Dims()
	measurement, ok := distmv.NewNormal(make([]float64, rSize), r, asExpRandSource(src))
	if !ok {
		return nil, errors.New("fastslam: measurement noise covariance is not positive definite")
	}
	return &GaussianNoise{q: q, r: r, process: process, measurement: measurement}, nil
}

// Process draws a process noise sample.
func (n *GaussianNoise) Process() []float64 { return n.process.Rand(nil) }

// Measurement draws a measurement noise sample.
func (n *GaussianNoise) Measurement() []float64 { return n.measurement.Rand(nil) }

// ProcessMatrix returns Q.
func (n *GaussianNoise) ProcessMatrix() mat.Symmetric { return n.q }

// MeasurementMatrix returns R.
func (n *GaussianNoise) MeasurementMatrix() mat.Symmetric { return n.r }
