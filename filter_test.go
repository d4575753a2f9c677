package fastslam

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func TestNewBuildsDefaultParticleSet(t *testing.T) {
	robot := newTestRobot(t, 0.01)
	pf := New(robot)

	assert.Len(t, pf.Particles(), DefaultNumParticles)
	assert.Len(t, pf.Weights(), DefaultNumParticles)
	for _, w := range pf.Weights() {
		assert.InDelta(t, 1.0/float64(DefaultNumParticles), w, 1e-12)
	}
	assert.NotEqual(t, pf.ID().String(), "")
}

func TestNewHonoursOptions(t *testing.T) {
	robot := newTestRobot(t, 0.01)
	pf := New(robot, WithNumParticles(5), WithImportanceFactor(0.2), WithStartingPose(Pose2D{X: 1, Y: 2}))

	require.Len(t, pf.Particles(), 5)
	for _, p := range pf.Particles() {
		assert.Equal(t, Pose2D{X: 1, Y: 2}, p.Pose())
		assert.Equal(t, 0.2, p.w0)
	}
}

func TestDrawWithReplacementEdgeCases(t *testing.T) {
	assert.Equal(t, -1, DrawWithReplacement(nil, 0))

	single := []float64{1.0}
	assert.Equal(t, 0, DrawWithReplacement(single, 0))
	assert.Equal(t, 0, DrawWithReplacement(single, 1))
	assert.Equal(t, -1, DrawWithReplacement(single, 1.5))
	assert.Equal(t, -1, DrawWithReplacement(single, -0.1))

	cdf := []float64{1, 3, 6}
	assert.Equal(t, 0, DrawWithReplacement(cdf, 0))
	assert.Equal(t, 1, DrawWithReplacement(cdf, 1))
	assert.Equal(t, 1, DrawWithReplacement(cdf, 1.5))
	assert.Equal(t, 2, DrawWithReplacement(cdf, 3))
	assert.Equal(t, 2, DrawWithReplacement(cdf, 4))
	assert.Equal(t, 2, DrawWithReplacement(cdf, 6))
}

func TestSamplePoseZeroNoiseReturnsMean(t *testing.T) {
	robot, err := NewSimpleRobotManager(mat.NewSymDense(3, nil), Identity(2), 8.0)
	require.NoError(t, err)

	pf := New(robot, WithRandSource(rand.New(rand.NewSource(1))))
	mean := Pose2D{X: 2, Y: 3, Theta: 0.5}

	got := pf.SamplePose(mean)
	assert.Equal(t, mean, got)
}

// S4: resampling a sharply bimodal weight ensemble collapses it onto the
// heavily-weighted particle.
func TestScenarioS4ResamplingCollapsesBimodalEnsemble(t *testing.T) {
	robot := newTestRobot(t, 0.01)
	pf := New(robot, WithNumParticles(20), WithRandSource(rand.New(rand.NewSource(7))))

	// Tag each particle with a unique, observable landmark mean by running
	// one UpdateParticle call at a distinct pose, then hand-skew the
	// weights so only particle 0 has any real mass.
	for i, p := range pf.Particles() {
		_, err := p.UpdateParticle(Observation2D{Range: 0, Bearing: 0}, Pose2D{X: float64(i)}, false)
		require.NoError(t, err)
		pf.weights[i] = 1e-9
	}
	pf.weights[0] = 1.0

	pf.ReSampleParticles()

	xs := make([]float64, len(pf.Particles()))
	for i, p := range pf.Particles() {
		lm := p.Landmarks()
		require.Len(t, lm, 1)
		xs[i] = lm[0].X
	}

	variance := stat.Variance(xs, nil)
	assert.InDelta(t, 0.0, variance, 1e-6, "resampling should collapse onto the dominant particle's landmark")
	assert.InDelta(t, 0.0, xs[0], 1e-6)
}

// S5: SamplePose must still produce a finite pose when the process noise
// covariance is only positive semi-definite (a zero eigenvalue forces the
// Cholesky fallback onto eigendecomposition).
func TestScenarioS5SamplePoseChoIeskyFallbackOnSemiDefiniteNoise(t *testing.T) {
	q := mat.NewSymDense(3, []float64{
		1, 0, 0,
		0, 0, 0,
		0, 0, 1,
	})
	robot, err := NewSimpleRobotManager(q, Identity(2), 8.0)
	require.NoError(t, err)

	pf := New(robot, WithRandSource(rand.New(rand.NewSource(3))))
	got := pf.SamplePose(Pose2D{X: 1, Y: 1, Theta: 1})

	assert.Equal(t, 1.0, got.Y, "the zero-variance axis must not perturb the mean")
	assert.False(t, isNaNOrInf(got.X))
	assert.False(t, isNaNOrInf(got.Theta))
}

func isNaNOrInf(v float64) bool {
	return v != v || v > 1e300 || v < -1e300
}

func TestUpdateFilterAccumulatesAdditiveWeightsAndResamples(t *testing.T) {
	robot := newTestRobot(t, 0.001)
	pf := New(robot, WithNumParticles(10), WithRandSource(rand.New(rand.NewSource(11))))

	before := append([]float64{}, pf.Weights()...)
	pf.UpdateFilter(Pose2D{}, []Observation2D{{Range: 5, Bearing: 0}})

	assert.Len(t, pf.Particles(), 10)
	assert.Len(t, pf.Weights(), 10)
	assert.NotEqual(t, before, pf.Weights())

	for _, p := range pf.Particles() {
		assert.Equal(t, 1, p.BankSize())
	}
}

func TestUpdateFilterLeavesWeightUnchangedOnParticleError(t *testing.T) {
	robot := newTestRobot(t, 0.01)
	pf := New(robot, WithNumParticles(1), WithRandSource(rand.New(rand.NewSource(1))))
	pf.particles[0].robot = nil // force UpdateLMBelief to fail

	before := pf.weights[0]
	pf.UpdateFilter(Pose2D{}, []Observation2D{{Range: 5, Bearing: 0}})

	assert.Equal(t, before, pf.weights[0])
}

func TestSampleLandmarksReturnsAParticlesBank(t *testing.T) {
	robot := newTestRobot(t, 0.01)
	pf := New(robot, WithNumParticles(3), WithRandSource(rand.New(rand.NewSource(5))))

	for _, p := range pf.Particles() {
		_, err := p.UpdateParticle(Observation2D{Range: 5, Bearing: 0}, Pose2D{}, false)
		require.NoError(t, err)
	}

	lm := pf.SampleLandmarks()
	require.Len(t, lm, 1)
}

func TestReSampleParticlesNeverAliasesPreResampleSet(t *testing.T) {
	robot := newTestRobot(t, 0.01)
	pf := New(robot, WithNumParticles(4), WithRandSource(rand.New(rand.NewSource(2))))

	pre := append([]*Particle{}, pf.Particles()...)
	pf.ReSampleParticles()

	for _, post := range pf.Particles() {
		for _, old := range pre {
			assert.NotSame(t, old, post)
		}
	}
}
