package fastslam

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func newTestRobot(t *testing.T, measNoiseDiag float64) *SimpleRobotManager {
	t.Helper()
	q := Identity(3)
	r := mat.NewSymDense(2, []float64{measNoiseDiag, 0, 0, measNoiseDiag})
	robot, err := NewSimpleRobotManager(q, r, 8.0)
	require.NoError(t, err)
	return robot
}

func TestNewSimpleRobotManagerRejectsBadDims(t *testing.T) {
	badQ := mat.NewSymDense(2, nil)
	r := Identity(2)
	_, err := NewSimpleRobotManager(badQ, r, 1)
	assert.Error(t, err)

	q := Identity(3)
	badR := mat.NewSymDense(3, nil)
	_, err = NewSimpleRobotManager(q, badR, 1)
	assert.Error(t, err)
}

func TestInverseMeasRangeBearing(t *testing.T) {
	robot := newTestRobot(t, 0.01)
	pose := Pose2D{X: 0, Y: 0, Theta: 0}
	obs := Observation2D{Range: 5, Bearing: 0}

	got := robot.InverseMeas(pose, obs)
	assert.InDelta(t, 5.0, got.X, 1e-9)
	assert.InDelta(t, 0.0, got.Y, 1e-9)
}

func TestInverseMeasHonoursBearingAndHeading(t *testing.T) {
	robot := newTestRobot(t, 0.01)
	pose := Pose2D{X: 1, Y: 1, Theta: math.Pi / 2}
	obs := Observation2D{Range: 2, Bearing: 0}

	got := robot.InverseMeas(pose, obs)
	assert.InDelta(t, 1.0, got.X, 1e-9)
	assert.InDelta(t, 3.0, got.Y, 1e-9)
}

func TestMeasJacobianSingularAtRobotPosition(t *testing.T) {
	robot := newTestRobot(t, 0.01)
	pose := Pose2D{}
	robot.InverseMeas(pose, Observation2D{}) // caches lastPose
	h := robot.MeasJacobian(Point2D{X: 0, Y: 0})
	assert.Equal(t, 0.0, mat.Det(h))
}

func TestSenseRoundTripsWithoutSimulationNoise(t *testing.T) {
	robot := newTestRobot(t, 0.01)
	pose := Pose2D{X: 0, Y: 0, Theta: 0}
	landmark := Point2D{X: 3, Y: 4}

	obs := robot.Sense(pose, landmark)
	assert.InDelta(t, 5.0, obs.Range, 1e-9)

	back := robot.InverseMeas(pose, obs)
	assert.InDelta(t, landmark.X, back.X, 1e-9)
	assert.InDelta(t, landmark.Y, back.Y, 1e-9)
}
