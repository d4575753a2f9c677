package fastslam

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// RobotManager is the external collaborator that owns the robot motion
// model and measurement model (§6). The particle filter core only ever
// calls through this interface; it never assumes a concrete sensor model.
type RobotManager interface {
	// ProcessNoise returns the 3x3 process noise covariance Q.
	ProcessNoise() mat.Symmetric

	// MeasNoise returns the 2x2 measurement noise covariance R.
	MeasNoise() mat.Symmetric

	// InverseMeas returns the world-frame landmark position implied by
	// obs taken from pose.
	InverseMeas(pose Pose2D, obs Observation2D) Point2D

	// MeasJacobian returns the Jacobian of the measurement model with
	// respect to landmark position, evaluated around point.
	MeasJacobian(point Point2D) *mat.Dense

	// PerceptualRange returns the maximum distance at which the robot is
	// assumed to observe landmarks; used only by the optional sighting
	// cleanup (§4.3).
	PerceptualRange() float64
}

// SimpleRobotManager is a concrete range-bearing RobotManager: observations
// are (range, bearing) pairs in the robot frame. It is the default
// implementation used by tests and by cmd/fastslam-sim.
type SimpleRobotManager struct {
	processNoise    *mat.SymDense
	measNoise       *mat.SymDense
	perceptualRange float64

	sim *GaussianNoise

	// lastPose caches the pose most recently passed to InverseMeas. The
	// measurement Jacobian of a range-bearing model depends on the robot
	// pose as well as the landmark position, but MeasJacobian's signature
	// (per spec) takes only a point; every call site in this module calls
	// InverseMeas immediately before the matching MeasJacobian call for the
	// same pose, so caching it here is sufficient and avoids a racier
	// design where RobotManager would need per-particle state.
	lastPose Pose2D
}

// NewSimpleRobotManager builds a SimpleRobotManager from process and
// measurement noise covariances, failing fast if their dimensions are wrong
// (gokalman's "check ASAP" constructor style).
func NewSimpleRobotManager(processNoise, measNoise *mat.SymDense, perceptualRange float64) (*SimpleRobotManager, error) {
	if err := checkSquareDims(processNoise, "process noise", 3); err != nil {
		return nil, err
	}
	if err := checkSquareDims(measNoise, "measurement noise", 2); err != nil {
		return nil, err
	}
	return &SimpleRobotManager{
		processNoise:    processNoise,
		measNoise:       measNoise,
		perceptualRange: perceptualRange,
	}, nil
}

// WithSimulationNoise enables noisy synthetic sensing/motion via
// Sense/StepPose, drawing from the manager's own Q and R.
func (r *SimpleRobotManager) WithSimulationNoise(src *rand.Rand) error {
	n, err := NewGaussianNoise(r.processNoise, r.measNoise, src)
	if err != nil {
		return err
	}
	r.sim = n
	return nil
}

// ProcessNoise implements RobotManager.
func (r *SimpleRobotManager) ProcessNoise() mat.Symmetric { return r.processNoise }

// MeasNoise implements RobotManager.
func (r *SimpleRobotManager) MeasNoise() mat.Symmetric { return r.measNoise }

// PerceptualRange implements RobotManager.
func (r *SimpleRobotManager) PerceptualRange() float64 { return r.perceptualRange }

// InverseMeas implements RobotManager for a range-bearing sensor.
func (r *SimpleRobotManager) InverseMeas(pose Pose2D, obs Observation2D) Point2D {
	r.lastPose = pose
	theta := pose.Theta + obs.Bearing
	return Point2D{
		X: pose.X + obs.Range*math.Cos(theta),
		Y: pose.Y + obs.Range*math.Sin(theta),
	}
}

// MeasJacobian implements RobotManager for a range-bearing sensor, using
// the pose most recently seen by InverseMeas.
func (r *SimpleRobotManager) MeasJacobian(point Point2D) *mat.Dense {
	dx := point.X - r.lastPose.X
	dy := point.Y - r.lastPose.Y
	q := dx*dx + dy*dy
	if q == 0 {
		// Degenerate: robot sits exactly on the landmark. Return a
		// singular matrix; callers fall back to an identity covariance.
		return mat.NewDense(2, 2, nil)
	}
	rng := math.Sqrt(q)
	return mat.NewDense(2, 2, []float64{
		dx / rng, dy / rng,
		-dy / q, dx / q,
	})
}

// Sense returns a (possibly noisy, if WithSimulationNoise was called)
// range-bearing observation of landmark from pose. Used by tests and by
// cmd/fastslam-sim to synthesize a sighting stream; not part of the core.
func (r *SimpleRobotManager) Sense(pose Pose2D, landmark Point2D) Observation2D {
	dx := landmark.X - pose.X
	dy := landmark.Y - pose.Y
	rng := math.Hypot(dx, dy)
	bearing := math.Atan2(dy, dx) - pose.Theta
	if r.sim != nil {
		n := r.sim.Measurement()
		rng += n[0]
		bearing += n[1]
	}
	return Observation2D{Range: rng, Bearing: bearing}
}

// StepPose advances pose by a control input (dx, dy, dtheta), optionally
// perturbed by simulated process noise. Used by cmd/fastslam-sim to drive a
// synthetic trajectory; not part of the core.
func (r *SimpleRobotManager) StepPose(pose Pose2D, dx, dy, dtheta float64) Pose2D {
	if r.sim != nil {
		n := r.sim.Process()
		dx += n[0]
		dy += n[1]
		dtheta += n[2]
	}
	return pose.Add(dx, dy, dtheta)
}
