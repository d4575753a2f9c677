package fastslam

import "errors"

// Error kinds propagated explicitly through return values, mirroring the
// original's PF_RET/KF_RET enums.
var (
	// ErrEmptyRobotManager is returned when a particle or landmark EKF is
	// asked to update without a robot manager configured.
	ErrEmptyRobotManager = errors.New("fastslam: no robot manager configured")

	// ErrMatrixInversion is returned when a landmark EKF update fails to
	// invert its innovation covariance. The EKF's mean and covariance are
	// left exactly as they were before the failed update.
	ErrMatrixInversion = errors.New("fastslam: matrix inversion failed during EKF update")
)

// UpdateErrorWeight is the legacy sentinel weight returned by
// Particle.UpdateParticle when its update fails. It is not a plausible
// importance weight (weights are non-negative); tests that need to check
// for update failure by weight alone compare against it by identity. New
// code should prefer the error return instead — see ParticleFilter.UpdateFilter.
const UpdateErrorWeight float64 = -1
