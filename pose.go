package fastslam

// Pose2D is a planar robot pose with heading in radians.
type Pose2D struct {
	X, Y, Theta float64
}

// Add perturbs the pose componentwise by (dx, dy, dtheta). Callers are
// responsible for wrapping Theta into any particular range; the core never
// assumes it has been normalised.
func (p Pose2D) Add(dx, dy, dtheta float64) Pose2D {
	return Pose2D{X: p.X + dx, Y: p.Y + dy, Theta: p.Theta + dtheta}
}

// Point2D is a planar position, used for landmark means and proposed means.
type Point2D struct {
	X, Y float64
}

// Observation2D is a landmark sighting in the robot's local frame. Its
// fields are opaque to the particle filter core; only RobotManager and
// LandmarkEKF implementations interpret them.
type Observation2D struct {
	Range   float64
	Bearing float64
}
