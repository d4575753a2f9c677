package fastslam

import (
	"log/slog"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// cpdRandSource backs the distmv.Normal used to evaluate a correspondence
// probability density. CalcCPD never draws from it (distmv.Normal.Prob
// doesn't consume its source), so a fixed seed here is cosmetic; it is
// handed to distmv.NewNormal through asExpRandSource.
var cpdRandSource = rand.New(rand.NewSource(1))

// LandmarkEKF tracks one landmark's mean and covariance. It is the external
// collaborator described in spec.md §3/§6; EKF2D is this module's concrete
// implementation of it.
type LandmarkEKF interface {
	// UpdateObservation buffers obs, taken from pose, for use by the next
	// Update or CalcCPD call.
	UpdateObservation(pose Pose2D, obs Observation2D)

	// Update performs the Kalman correction against the buffered
	// observation. Returns ErrEmptyRobotManager or ErrMatrixInversion on
	// failure, leaving the EKF's mean/covariance untouched.
	Update() error

	// CalcCPD returns the correspondence probability density of the
	// buffered observation under the current landmark estimate.
	CalcCPD() float64

	// LMEst returns the current landmark mean.
	LMEst() Point2D

	// Clone returns an independent deep copy.
	Clone() LandmarkEKF
}

// EKF2D is a 2D extended Kalman filter tracking a single landmark's mean
// and covariance. Its Kalman-gain algebra is grounded on gokalman's
// Extended filter (extended.go), specialised to a fixed 2-dimensional
// landmark state and to the inverse-sensor-model formulation spec.md §4.3
// uses for both initialising and updating a landmark.
type EKF2D struct {
	mean  Point2D
	covar *mat.SymDense

	pose   Pose2D
	obs    Observation2D
	hasObs bool

	robot  RobotManager
	logger *slog.Logger
}

// NewEKF2D constructs a landmark EKF with the given mean and covariance.
func NewEKF2D(mean Point2D, covar *mat.SymDense, robot RobotManager, logger *slog.Logger) *EKF2D {
	if logger == nil {
		logger = defaultLogger()
	}
	return &EKF2D{mean: mean, covar: covar, robot: robot, logger: logger}
}

// UpdateObservation implements LandmarkEKF.
func (e *EKF2D) UpdateObservation(pose Pose2D, obs Observation2D) {
	e.pose = pose
	e.obs = obs
	e.hasObs = true
}

// LMEst implements LandmarkEKF.
func (e *EKF2D) LMEst() Point2D { return e.mean }

// Clone implements LandmarkEKF, deep-copying the covariance matrix.
func (e *EKF2D) Clone() LandmarkEKF {
	covarCopy := mat.NewSymDense(2, nil)
	covarCopy.CopySym(e.covar)
	return &EKF2D{
		mean:   e.mean,
		covar:  covarCopy,
		pose:   e.pose,
		obs:    e.obs,
		hasObs: e.hasObs,
		robot:  e.robot,
		logger: e.logger,
	}
}

// observedPointCovar converts the buffered (pose, obs) pair into an
// equivalent Cartesian observation of the landmark and its covariance,
// via the H^-1 R H^-T transform spec.md §4.3 uses to seed a new landmark's
// covariance. Reusing the same transform for the existing-landmark update
// keeps both paths consistent: a landmark's belief is always updated as if
// it had been observed directly in Cartesian space.
func (e *EKF2D) observedPointCovar() (*mat.VecDense, *mat.SymDense, bool) {
	if e.robot == nil {
		return nil, nil, false
	}
	zPoint := e.robot.InverseMeas(e.pose, e.obs)
	H := e.robot.MeasJacobian(e.mean)
	rPoint := covarianceFromJacobian(H, e.robot.MeasNoise(), e.logger)
	z := mat.NewVecDense(2, []float64{zPoint.X, zPoint.Y})
	return z, rPoint, true
}

// CalcCPD implements LandmarkEKF.
func (e *EKF2D) CalcCPD() float64 {
	if !e.hasObs {
		return 0
	}
	z, rPoint, ok := e.observedPointCovar()
	if !ok {
		return 0
	}
	var s mat.Dense
	s.Add(e.covar, rPoint)
	sSym, err := AsSymDense(&s)
	if err != nil {
		return 0
	}
	normal, ok := distmv.NewNormal([]float64{e.mean.X, e.mean.Y}, sSym, asExpRandSource(cpdRandSource))
	if !ok {
		return 0
	}
	return normal.Prob(z.RawVector().Data)
}

// Update implements LandmarkEKF.
func (e *EKF2D) Update() error {
	if e.robot == nil {
		e.logger.Warn("landmark EKF update attempted without a robot manager")
		return ErrEmptyRobotManager
	}
	if !e.hasObs {
		return nil
	}

	z, rPoint, _ := e.observedPointCovar()

	var s mat.Dense
	s.Add(e.covar, rPoint)

	var sInv mat.Dense
	if err := sInv.Inverse(&s); err != nil {
		e.logger.Warn("landmark EKF failed to invert innovation covariance", "err", err)
		return ErrMatrixInversion
	}

	var k mat.Dense
	k.Mul(e.covar, &sInv)

	meanVec := mat.NewVecDense(2, []float64{e.mean.X, e.mean.Y})
	var innov mat.VecDense
	innov.SubVec(z, meanVec)

	var correction mat.VecDense
	correction.MulVec(&k, &innov)
	newMean := Point2D{X: e.mean.X + correction.AtVec(0), Y: e.mean.Y + correction.AtVec(1)}

	var iMinusK, newCovar mat.Dense
	iMinusK.Sub(Identity(2), &k)
	newCovar.Mul(&iMinusK, e.covar)
	newCovarSym, err := AsSymDense(&newCovar)
	if err != nil {
		e.logger.Warn("landmark EKF update produced a non-symmetric covariance", "err", err)
		return ErrMatrixInversion
	}

	e.mean = newMean
	e.covar = newCovarSym
	return nil
}

// covarianceFromJacobian transforms measurement noise R into an equivalent
// Cartesian covariance via H^-1 R H^-T (spec.md §4.3 step 3). A singular or
// otherwise non-invertible Jacobian falls back to an identity covariance —
// the landmark is still usable, just with an uninformative prior.
func covarianceFromJacobian(h *mat.Dense, r mat.Symmetric, logger *slog.Logger) *mat.SymDense {
	if mat.Det(h) == 0 {
		logger.Info("singular measurement jacobian, falling back to identity covariance")
		return Identity(2)
	}
	var hInv mat.Dense
	if err := hInv.Inverse(h); err != nil {
		logger.Info("could not invert measurement jacobian, falling back to identity covariance", "err", err)
		return Identity(2)
	}
	var tmp, cov mat.Dense
	tmp.Mul(&hInv, r)
	cov.Mul(&tmp, hInv.T())
	covSym, err := AsSymDense(&cov)
	if err != nil {
		logger.Info("jacobian-transformed covariance was not symmetric, falling back to identity")
		return Identity(2)
	}
	return covSym
}
