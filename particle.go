package fastslam

import "log/slog"

// ekfEntry pairs a landmark EKF with its existence counter (§3).
type ekfEntry struct {
	ekf   LandmarkEKF
	count int
}

// Particle is one FastSLAM hypothesis: a sampled robot pose plus an
// ordered bank of landmark EKFs (§3). Updates only append to the bank;
// entries are removed only by CleanupSightings. Grounded directly on
// original_source/src/FastSLAM/particles.cpp's FastSLAMParticles.
type Particle struct {
	w0   float64 // importance factor: minimum CPD to associate with an existing landmark
	pose Pose2D
	bank []ekfEntry

	dataLabel int     // index into bank, or len(bank) meaning "new landmark"
	wMax      float64 // winning correspondence from the last MatchLandmark call

	robot  RobotManager
	logger *slog.Logger
}

// NewParticle constructs a particle at pose with an empty EKF bank.
func NewParticle(w0 float64, pose Pose2D, robot RobotManager, logger *slog.Logger) *Particle {
	if logger == nil {
		logger = defaultLogger()
	}
	return &Particle{w0: w0, pose: pose, robot: robot, logger: logger, wMax: w0}
}

// Clone returns an independent deep copy: every (LandmarkEKF, count) pair in
// the bank is duplicated, so mutating the clone's bank never affects the
// original. This implements spec.md §9's first open-question resolution —
// the original C++ copy constructor iterates its own (still empty)
// destination bank and copies nothing, which is the bug that resolution
// corrects.
func (p *Particle) Clone() *Particle {
	bankCopy := make([]ekfEntry, len(p.bank))
	for i, e := range p.bank {
		bankCopy[i] = ekfEntry{ekf: e.ekf.Clone(), count: e.count}
	}
	return &Particle{
		w0:        p.w0,
		pose:      p.pose,
		bank:      bankCopy,
		dataLabel: p.dataLabel,
		wMax:      p.wMax,
		robot:     p.robot,
		logger:    p.logger,
	}
}

// UpdatePose sets the particle's sampled pose.
func (p *Particle) UpdatePose(pose Pose2D) {
	p.pose = pose
}

// Pose returns the particle's current sampled pose.
func (p *Particle) Pose() Pose2D { return p.pose }

// MatchLandmark implements the data-association step of §4.2: it feeds obs
// to every EKF in the bank in index order and returns the index of the
// highest-scoring EKF whose correspondence density exceeds w0, or
// len(bank) if none clears that bar (meaning "propose a new landmark").
// Ties are broken by lowest index, since only a strict improvement moves
// landmarkID off its current candidate.
func (p *Particle) MatchLandmark(obs Observation2D) int {
	landmarkID := len(p.bank)
	wMax := p.w0

	for k := range p.bank {
		entry := &p.bank[k]
		entry.ekf.UpdateObservation(p.pose, obs)
		wk := entry.ekf.CalcCPD()
		if wk > wMax {
			landmarkID = k
			wMax = wk
		}
	}

	p.dataLabel = landmarkID
	p.wMax = wMax
	return landmarkID
}

// UpdateLMBelief implements §4.3: it either instantiates a new landmark EKF
// (when the last MatchLandmark call proposed a new landmark) or runs a
// Kalman update against the matched EKF.
func (p *Particle) UpdateLMBelief(obs Observation2D) error {
	if p.robot == nil {
		p.logger.Warn("particle update attempted without a robot manager")
		return ErrEmptyRobotManager
	}

	if p.dataLabel == len(p.bank) {
		mean := p.robot.InverseMeas(p.pose, obs)
		h := p.robot.MeasJacobian(mean)
		covar := covarianceFromJacobian(h, p.robot.MeasNoise(), p.logger)
		ekf := NewEKF2D(mean, covar, p.robot, p.logger)
		p.bank = append(p.bank, ekfEntry{ekf: ekf, count: 1})
		return nil
	}

	entry := &p.bank[p.dataLabel]
	entry.ekf.UpdateObservation(p.pose, obs)
	if err := entry.ekf.Update(); err != nil {
		return err
	}
	entry.count++
	return nil
}

// CleanupSightings implements the optional sighting-cleanup heuristic of
// §4.3: every EKF other than the one just updated, whose mean lies within
// the robot's perceptual range, is treated as a landmark that should have
// been re-observed but wasn't, and its existence counter is decremented.
// Counters reaching zero are pruned — spec.md §9's second open-question
// resolution; the original's #ifdef LM_CLEANUP branch never pruned.
func (p *Particle) CleanupSightings() {
	kept := p.bank[:0]
	for i, entry := range p.bank {
		if i != p.dataLabel && FindDist(entry.ekf.LMEst(), p.pose) <= p.robot.PerceptualRange() {
			entry.count--
		}
		if entry.count > 0 {
			kept = append(kept, entry)
		}
	}
	p.bank = kept
}

// UpdateParticle implements §4.4: it updates the particle's pose, runs
// association and belief update against obs, and returns the particle's
// importance weight contribution for this observation. On failure it
// returns UpdateErrorWeight alongside the error; callers that want
// spec.md §9's recommended fix (leave the weight untouched on error rather
// than accumulating the sentinel) should check the error, not the weight.
func (p *Particle) UpdateParticle(obs Observation2D, pose Pose2D, cleanup bool) (float64, error) {
	p.UpdatePose(pose)

	landmarkID := p.MatchLandmark(obs)
	isNew := landmarkID == len(p.bank)

	if err := p.UpdateLMBelief(obs); err != nil {
		return UpdateErrorWeight, err
	}

	if cleanup {
		p.CleanupSightings()
	}

	if isNew {
		return p.w0, nil
	}
	return p.wMax, nil
}

// BankSize returns the number of landmark EKFs currently tracked.
func (p *Particle) BankSize() int { return len(p.bank) }

// ExistenceCount returns the existence counter of the i-th landmark EKF.
func (p *Particle) ExistenceCount(i int) int { return p.bank[i].count }

// DataLabel returns the index (or len(bank)) chosen by the last
// MatchLandmark call.
func (p *Particle) DataLabel() int { return p.dataLabel }

// MaxCorrespondence returns the winning correspondence score from the last
// MatchLandmark call.
func (p *Particle) MaxCorrespondence() float64 { return p.wMax }

// Landmarks returns the current mean of every landmark EKF in the bank, in
// bank order.
func (p *Particle) Landmarks() []Point2D {
	out := make([]Point2D, len(p.bank))
	for i, e := range p.bank {
		out[i] = e.ekf.LMEst()
	}
	return out
}
