// Command fastslam-sim drives a FastSLAM particle filter through a
// synthetic circular trajectory with simulated landmark sightings, and
// prints the filter's landmark sample after each step. It is a thin driver
// grounded on jhoydich-particle-filter/example/simpleExample.go, rebuilt on
// cobra the way machbase-neo-server's CLI is structured — it is not part of
// the particle filter core and owns no persistence or visualisation.
package main

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	fastslam "github.com/Benned-H/FastSLAM"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		numParticles int
		steps        int
		seed         int64
		processNoise float64
		measNoise    float64
		radius       float64
	)

	cmd := &cobra.Command{
		Use:   "fastslam-sim",
		Short: "Run a synthetic FastSLAM particle filter simulation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(simOptions{
				numParticles: numParticles,
				steps:        steps,
				seed:         seed,
				processNoise: processNoise,
				measNoise:    measNoise,
				radius:       radius,
			})
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&numParticles, "particles", fastslam.DefaultNumParticles, "number of particles")
	flags.IntVar(&steps, "steps", 20, "number of simulation steps")
	flags.Int64Var(&seed, "seed", 1, "random seed")
	flags.Float64Var(&processNoise, "process-noise", 0.01, "process noise scale (applied to Q's diagonal)")
	flags.Float64Var(&measNoise, "meas-noise", 0.05, "measurement noise scale (applied to R's diagonal)")
	flags.Float64Var(&radius, "radius", 5, "radius of the synthetic circular trajectory")

	return cmd
}

type simOptions struct {
	numParticles int
	steps        int
	seed         int64
	processNoise float64
	measNoise    float64
	radius       float64
}

func runSimulation(opt simOptions) error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	src := rand.New(rand.NewSource(opt.seed))

	q := mat.NewSymDense(3, []float64{
		opt.processNoise, 0, 0,
		0, opt.processNoise, 0,
		0, 0, opt.processNoise,
	})
	r := mat.NewSymDense(2, []float64{
		opt.measNoise, 0,
		0, opt.measNoise,
	})

	robot, err := fastslam.NewSimpleRobotManager(q, r, 8.0)
	if err != nil {
		return err
	}
	if err := robot.WithSimulationNoise(src); err != nil {
		return err
	}

	landmarks := []fastslam.Point2D{
		{X: opt.radius + 1, Y: 0},
		{X: 0, Y: opt.radius + 1},
		{X: -(opt.radius + 1), Y: 0},
	}

	pf := fastslam.New(robot,
		fastslam.WithNumParticles(opt.numParticles),
		fastslam.WithStartingPose(fastslam.Pose2D{}),
		fastslam.WithImportanceFactor(fastslam.DefaultImportanceFactor),
		fastslam.WithRandSource(src),
		fastslam.WithLogger(logger),
	)

	truePose := fastslam.Pose2D{X: opt.radius, Y: 0, Theta: math.Pi / 2}
	dtheta := 2 * math.Pi / float64(opt.steps)

	for step := 0; step < opt.steps; step++ {
		truePose = robot.StepPose(truePose, 0, 0, dtheta)
		truePose.X = opt.radius * math.Cos(truePose.Theta)
		truePose.Y = opt.radius * math.Sin(truePose.Theta)

		observations := make([]fastslam.Observation2D, 0, len(landmarks))
		for _, lm := range landmarks {
			observations = append(observations, robot.Sense(truePose, lm))
		}

		pf.UpdateFilter(truePose, observations)

		sample := pf.SampleLandmarks()
		logger.Info("step complete",
			"step", step,
			"true_x", truePose.X,
			"true_y", truePose.Y,
			"sampled_landmarks", len(sample),
			"landmarks", sample,
		)
	}

	return nil
}
