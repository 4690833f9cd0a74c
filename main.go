package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"relearn/agent/dqn"
	"relearn/agent/pg"
	"relearn/environment"
	"relearn/environment/gridworld"
	"relearn/experiment"
	"relearn/observer"
)

var (
	steps int
	seed  uint64
	out   string
	quiet bool
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "relearn",
		Short: "Train reinforcement learning agents on a gridworld",
	}
	root.PersistentFlags().IntVar(&steps, "steps", 100000,
		"Number of environment steps to train for")
	root.PersistentFlags().Uint64Var(&seed, "seed", 1,
		"Random seed")
	root.PersistentFlags().StringVar(&out, "out", "results",
		"Directory to save training statistics in")
	root.PersistentFlags().BoolVar(&quiet, "quiet", false,
		"Disable per-update diagnostics")

	root.AddCommand(pgCommand())
	root.AddCommand(dqnCommand())
	return root
}

func pgCommand() *cobra.Command {
	config := pg.Config{}

	cmd := &cobra.Command{
		Use:   "pg",
		Short: "Train a policy gradient agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := defaultGridWorld()
			if err != nil {
				return err
			}
			tracking, err := observer.NewTracking(out, 20)
			if err != nil {
				return err
			}

			var verbose io.Writer
			if !quiet {
				verbose = os.Stdout
			}
			agent, err := pg.New(env, config, seed, tracking, verbose)
			if err != nil {
				return err
			}
			if err := run(env, agent); err != nil {
				return err
			}
			return tracking.Save()
		},
	}
	cmd.Flags().Float64Var(&config.Discount, "discount", 0.99,
		"Discount factor on future rewards")
	cmd.Flags().IntVar(&config.BatchSize, "batch-size", 10,
		"Number of episodes per policy update")
	cmd.Flags().Float64Var(&config.LearningRate, "lr", 1e-3,
		"Adam learning rate")
	cmd.Flags().Float64Var(&config.LRDecay, "lr-decay", 1.0,
		"Learning rate decay factor")
	cmd.Flags().IntVar(&config.DecaySteps, "decay-steps", 0,
		"Updates between learning rate decays (0 to disable)")
	cmd.Flags().Float64Var(&config.Reg, "reg", 0,
		"L2 weight decay strength")
	cmd.Flags().Float64Var(&config.EReg, "ereg", 0.01,
		"Entropy regularization strength")
	cmd.Flags().Float64Var(&config.ClipGrad, "clip", 0,
		"Maximum gradient norm (0 to disable clipping)")
	cmd.Flags().IntSliceVar(&config.HiddenSizes, "hidden",
		[]int{64, 64}, "Hidden layer sizes of the policy network")
	return cmd
}

func dqnCommand() *cobra.Command {
	config := dqn.Config{}

	cmd := &cobra.Command{
		Use:   "dqn",
		Short: "Train a deep Q-learning agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := defaultGridWorld()
			if err != nil {
				return err
			}
			tracking, err := observer.NewTracking(out, 20)
			if err != nil {
				return err
			}

			agent, err := dqn.New(env, config, seed, tracking)
			if err != nil {
				return err
			}
			if err := run(env, agent); err != nil {
				return err
			}
			return tracking.Save()
		},
	}
	cmd.Flags().IntVar(&config.MinExperiences, "min-experiences", 1000,
		"Stored transitions before learning starts")
	cmd.Flags().IntVar(&config.QUpdateEvery, "update-every", 4,
		"New experiences between action value updates")
	cmd.Flags().IntVar(&config.BatchSize, "batch-size", 32,
		"Minibatch size for sampled updates")
	cmd.Flags().IntVar(&config.BufferSize, "buffer-size", 100000,
		"Replay buffer capacity")
	cmd.Flags().Float64Var(&config.Discount, "discount", 0.99,
		"Discount factor on future rewards")
	cmd.Flags().Float64Var(&config.LearningRate, "lr", 1e-3,
		"Adam learning rate")
	cmd.Flags().Float64Var(&config.Epsilon, "epsilon", 1.0,
		"Initial exploration rate")
	cmd.Flags().IntSliceVar(&config.HiddenSizes, "hidden",
		[]int{64, 64}, "Hidden layer sizes of the value network")
	return cmd
}

// run trains agent in env. Per-update diagnostics and the progress
// bar clobber each other on a terminal, so the bar is drawn only when
// --quiet silences the diagnostics.
func run(env environment.Environment, agent experiment.Agent) error {
	var progress io.Writer
	if quiet {
		progress = os.Stderr
	}
	online, err := experiment.NewOnline(env, agent, steps, progress)
	if err != nil {
		return err
	}
	return online.Run()
}

// defaultGridWorld returns a 10x10 gridworld with a small wall in the
// middle, a step limit of 200, and a reward of 1 for reaching the
// goal in the opposite corner from the start.
func defaultGridWorld() (environment.Environment, error) {
	walls := [][2]int{
		{4, 3}, {4, 4}, {4, 5}, {4, 6},
		{5, 6}, {6, 6},
	}
	return gridworld.New(10, 10, walls, [2]int{0, 0}, [2]int{9, 9}, 200,
		-0.01, 1.0)
}
