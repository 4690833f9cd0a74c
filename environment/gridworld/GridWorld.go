// Package gridworld implements a 2D gridworld environment with walls.
//
// The gridworld is deliberately small: it exists so that agents can be
// trained and tested end-to-end without an external simulator. Cells
// blocked by walls make the legal-action set state-dependent, which
// exercises the illegal-action masking of policies.
package gridworld

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"relearn/timestep"
)

// Action indices for the four cardinal moves
const (
	Left = iota
	Right
	Up
	Down

	numActions
)

// GridWorld represents a gridworld environment. The observable state
// is a one-hot vector over cells with a 1.0 at the agent's position.
type GridWorld struct {
	rows, cols int
	walls      map[int]bool
	start      int
	goal       int

	position  int
	stepLimit int
	current   timestep.TimeStep

	stepReward float64
	goalReward float64
}

// New creates a new gridworld with the given dimensions, wall cells,
// start and goal coordinates, and a per-episode step limit. The
// per-step reward is stepReward and reaching the goal yields
// goalReward.
func New(rows, cols int, walls [][2]int, start, goal [2]int, stepLimit int,
	stepReward, goalReward float64) (*GridWorld, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("gridworld: illegal dimensions (%v, %v)", rows,
			cols)
	}
	if stepLimit < 1 {
		return nil, fmt.Errorf("gridworld: step limit must be positive")
	}

	wallSet := make(map[int]bool, len(walls))
	for _, w := range walls {
		ind, err := index(w[0], w[1], rows, cols)
		if err != nil {
			return nil, fmt.Errorf("gridworld: wall %v: %v", w, err)
		}
		wallSet[ind] = true
	}

	startInd, err := index(start[0], start[1], rows, cols)
	if err != nil {
		return nil, fmt.Errorf("gridworld: start: %v", err)
	}
	goalInd, err := index(goal[0], goal[1], rows, cols)
	if err != nil {
		return nil, fmt.Errorf("gridworld: goal: %v", err)
	}
	if wallSet[startInd] || wallSet[goalInd] {
		return nil, fmt.Errorf("gridworld: start or goal inside a wall")
	}

	g := &GridWorld{
		rows:       rows,
		cols:       cols,
		walls:      wallSet,
		start:      startInd,
		goal:       goalInd,
		stepLimit:  stepLimit,
		stepReward: stepReward,
		goalReward: goalReward,
	}
	g.Reset()
	return g, nil
}

// Reset resets the environment to the starting position and returns
// the first timestep of a new episode.
func (g *GridWorld) Reset() timestep.TimeStep {
	g.position = g.start
	g.current = timestep.New(g.observation(), 0, false, 0)
	return g.current
}

// Actions returns the indices of the moves that do not leave the grid
// or run into a wall at the current position.
func (g *GridWorld) Actions() []int {
	legal := make([]int, 0, numActions)
	for a := 0; a < numActions; a++ {
		if _, ok := g.destination(a); ok {
			legal = append(legal, a)
		}
	}
	return legal
}

// NumActions returns the size of the full action space.
func (g *GridWorld) NumActions() int {
	return numActions
}

// Shape returns the length of observation vectors.
func (g *GridWorld) Shape() int {
	return g.rows * g.cols
}

// Step moves the agent in the direction given by action. Selecting an
// illegal action is an error: legality is part of the policy contract,
// not something the environment silently repairs.
func (g *GridWorld) Step(action int) (timestep.TimeStep, error) {
	next, ok := g.destination(action)
	if !ok {
		return timestep.TimeStep{}, fmt.Errorf("step: illegal action %v at "+
			"cell %v", action, g.position)
	}
	g.position = next

	number := g.current.Number + 1
	reward := g.stepReward
	done := number >= g.stepLimit
	if g.position == g.goal {
		reward = g.goalReward
		done = true
	}

	g.current = timestep.New(g.observation(), reward, done, number)
	return g.current, nil
}

// destination returns the cell reached by taking action from the
// current position, and whether that move is legal.
func (g *GridWorld) destination(action int) (int, bool) {
	x, y := g.position%g.cols, g.position/g.cols
	switch action {
	case Left:
		x--
	case Right:
		x++
	case Up:
		y--
	case Down:
		y++
	default:
		return 0, false
	}
	if x < 0 || x >= g.cols || y < 0 || y >= g.rows {
		return 0, false
	}
	ind := y*g.cols + x
	if g.walls[ind] {
		return 0, false
	}
	return ind, true
}

func (g *GridWorld) observation() mat.Vector {
	obs := mat.NewVecDense(g.rows*g.cols, nil)
	obs.SetVec(g.position, 1.0)
	return obs
}

func (g *GridWorld) String() string {
	return fmt.Sprintf("GridWorld | At: %v  |  Goal: %v  |  Bounds: (%d, %d)",
		g.position, g.goal, g.rows, g.cols)
}

func index(x, y, rows, cols int) (int, error) {
	if x < 0 || x >= cols || y < 0 || y >= rows {
		return 0, fmt.Errorf("coordinates (%v, %v) outside grid (%v, %v)",
			x, y, rows, cols)
	}
	return y*cols + x, nil
}
