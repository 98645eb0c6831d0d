package ode

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

type System interface {
	Derive(y State, t float64) State
	Dim() int
}

// Event watches g(t, y) for a zero crossing along the solution.
// Direction restricts which crossings count: +1 fires on rising crossings,
// -1 on falling ones, 0 on both. A Terminal event stops the integration at
// the crossing.
type Event struct {
	G         func(t float64, y State) float64
	Direction int
	Terminal  bool
}

type Options struct {
	RelTol      float64
	AbsTol      float64
	InitialStep float64
	MaxStep     float64
	MinStep     float64
	MaxSteps    int
}

func DefaultOptions() Options {
	return Options{
		RelTol:   1e-8,
		AbsTol:   1e-8,
		MinStep:  1e-12,
		MaxSteps: 1_000_000,
	}
}

type Solution struct {
	Times      []float64
	States     []State
	EventTimes []float64
	Event      bool
	Steps      int
	Rejected   int
}

// Last returns the final recorded time and state.
func (s *Solution) Last() (float64, State) {
	n := len(s.Times)
	if n == 0 {
		return 0, nil
	}
	return s.Times[n-1], s.States[n-1]
}
