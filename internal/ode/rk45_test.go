package ode

import (
	"errors"
	"math"
	"testing"
)

type harmonicOscillator struct{}

func (h *harmonicOscillator) Dim() int { return 2 }

func (h *harmonicOscillator) Derive(y State, t float64) State {
	return State{y[1], -y[0]}
}

func (h *harmonicOscillator) Energy(y State) float64 {
	return 0.5 * (y[0]*y[0] + y[1]*y[1])
}

type expDecay struct{}

func (d *expDecay) Dim() int { return 1 }

func (d *expDecay) Derive(y State, t float64) State {
	return State{-y[0]}
}

// nanBeyond produces NaN derivatives past a cutoff time, so integration can
// never cross it.
type nanBeyond struct{ cut float64 }

func (n *nanBeyond) Dim() int { return 1 }

func (n *nanBeyond) Derive(y State, t float64) State {
	if t > n.cut {
		return State{math.NaN()}
	}
	return State{1.0}
}

func TestRK45_SolveHarmonicAccuracy(t *testing.T) {
	solver := NewRK45()
	sys := &harmonicOscillator{}

	sol, err := solver.Solve(sys, State{1, 0}, 0, 10, DefaultOptions())
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if len(sol.Times) != len(sol.States) {
		t.Fatalf("sample count mismatch: %d times vs %d states", len(sol.Times), len(sol.States))
	}
	if sol.Steps == 0 {
		t.Error("no steps taken")
	}

	_, final := sol.Last()
	wantPos := math.Cos(10)
	wantVel := -math.Sin(10)
	if math.Abs(final[0]-wantPos) > 1e-5 {
		t.Errorf("position = %.10f, want %.10f", final[0], wantPos)
	}
	if math.Abs(final[1]-wantVel) > 1e-5 {
		t.Errorf("velocity = %.10f, want %.10f", final[1], wantVel)
	}
}

func TestRK45_SolveDecayExact(t *testing.T) {
	solver := NewRK45()
	opts := DefaultOptions()
	opts.RelTol = 1e-10
	opts.AbsTol = 1e-12

	sol, err := solver.Solve(&expDecay{}, State{1}, 0, 5, opts)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}

	_, final := sol.Last()
	want := math.Exp(-5)
	if math.Abs(final[0]-want)/want > 1e-7 {
		t.Errorf("y(5) = %.12e, want %.12e", final[0], want)
	}
}

func TestRK45_EnergyConservation(t *testing.T) {
	solver := NewRK45()
	sys := &harmonicOscillator{}

	sol, err := solver.Solve(sys, State{1, 0}, 0, 100, DefaultOptions())
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}

	_, final := sol.Last()
	drift := math.Abs(sys.Energy(final)-0.5) / 0.5
	if drift > 1e-5 {
		t.Errorf("energy drift too high: %e", drift)
	}
}

func TestRK45_ToleranceScaling(t *testing.T) {
	solver := NewRK45()
	sys := &harmonicOscillator{}

	loose := DefaultOptions()
	loose.RelTol = 1e-4
	loose.AbsTol = 1e-4
	tight := DefaultOptions()
	tight.RelTol = 1e-9
	tight.AbsTol = 1e-9

	solLoose, err := solver.Solve(sys, State{1, 0}, 0, 10, loose)
	if err != nil {
		t.Fatalf("loose solve: %v", err)
	}
	solTight, err := solver.Solve(sys, State{1, 0}, 0, 10, tight)
	if err != nil {
		t.Fatalf("tight solve: %v", err)
	}

	_, fl := solLoose.Last()
	_, ft := solTight.Last()
	errLoose := math.Abs(fl[0] - math.Cos(10))
	errTight := math.Abs(ft[0] - math.Cos(10))

	if errTight >= errLoose {
		t.Errorf("tight tolerance not more accurate: %e vs %e", errTight, errLoose)
	}
	if solTight.Steps <= solLoose.Steps {
		t.Errorf("tight tolerance should take more steps: %d vs %d", solTight.Steps, solLoose.Steps)
	}
}

func TestRK45_TerminalEventStopsAtCrossing(t *testing.T) {
	solver := NewRK45()
	sys := &harmonicOscillator{}

	// cos(t) falls through zero at pi/2.
	ev := Event{
		G:         func(t float64, y State) float64 { return y[0] },
		Direction: -1,
		Terminal:  true,
	}

	sol, err := solver.Solve(sys, State{1, 0}, 0, 10, DefaultOptions(), ev)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if !sol.Event {
		t.Fatal("terminal event did not fire")
	}

	tEnd, final := sol.Last()
	if math.Abs(tEnd-math.Pi/2) > 1e-6 {
		t.Errorf("event time = %.10f, want %.10f", tEnd, math.Pi/2)
	}
	if math.Abs(final[0]) > 1e-6 {
		t.Errorf("position at event = %.2e, want 0", final[0])
	}
	if math.Abs(final[1]+1) > 1e-6 {
		t.Errorf("velocity at event = %.10f, want -1", final[1])
	}
}

func TestRK45_EventDirectionFilter(t *testing.T) {
	solver := NewRK45()
	sys := &harmonicOscillator{}

	// With a rising filter the falling crossing at pi/2 must be skipped and
	// integration stops at 3pi/2 instead.
	ev := Event{
		G:         func(t float64, y State) float64 { return y[0] },
		Direction: 1,
		Terminal:  true,
	}

	sol, err := solver.Solve(sys, State{1, 0}, 0, 10, DefaultOptions(), ev)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if !sol.Event {
		t.Fatal("terminal event did not fire")
	}

	tEnd, _ := sol.Last()
	if math.Abs(tEnd-3*math.Pi/2) > 1e-6 {
		t.Errorf("event time = %.10f, want %.10f", tEnd, 3*math.Pi/2)
	}
}

func TestRK45_NonTerminalEventsRecorded(t *testing.T) {
	solver := NewRK45()
	sys := &harmonicOscillator{}

	ev := Event{
		G: func(t float64, y State) float64 { return y[0] },
	}

	sol, err := solver.Solve(sys, State{1, 0}, 0, 10, DefaultOptions(), ev)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if sol.Event {
		t.Error("non-terminal event should not stop integration")
	}

	want := []float64{math.Pi / 2, 3 * math.Pi / 2, 5 * math.Pi / 2}
	if len(sol.EventTimes) != len(want) {
		t.Fatalf("recorded %d crossings, want %d: %v", len(sol.EventTimes), len(want), sol.EventTimes)
	}
	for i, w := range want {
		if math.Abs(sol.EventTimes[i]-w) > 1e-5 {
			t.Errorf("crossing %d = %.10f, want %.10f", i, sol.EventTimes[i], w)
		}
	}

	tEnd, _ := sol.Last()
	if math.Abs(tEnd-10) > 1e-8 {
		t.Errorf("integration should reach t=10, got %.10f", tEnd)
	}
}

func TestRK45_MaxStepCap(t *testing.T) {
	solver := NewRK45()
	opts := DefaultOptions()
	opts.MaxStep = 0.1

	sol, err := solver.Solve(&expDecay{}, State{1}, 0, 2, opts)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}

	for i := 1; i < len(sol.Times); i++ {
		dt := sol.Times[i] - sol.Times[i-1]
		if dt > 0.1+1e-12 {
			t.Fatalf("step %d spans %.6f, exceeds MaxStep", i, dt)
		}
	}
}

func TestRK45_MaxStepsExceeded(t *testing.T) {
	solver := NewRK45()
	opts := DefaultOptions()
	opts.MaxSteps = 5
	opts.MaxStep = 0.01

	sol, err := solver.Solve(&harmonicOscillator{}, State{1, 0}, 0, 10, opts)
	if !errors.Is(err, ErrMaxSteps) {
		t.Fatalf("expected ErrMaxSteps, got %v", err)
	}

	var solveErr *SolveError
	if !errors.As(err, &solveErr) {
		t.Fatal("error is not a *SolveError")
	}
	if solveErr.Step != 5 {
		t.Errorf("SolveError.Step = %d, want 5", solveErr.Step)
	}
	if sol == nil || len(sol.Times) != 6 {
		t.Error("partial solution should hold the steps taken so far")
	}
}

func TestRK45_DimensionMismatch(t *testing.T) {
	solver := NewRK45()
	_, err := solver.Solve(&harmonicOscillator{}, State{1, 0, 0}, 0, 1, DefaultOptions())
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestRK45_InvalidInitialState(t *testing.T) {
	solver := NewRK45()
	_, err := solver.Solve(&harmonicOscillator{}, State{math.NaN(), 0}, 0, 1, DefaultOptions())
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestRK45_DivergentDerivativeFails(t *testing.T) {
	solver := NewRK45()

	sol, err := solver.Solve(&nanBeyond{cut: 5}, State{0}, 0, 10, DefaultOptions())
	if !errors.Is(err, ErrUnstable) {
		t.Fatalf("expected ErrUnstable, got %v", err)
	}

	tEnd, _ := sol.Last()
	if tEnd > 5.0+1e-9 {
		t.Errorf("integration advanced past the cutoff: t=%.12f", tEnd)
	}
}

func TestRK45_RejectedStepsCounted(t *testing.T) {
	solver := NewRK45()
	opts := DefaultOptions()
	opts.InitialStep = 5.0

	sol, err := solver.Solve(&harmonicOscillator{}, State{1, 0}, 0, 10, opts)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if sol.Rejected == 0 {
		t.Error("oversized initial step should be rejected at least once")
	}
}
