package ode

import "math"

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0

	// Dense output coefficients (order-4 continuous extension)
	d1 = -12715105075.0 / 11282082432.0
	d3 = 87487479700.0 / 32700410799.0
	d4 = -10690763975.0 / 1880347072.0
	d5 = 701980252875.0 / 199316789632.0
	d6 = -1453857185.0 / 822651844.0
	d7 = 69997945.0 / 29380423.0
)

const machEps = 2.220446049250313e-16

type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

// Solve integrates sys from t0 to tMax starting at y0, adapting the step to
// keep the local error within opts tolerances. Events are checked after every
// accepted step; a terminal crossing truncates the step so the last recorded
// sample sits on the crossing itself.
func (r *RK45) Solve(sys System, y0 State, t0, tMax float64, opts Options, events ...Event) (*Solution, error) {
	if len(y0) != sys.Dim() {
		return nil, ErrDimensionMismatch
	}
	if !y0.IsValid() {
		return nil, ErrInvalidState
	}

	def := DefaultOptions()
	if opts.RelTol <= 0 {
		opts.RelTol = def.RelTol
	}
	if opts.AbsTol <= 0 {
		opts.AbsTol = def.AbsTol
	}
	if opts.MinStep <= 0 {
		opts.MinStep = def.MinStep
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = def.MaxSteps
	}

	y := y0.Clone()
	t := t0
	sol := &Solution{
		Times:  []float64{t0},
		States: []State{y0.Clone()},
	}
	if tMax <= t0 {
		return sol, nil
	}

	dt := opts.InitialStep
	if dt <= 0 {
		dt = r.initialStep(sys, y, t0, tMax, opts)
	}
	if opts.MaxStep > 0 && dt > opts.MaxStep {
		dt = opts.MaxStep
	}

	gPrev := make([]float64, len(events))
	for i, ev := range events {
		gPrev[i] = ev.G(t0, y)
	}

	for {
		remain := tMax - t
		if remain <= 10*machEps*math.Max(math.Abs(t), math.Abs(tMax)) {
			break
		}
		if sol.Steps >= opts.MaxSteps {
			return sol, &SolveError{Step: sol.Steps, T: t, State: y.Clone(), Wrapped: ErrMaxSteps}
		}
		if dt > remain {
			dt = remain
		}

		yNew, k, errRatio := r.attempt(sys, y, t, dt, opts)

		floor := math.Max(opts.MinStep, 10*machEps*math.Abs(t))
		if !yNew.IsValid() || math.IsNaN(errRatio) {
			sol.Rejected++
			dt *= r.minScale
			if dt < floor {
				return sol, &SolveError{Step: sol.Steps, T: t, State: y.Clone(), Wrapped: ErrUnstable}
			}
			continue
		}
		if errRatio > 1 {
			sol.Rejected++
			dt *= math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
			if dt < floor {
				return sol, &SolveError{Step: sol.Steps, T: t, State: y.Clone(), Wrapped: ErrStepTooSmall}
			}
			continue
		}

		tNew := t + dt
		sampleT, sampleY := tNew, yNew
		stop := false

		if len(events) > 0 {
			var seg *denseSegment
			for i, ev := range events {
				gNew := ev.G(tNew, yNew)
				if eventFired(gPrev[i], gNew, ev.Direction) {
					if seg == nil {
						seg = newDenseSegment(y, yNew, k, t, dt)
					}
					tRoot := bisectEvent(ev, seg, t, tNew)
					sol.EventTimes = append(sol.EventTimes, tRoot)
					if ev.Terminal && (!stop || tRoot < sampleT) {
						sampleT = tRoot
						sampleY = seg.eval(tRoot)
						sol.Event = true
						stop = true
					}
				}
				gPrev[i] = gNew
			}
		}

		sol.Steps++
		sol.Times = append(sol.Times, sampleT)
		sol.States = append(sol.States, sampleY)
		if stop {
			return sol, nil
		}

		t = tNew
		y = yNew

		if errRatio > 0 {
			dt *= math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
		} else {
			dt *= r.maxScale
		}
		if opts.MaxStep > 0 && dt > opts.MaxStep {
			dt = opts.MaxStep
		}
	}

	return sol, nil
}

func (r *RK45) attempt(sys System, y State, t, dt float64, opts Options) (State, [7]State, float64) {
	n := len(y)

	k1 := sys.Derive(y, t)

	y2 := make(State, n)
	for i := 0; i < n; i++ {
		y2[i] = y[i] + dt*b21*k1[i]
	}
	k2 := sys.Derive(y2, t+a2*dt)

	y3 := make(State, n)
	for i := 0; i < n; i++ {
		y3[i] = y[i] + dt*(b31*k1[i]+b32*k2[i])
	}
	k3 := sys.Derive(y3, t+a3*dt)

	y4 := make(State, n)
	for i := 0; i < n; i++ {
		y4[i] = y[i] + dt*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4 := sys.Derive(y4, t+a4*dt)

	y5 := make(State, n)
	for i := 0; i < n; i++ {
		y5[i] = y[i] + dt*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5 := sys.Derive(y5, t+a5*dt)

	y6 := make(State, n)
	for i := 0; i < n; i++ {
		y6[i] = y[i] + dt*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6 := sys.Derive(y6, t+dt)

	yNew := make(State, n)
	for i := 0; i < n; i++ {
		yNew[i] = y[i] + dt*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}

	k7 := sys.Derive(yNew, t+dt)

	errRatio := 0.0
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		scale := opts.AbsTol + opts.RelTol*math.Max(math.Abs(y[i]), math.Abs(yNew[i]))
		errRatio = math.Max(errRatio, math.Abs(errEst)/scale)
	}

	return yNew, [7]State{k1, k2, k3, k4, k5, k6, k7}, errRatio
}

// initialStep picks a starting step from the magnitude of y0 and its first
// two derivatives, so callers need not guess a scale for the independent
// variable.
func (r *RK45) initialStep(sys System, y0 State, t0, tMax float64, opts Options) float64 {
	n := len(y0)
	f0 := sys.Derive(y0, t0)

	scale := make([]float64, n)
	for i := 0; i < n; i++ {
		scale[i] = opts.AbsTol + opts.RelTol*math.Abs(y0[i])
	}

	rms0 := rmsScaled(y0, scale)
	rms1 := rmsScaled(f0, scale)
	var h0 float64
	if rms0 < 1e-5 || rms1 < 1e-5 {
		h0 = 1e-6
	} else {
		h0 = 0.01 * rms0 / rms1
	}

	y1 := make(State, n)
	for i := 0; i < n; i++ {
		y1[i] = y0[i] + h0*f0[i]
	}
	f1 := sys.Derive(y1, t0+h0)
	diff := make(State, n)
	for i := 0; i < n; i++ {
		diff[i] = f1[i] - f0[i]
	}
	rmsDiff := rmsScaled(diff, scale) / h0

	var h1 float64
	if rms1 <= 1e-15 && rmsDiff <= 1e-15 {
		h1 = math.Max(1e-6, h0*1e-3)
	} else {
		h1 = math.Pow(0.01/math.Max(rms1, rmsDiff), 0.2)
	}

	h := math.Min(100*h0, h1)
	h = math.Min(h, tMax-t0)
	if opts.MaxStep > 0 {
		h = math.Min(h, opts.MaxStep)
	}
	return math.Max(h, opts.MinStep)
}

func rmsScaled(v State, scale []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for i, x := range v {
		r := x / scale[i]
		sum += r * r
	}
	return math.Sqrt(sum / float64(len(v)))
}

func eventFired(gOld, gNew float64, direction int) bool {
	if gOld == 0 && gNew == 0 {
		return false
	}
	up := gOld <= 0 && gNew >= 0
	down := gOld >= 0 && gNew <= 0
	switch {
	case direction > 0:
		return up
	case direction < 0:
		return down
	default:
		return up || down
	}
}

// bisectEvent narrows a bracketed crossing of ev.G down to machine precision
// on the dense interpolant. Returns the endpoint on the far side of the
// crossing.
func bisectEvent(ev Event, seg *denseSegment, tLo, tHi float64) float64 {
	gLo := ev.G(tLo, seg.eval(tLo))
	for i := 0; i < 90; i++ {
		mid := 0.5 * (tLo + tHi)
		if mid == tLo || mid == tHi {
			break
		}
		gMid := ev.G(mid, seg.eval(mid))
		if (gLo <= 0) == (gMid <= 0) {
			tLo, gLo = mid, gMid
		} else {
			tHi = mid
		}
	}
	return tHi
}

type denseSegment struct {
	t0, h float64
	cont  [5]State
}

func newDenseSegment(y0, y1 State, k [7]State, t0, h float64) *denseSegment {
	n := len(y0)
	seg := &denseSegment{t0: t0, h: h}
	for j := range seg.cont {
		seg.cont[j] = make(State, n)
	}
	for i := 0; i < n; i++ {
		ydiff := y1[i] - y0[i]
		bspl := h*k[0][i] - ydiff
		seg.cont[0][i] = y0[i]
		seg.cont[1][i] = ydiff
		seg.cont[2][i] = bspl
		seg.cont[3][i] = ydiff - h*k[6][i] - bspl
		seg.cont[4][i] = h * (d1*k[0][i] + d3*k[2][i] + d4*k[3][i] + d5*k[4][i] + d6*k[5][i] + d7*k[6][i])
	}
	return seg
}

func (s *denseSegment) eval(t float64) State {
	theta := (t - s.t0) / s.h
	theta1 := 1 - theta
	y := make(State, len(s.cont[0]))
	for i := range y {
		y[i] = s.cont[0][i] + theta*(s.cont[1][i]+theta1*(s.cont[2][i]+theta*(s.cont[3][i]+theta1*s.cont[4][i])))
	}
	return y
}
