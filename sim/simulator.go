package sim

import (
	"fmt"

	"golang.org/x/exp/rand"

	slds "github.com/milosgajdos/go-slds"
	"github.com/milosgajdos/go-slds/noise"
	srand "github.com/milosgajdos/go-slds/rand"
	"gonum.org/v1/gonum/mat"
)

// Trajectory is a simulated run of a switching system.
type Trajectory struct {
	// Regimes are active regimes, one per step
	Regimes []slds.RegimeID
	// States are true states, one per step
	States []mat.Vector
	// Measurements are noisy measurements, one per step
	Measurements []mat.Vector
}

// Len returns number of simulated steps
func (t *Trajectory) Len() int {
	return len(t.Regimes)
}

// StateMatrix returns true states stored in matrix rows.
func (t *Trajectory) StateMatrix() *mat.Dense {
	return rowsOf(t.States)
}

// MeasurementMatrix returns measurements stored in matrix rows.
// Rows are padded with zeros when measurement dimension varies across regimes.
func (t *Trajectory) MeasurementMatrix() *mat.Dense {
	return rowsOf(t.Measurements)
}

func rowsOf(vecs []mat.Vector) *mat.Dense {
	if len(vecs) == 0 {
		return nil
	}

	cols := 0
	for _, v := range vecs {
		if v.Len() > cols {
			cols = v.Len()
		}
	}

	m := mat.NewDense(len(vecs), cols, nil)
	for i, v := range vecs {
		for j := 0; j < v.Len(); j++ {
			m.Set(i, j, v.AtVec(j))
		}
	}

	return m
}

// Simulator generates trajectories of a switching system.
// The regime path follows either a fixed schedule or the Markov chain
// defined by the regime transition matrix.
type Simulator struct {
	sys      *System
	seed     uint64
	schedule []slds.RegimeID
	start    slds.RegimeID
	hasStart bool
}

// Option configures Simulator
type Option func(*Simulator)

// WithSeed seeds all random draws of the simulator.
func WithSeed(seed uint64) Option {
	return func(s *Simulator) {
		s.seed = seed
	}
}

// WithSchedule fixes the regime path; the transition matrix is then not used.
func WithSchedule(schedule []slds.RegimeID) Option {
	return func(s *Simulator) {
		s.schedule = append([]slds.RegimeID(nil), schedule...)
	}
}

// WithStartRegime sets the regime of the first step of a Markov regime path.
func WithStartRegime(r slds.RegimeID) Option {
	return func(s *Simulator) {
		s.start = r
		s.hasStart = true
	}
}

// NewSimulator creates new Simulator of sys and returns it.
// It returns error if sys is nil, if the schedule names unknown regimes
// or if no schedule is given and the regime set has no transition matrix.
func NewSimulator(sys *System, opts ...Option) (*Simulator, error) {
	if sys == nil {
		return nil, fmt.Errorf("%w: nil system", slds.ErrConfiguration)
	}

	s := &Simulator{sys: sys, seed: 1}
	for _, apply := range opts {
		apply(s)
	}

	regimes := sys.Regimes()
	for i, r := range s.schedule {
		if !regimes.Has(r) {
			return nil, fmt.Errorf("%w: unknown regime %d at schedule step %d", slds.ErrConfiguration, r, i)
		}
	}

	if s.schedule == nil && regimes.Transition() == nil {
		return nil, fmt.Errorf("%w: regime schedule or transition matrix required", slds.ErrConfiguration)
	}

	if !s.hasStart {
		s.start = regimes.ID(0)
	}

	if !regimes.Has(s.start) {
		return nil, fmt.Errorf("%w: unknown start regime %d", slds.ErrConfiguration, s.start)
	}

	return s, nil
}

// Run simulates steps steps of the system starting from a state drawn from ic.
// If a schedule was given, steps must not exceed its length.
func (s *Simulator) Run(ic *InitCond, steps int) (*Trajectory, error) {
	if ic == nil {
		return nil, fmt.Errorf("%w: nil initial condition", slds.ErrConfiguration)
	}

	if steps <= 0 {
		return nil, fmt.Errorf("%w: invalid number of steps: %d", slds.ErrConfiguration, steps)
	}

	regimes := s.sys.Regimes()
	if err := ic.Validate(regimes.StateDim()); err != nil {
		return nil, err
	}

	path, err := s.path(steps)
	if err != nil {
		return nil, err
	}

	stateNoise, outputNoise, err := s.noise()
	if err != nil {
		return nil, err
	}

	x0, err := srand.WithCovN(ic.Cov(), 1, rand.NewSource(s.seed))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to draw initial state: %v", slds.ErrNumerical, err)
	}

	x := mat.VecDenseCopyOf(x0.ColView(0))
	x.AddVec(x, ic.State())

	traj := &Trajectory{
		Regimes:      path,
		States:       make([]mat.Vector, steps),
		Measurements: make([]mat.Vector, steps),
	}

	var state mat.Vector = x
	for i, r := range path {
		state, err = s.sys.Propagate(r, state, stateNoise[r].Sample())
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}

		z, err := s.sys.Observe(r, state, outputNoise[r].Sample())
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}

		traj.States[i] = state
		traj.Measurements[i] = z
	}

	return traj, nil
}

func (s *Simulator) path(steps int) ([]slds.RegimeID, error) {
	if s.schedule != nil {
		if steps > len(s.schedule) {
			return nil, fmt.Errorf("%w: %d steps requested, schedule has %d", slds.ErrConfiguration, steps, len(s.schedule))
		}
		return append([]slds.RegimeID(nil), s.schedule[:steps]...), nil
	}

	regimes := s.sys.Regimes()
	trans := regimes.Transition()
	src := rand.NewSource(s.seed + 1)

	path := make([]slds.RegimeID, steps)
	path[0] = s.start
	for i := 1; i < steps; i++ {
		cur, _ := regimes.Index(path[i-1])
		next, err := srand.RouletteDrawN(trans.Row(cur), 1, src)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to draw regime: %v", slds.ErrNumerical, err)
		}
		path[i] = regimes.ID(next[0])
	}

	return path, nil
}

func (s *Simulator) noise() (map[slds.RegimeID]slds.Noise, map[slds.RegimeID]slds.Noise, error) {
	regimes := s.sys.Regimes()
	stateNoise := make(map[slds.RegimeID]slds.Noise, regimes.Len())
	outputNoise := make(map[slds.RegimeID]slds.Noise, regimes.Len())

	for i, id := range regimes.IDs() {
		params, err := regimes.Params(id)
		if err != nil {
			return nil, nil, err
		}
		n, m := params.Dims()

		// every noise source draws from its own deterministic stream
		base := s.seed + 2 + 2*uint64(i)

		stateNoise[id], err = noise.New(make([]float64, n), params.StateNoiseCov(), rand.NewSource(base))
		if err != nil {
			return nil, nil, fmt.Errorf("regime %d state noise: %w", id, err)
		}

		outputNoise[id], err = noise.New(make([]float64, m), params.OutputNoiseCov(), rand.NewSource(base+1))
		if err != nil {
			return nil, nil, fmt.Errorf("regime %d output noise: %w", id, err)
		}
	}

	return stateNoise, outputNoise, nil
}
