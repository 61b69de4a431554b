package sim

import (
	"errors"
	"os"
	"testing"

	slds "github.com/milosgajdos/go-slds"
	"github.com/milosgajdos/go-slds/regime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var (
	regimes *regime.Set
	ic      *InitCond
)

func setup() {
	stationary, err := regime.NewParams(
		mat.NewDense(1, 1, []float64{1}),
		mat.NewDense(1, 1, []float64{1}),
		mat.NewDense(1, 1, []float64{0.01}),
		mat.NewDense(1, 1, []float64{0.1}),
	)
	if err != nil {
		panic(err)
	}

	moving, err := regime.NewParams(
		mat.NewDense(1, 1, []float64{1.1}),
		mat.NewDense(1, 1, []float64{1}),
		mat.NewDense(1, 1, []float64{0}),
		mat.NewDense(1, 1, []float64{0}),
	)
	if err != nil {
		panic(err)
	}

	trans, err := regime.NewTransition(mat.NewDense(2, 2, []float64{0.9, 0.1, 0.2, 0.8}))
	if err != nil {
		panic(err)
	}

	regimes, err = regime.NewSet(map[slds.RegimeID]*regime.Params{0: stationary, 1: moving}, trans)
	if err != nil {
		panic(err)
	}

	ic = NewInitCond(mat.NewVecDense(1, []float64{1}), mat.NewSymDense(1, []float64{0}))
}

func TestMain(m *testing.M) {
	// set up tests
	setup()
	// run the tests
	retCode := m.Run()
	// call with result of m.Run()
	os.Exit(retCode)
}

func TestInitCond(t *testing.T) {
	assert := assert.New(t)

	state := mat.NewVecDense(2, []float64{1, 2})
	cov := mat.NewSymDense(2, []float64{1, 0, 0, 1})

	c := NewInitCond(state, cov)
	assert.True(mat.Equal(state, c.State()))
	assert.True(mat.Equal(cov, c.Cov()))

	// initial condition does not alias its inputs
	state.SetVec(0, 100)
	assert.Equal(1.0, c.State().AtVec(0))

	assert.NoError(c.Validate(2))
	assert.True(errors.Is(c.Validate(3), slds.ErrDimension))

	// zero covariance is a valid exact initial condition
	exact := NewInitCond(mat.NewVecDense(1, []float64{1}), mat.NewSymDense(1, nil))
	assert.NoError(exact.Validate(1))

	negative := NewInitCond(mat.NewVecDense(1, []float64{1}), mat.NewSymDense(1, []float64{-1}))
	assert.True(errors.Is(negative.Validate(1), slds.ErrConfiguration))

	indefinite := NewInitCond(state, mat.NewSymDense(2, []float64{1, 2, 2, 1}))
	assert.True(errors.Is(indefinite.Validate(2), slds.ErrConfiguration))
}

func TestSystem(t *testing.T) {
	assert := assert.New(t)

	sys, err := NewSystem(nil)
	assert.Nil(sys)
	assert.True(errors.Is(err, slds.ErrConfiguration))

	sys, err = NewSystem(regimes)
	assert.NoError(err)

	x := mat.NewVecDense(1, []float64{2})

	next, err := sys.Propagate(1, x, nil)
	assert.NoError(err)
	assert.InDelta(2.2, next.AtVec(0), 1e-12)

	next, err = sys.Propagate(0, x, mat.NewVecDense(1, []float64{0.5}))
	assert.NoError(err)
	assert.InDelta(2.5, next.AtVec(0), 1e-12)

	_, err = sys.Propagate(0, mat.NewVecDense(2, nil), nil)
	assert.True(errors.Is(err, slds.ErrDimension))

	_, err = sys.Propagate(7, x, nil)
	assert.True(errors.Is(err, slds.ErrConfiguration))

	y, err := sys.Observe(0, x, mat.NewVecDense(1, []float64{-1}))
	assert.NoError(err)
	assert.InDelta(1.0, y.AtVec(0), 1e-12)

	_, err = sys.Observe(0, x, mat.NewVecDense(2, nil))
	assert.True(errors.Is(err, slds.ErrDimension))
}

func TestSimulatorSchedule(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	sys, err := NewSystem(regimes)
	require.NoError(err)

	schedule := []slds.RegimeID{1, 1, 1}
	s, err := NewSimulator(sys, WithSchedule(schedule), WithSeed(3))
	require.NoError(err)

	traj, err := s.Run(ic, 3)
	require.NoError(err)
	assert.Equal(3, traj.Len())
	assert.Equal(schedule, traj.Regimes)

	// noiseless regime with exact initial condition is deterministic
	want := []float64{1.1, 1.21, 1.331}
	for i, w := range want {
		assert.InDelta(w, traj.States[i].AtVec(0), 1e-12)
		assert.InDelta(w, traj.Measurements[i].AtVec(0), 1e-12)
	}

	states := traj.StateMatrix()
	r, c := states.Dims()
	assert.Equal(3, r)
	assert.Equal(1, c)

	_, err = s.Run(ic, 4)
	assert.True(errors.Is(err, slds.ErrConfiguration))

	_, err = s.Run(ic, 0)
	assert.True(errors.Is(err, slds.ErrConfiguration))

	_, err = NewSimulator(sys, WithSchedule([]slds.RegimeID{0, 5}))
	assert.True(errors.Is(err, slds.ErrConfiguration))
}

func TestSimulatorMarkov(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	sys, err := NewSystem(regimes)
	require.NoError(err)

	s, err := NewSimulator(sys, WithSeed(42), WithStartRegime(0))
	require.NoError(err)

	traj, err := s.Run(ic, 500)
	require.NoError(err)
	assert.Equal(slds.RegimeID(0), traj.Regimes[0])

	counts := map[slds.RegimeID]int{}
	for _, r := range traj.Regimes {
		assert.True(regimes.Has(r))
		counts[r]++
	}
	// both regimes are visited by a chain with these transition probabilities
	assert.Greater(counts[0], 0)
	assert.Greater(counts[1], 0)

	// same seed reproduces the trajectory
	again, err := s.Run(ic, 500)
	require.NoError(err)
	assert.Equal(traj.Regimes, again.Regimes)
	assert.True(mat.Equal(traj.MeasurementMatrix(), again.MeasurementMatrix()))

	_, err = NewSimulator(sys, WithStartRegime(9))
	assert.True(errors.Is(err, slds.ErrConfiguration))
}

func TestSimulatorNoTransition(t *testing.T) {
	assert := assert.New(t)

	params, err := regimes.Params(0)
	require.NoError(t, err)

	set, err := regime.NewSet(map[slds.RegimeID]*regime.Params{0: params}, nil)
	require.NoError(t, err)

	sys, err := NewSystem(set)
	require.NoError(t, err)

	s, err := NewSimulator(sys)
	assert.Nil(s)
	assert.True(errors.Is(err, slds.ErrConfiguration))

	s, err = NewSimulator(sys, WithSchedule([]slds.RegimeID{0, 0}))
	assert.NoError(err)
	assert.NotNil(s)
}
