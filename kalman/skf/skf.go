package skf

import (
	"errors"
	"fmt"
	"math"

	slds "github.com/milosgajdos/go-slds"
	"github.com/milosgajdos/go-slds/estimate"
	"github.com/milosgajdos/go-slds/matrix"
	"github.com/milosgajdos/go-slds/regime"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// SKF is a regime-conditional (switching) Kalman Filter.
// Every step uses the linear-Gaussian dynamics of the regime supplied by the caller.
// SKF holds no filter state: the estimate is threaded through successive calls by the caller,
// so a single SKF can be used concurrently by any number of goroutines.
type SKF struct {
	// regimes is regime parameters table
	regimes *regime.Set
	// update is covariance update form
	update UpdateForm
	// condTol is innovation covariance condition number tolerance
	condTol float64
	// symmetrize enables covariance symmetry repair
	symmetrize bool
}

// Observation is a measurement taken while the system was in a given regime
type Observation struct {
	// Regime is active regime
	Regime slds.RegimeID
	// Z is measurement vector
	Z mat.Vector
}

// Innovation stores measurement update intermediates
type Innovation struct {
	// Residual is innovation vector z - C*x
	Residual *mat.VecDense
	// Cov is innovation covariance C*P*C' + R
	Cov *mat.Dense
	// Gain is Kalman gain P*C'*inv(Cov)
	Gain *mat.Dense
	// Cond is condition number of Cov
	Cond float64
}

// LogLikelihood returns log density of the innovation residual under zero-mean Gaussian
// with innovation covariance. It returns error if the covariance is not positive definite.
func (in *Innovation) LogLikelihood() (float64, error) {
	dist, ok := distmv.NewNormal(make([]float64, in.Residual.Len()), matrix.Symmetrize(in.Cov), nil)
	if !ok {
		return 0, fmt.Errorf("%w: innovation covariance is not positive definite", slds.ErrNumerical)
	}

	return dist.LogProb(in.Residual.RawVector().Data), nil
}

// New creates new SKF and returns it.
// It accepts the following parameters:
//   - regimes: regime parameters table
//   - c:       SKF configuration; nil means DefaultConfig
//
// It returns error wrapping slds.ErrConfiguration if regimes is nil or c is invalid.
func New(regimes *regime.Set, c *Config) (*SKF, error) {
	if regimes == nil {
		return nil, fmt.Errorf("%w: nil regime set", slds.ErrConfiguration)
	}

	if c == nil {
		c = DefaultConfig()
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	condTol := c.CondTolerance
	if condTol == 0 {
		condTol = mat.ConditionTolerance
	}

	return &SKF{
		regimes:    regimes,
		update:     c.Update,
		condTol:    condTol,
		symmetrize: c.Symmetrize,
	}, nil
}

// Predict propagates estimate (x, p) to the next step using dynamics of regime r:
//
//	x = A*x
//	P = A*P*A' + Q
//
// It returns error if r is unknown or if x and p do not match the regime state dimension.
func (k *SKF) Predict(x mat.Vector, p mat.Matrix, r slds.RegimeID) (slds.Estimate, error) {
	params, err := k.lookup(x, p, r)
	if err != nil {
		return nil, err
	}

	xPred, pPred := predict(params, x, p)

	return estimate.NewBaseWithCov(xPred, pPred)
}

// Update corrects predicted estimate (x, p) with measurement z taken in regime r and
// returns the corrected estimate. It returns error if r is unknown, if x, p or z do not
// match the regime dimensions, or if the innovation covariance can not be inverted.
func (k *SKF) Update(x mat.Vector, p mat.Matrix, r slds.RegimeID, z mat.Vector) (slds.Estimate, error) {
	est, _, err := k.Correct(x, p, r, z)
	return est, err
}

// Correct works like Update but also returns the innovation the correction was computed from.
func (k *SKF) Correct(x mat.Vector, p mat.Matrix, r slds.RegimeID, z mat.Vector) (slds.Estimate, *Innovation, error) {
	params, err := k.lookup(x, p, r)
	if err != nil {
		return nil, nil, err
	}

	if err := checkMeasurement(params, z); err != nil {
		return nil, nil, err
	}

	in, err := k.innovate(params, x, p, z)
	if err != nil {
		return nil, nil, err
	}

	est, err := k.correct(params, x, p, in)
	if err != nil {
		return nil, nil, err
	}

	return est, in, nil
}

// Step runs one predict and update cycle of the filter for prior estimate (x, p),
// regime r and measurement z and returns the posterior estimate.
// Neither x nor p is modified.
func (k *SKF) Step(x mat.Vector, p mat.Matrix, r slds.RegimeID, z mat.Vector) (slds.Estimate, error) {
	params, err := k.lookup(x, p, r)
	if err != nil {
		return nil, err
	}

	if err := checkMeasurement(params, z); err != nil {
		return nil, err
	}

	xPred, pPred := predict(params, x, p)

	in, err := k.innovate(params, xPred, pPred, z)
	if err != nil {
		return nil, err
	}

	return k.correct(params, xPred, pPred, in)
}

// Innovate computes innovation of measurement z against predicted estimate (x, p) in regime r.
func (k *SKF) Innovate(x mat.Vector, p mat.Matrix, r slds.RegimeID, z mat.Vector) (*Innovation, error) {
	params, err := k.lookup(x, p, r)
	if err != nil {
		return nil, err
	}

	if err := checkMeasurement(params, z); err != nil {
		return nil, err
	}

	return k.innovate(params, x, p, z)
}

// Gain returns Kalman gain for predicted estimate (x, p) and measurement z in regime r.
func (k *SKF) Gain(x mat.Vector, p mat.Matrix, r slds.RegimeID, z mat.Vector) (mat.Matrix, error) {
	in, err := k.Innovate(x, p, r, z)
	if err != nil {
		return nil, err
	}

	return in.Gain, nil
}

// Run runs the filter from initial condition ic through observations obs
// and returns posterior estimates, one per observation.
// It stops at the first failing step and returns error annotated with the step index.
func (k *SKF) Run(ic slds.InitCond, obs []Observation) ([]slds.Estimate, error) {
	if ic == nil {
		return nil, fmt.Errorf("%w: nil initial condition", slds.ErrConfiguration)
	}

	var (
		x mat.Vector = ic.State()
		p mat.Matrix = ic.Cov()
	)

	ests := make([]slds.Estimate, len(obs))
	for i, o := range obs {
		est, err := k.Step(x, p, o.Regime, o.Z)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		ests[i] = est
		x, p = est.Val(), est.Cov()
	}

	return ests, nil
}

// StateDim returns dimension of the filtered state
func (k *SKF) StateDim() int {
	return k.regimes.StateDim()
}

// Regimes returns known regime IDs
func (k *SKF) Regimes() []slds.RegimeID {
	return k.regimes.IDs()
}

// RegimeSet returns regime parameters table
func (k *SKF) RegimeSet() *regime.Set {
	return k.regimes
}

func (k *SKF) lookup(x mat.Vector, p mat.Matrix, r slds.RegimeID) (*regime.Params, error) {
	params, err := k.regimes.Params(r)
	if err != nil {
		return nil, err
	}

	n, _ := params.Dims()
	if x == nil || x.Len() != n {
		return nil, fmt.Errorf("%w: invalid state vector for regime %d: expected length %d", slds.ErrDimension, r, n)
	}

	if p == nil {
		return nil, fmt.Errorf("%w: nil covariance matrix", slds.ErrDimension)
	}

	if rows, cols := p.Dims(); rows != n || cols != n {
		return nil, fmt.Errorf("%w: invalid covariance matrix dimensions: [%d x %d], expected [%d x %d]",
			slds.ErrDimension, rows, cols, n, n)
	}

	return params, nil
}

func checkMeasurement(params *regime.Params, z mat.Vector) error {
	_, m := params.Dims()
	if z == nil || z.Len() != m {
		return fmt.Errorf("%w: invalid measurement: expected length %d", slds.ErrDimension, m)
	}

	return nil
}

func predict(params *regime.Params, x mat.Vector, p mat.Matrix) (*mat.VecDense, *mat.Dense) {
	A := params.StateMatrix()

	// A*x
	xPred := &mat.VecDense{}
	xPred.MulVec(A, x)

	// A*P*A' + Q
	pPred := &mat.Dense{}
	pPred.Product(A, p, A.T())
	pPred.Add(pPred, params.StateNoiseCov())

	return xPred, pPred
}

func (k *SKF) innovate(params *regime.Params, x mat.Vector, p mat.Matrix, z mat.Vector) (*Innovation, error) {
	C := params.OutputMatrix()

	// z - C*x
	res := &mat.VecDense{}
	res.MulVec(C, x)
	res.SubVec(z, res)

	// P*C'
	pct := &mat.Dense{}
	pct.Mul(p, C.T())

	// Note: pct = P*C' so we reuse the result here
	// C*P*C' + R
	s := &mat.Dense{}
	s.Mul(C, pct)
	s.Add(s, params.OutputNoiseCov())

	if !matrix.IsFinite(s) {
		return nil, fmt.Errorf("%w: innovation covariance contains non-finite values", slds.ErrNumerical)
	}

	var lu mat.LU
	lu.Factorize(s)

	cond := lu.Cond()
	if logDet, _ := lu.LogDet(); math.IsInf(logDet, -1) || math.IsNaN(cond) || math.IsInf(cond, 1) {
		return nil, fmt.Errorf("%w: innovation covariance is singular", slds.ErrNumerical)
	}

	if cond > k.condTol {
		return nil, fmt.Errorf("%w: innovation covariance is ill-conditioned: condition number %g exceeds %g",
			slds.ErrNumerical, cond, k.condTol)
	}

	// K = P*C'*inv(S) is computed as K' = inv(S')*(P*C')'
	kt := &mat.Dense{}
	if err := lu.SolveTo(kt, true, pct.T()); err != nil {
		var c mat.Condition
		if !errors.As(err, &c) {
			return nil, fmt.Errorf("%w: failed to compute Kalman gain: %v", slds.ErrNumerical, err)
		}
	}

	return &Innovation{
		Residual: res,
		Cov:      s,
		Gain:     mat.DenseCopyOf(kt.T()),
		Cond:     cond,
	}, nil
}

func (k *SKF) correct(params *regime.Params, x mat.Vector, p mat.Matrix, in *Innovation) (slds.Estimate, error) {
	n, _ := params.Dims()
	C := params.OutputMatrix()

	// x + K*y
	xPost := &mat.VecDense{}
	xPost.MulVec(in.Gain, in.Residual)
	xPost.AddVec(x, xPost)

	// I - K*C
	ikc := &mat.Dense{}
	ikc.Mul(in.Gain, C)
	ikc.Sub(matrix.Identity(n), ikc)

	pPost := &mat.Dense{}
	switch k.update {
	case UpdateJoseph:
		// (I-K*C)*P*(I-K*C)' + K*R*K'
		pPost.Product(ikc, p, ikc.T())
		krk := &mat.Dense{}
		krk.Product(in.Gain, params.OutputNoiseCov(), in.Gain.T())
		pPost.Add(pPost, krk)
	default:
		// (I-K*C)*P
		pPost.Mul(ikc, p)
	}

	if !matrix.IsFinite(pPost) || !matrix.IsFinite(xPost) {
		return nil, fmt.Errorf("%w: posterior estimate contains non-finite values", slds.ErrNumerical)
	}

	if k.symmetrize {
		return estimate.NewBaseWithCov(xPost, matrix.Symmetrize(pPost))
	}

	return estimate.NewBaseWithCov(xPost, pPost)
}
