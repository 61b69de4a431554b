// Package trace records switching Kalman filter runs and stores them as compact time series blobs.
package trace

import (
	"fmt"
	"iter"
	"math"
	"time"

	"github.com/arloliu/mebo"
	slds "github.com/milosgajdos/go-slds"
)

const (
	// RegimeMetric stores the active regime ID; its tag is the regime name
	RegimeMetric = "regime"
	// MeanMetric is the name format of posterior mean components
	MeanMetric = "mean.%d"
	// VarMetric is the name format of posterior variances
	VarMetric = "var.%d"
)

// Step is a single recorded filter step.
type Step struct {
	// Time is the step timestamp
	Time time.Time
	// Regime is the active regime
	Regime slds.RegimeID
	// Name is the regime name
	Name string
	// Mean is the posterior mean
	Mean []float64
	// Var is the diagonal of the posterior covariance
	Var []float64
}

// Recorder records filter steps. It is not safe for concurrent use.
type Recorder struct {
	start time.Time
	dt    time.Duration
	steps []Step
}

// NewRecorder creates new Recorder whose first step is stamped with start
// and every following step dt later.
func NewRecorder(start time.Time, dt time.Duration) (*Recorder, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("%w: invalid step interval: %v", slds.ErrConfiguration, dt)
	}

	return &Recorder{
		start: start,
		dt:    dt,
	}, nil
}

// Record appends posterior estimate est of a step taken in regime r named name.
func (r *Recorder) Record(regime slds.RegimeID, name string, est slds.Estimate) error {
	if est == nil {
		return fmt.Errorf("%w: nil estimate", slds.ErrConfiguration)
	}

	val := est.Val()
	cov := est.Cov()

	n := val.Len()
	if len(r.steps) > 0 && len(r.steps[0].Mean) != n {
		return fmt.Errorf("%w: estimate has dimension %d, trace has %d", slds.ErrDimension, n, len(r.steps[0].Mean))
	}

	if len(r.steps) == math.MaxUint16 {
		return fmt.Errorf("%w: trace is full: %d steps", slds.ErrConfiguration, len(r.steps))
	}

	step := Step{
		Time:   r.start.Add(time.Duration(len(r.steps)) * r.dt),
		Regime: regime,
		Name:   name,
		Mean:   make([]float64, n),
		Var:    make([]float64, n),
	}

	for i := 0; i < n; i++ {
		step.Mean[i] = val.AtVec(i)
		step.Var[i] = cov.At(i, i)
	}

	r.steps = append(r.steps, step)

	return nil
}

// Len returns number of recorded steps.
func (r *Recorder) Len() int {
	return len(r.steps)
}

// Steps returns recorded steps.
func (r *Recorder) Steps() []Step {
	steps := make([]Step, len(r.steps))
	copy(steps, r.steps)

	return steps
}

// Encode encodes recorded steps into a numeric blob.
func (r *Recorder) Encode() ([]byte, error) {
	if len(r.steps) == 0 {
		return nil, fmt.Errorf("%w: empty trace", slds.ErrConfiguration)
	}

	enc, err := mebo.NewTaggedNumericEncoder(r.start)
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	count := len(r.steps)
	ts := make([]int64, count)
	for i, s := range r.steps {
		ts[i] = s.Time.UnixMicro()
	}

	regimes := make([]float64, count)
	names := make([]string, count)
	for i, s := range r.steps {
		regimes[i] = float64(s.Regime)
		names[i] = s.Name
	}

	if err := encodeMetric(enc, RegimeMetric, ts, regimes, names); err != nil {
		return nil, err
	}

	for j := range r.steps[0].Mean {
		mean := make([]float64, count)
		variance := make([]float64, count)
		for i, s := range r.steps {
			mean[i] = s.Mean[j]
			variance[i] = s.Var[j]
		}

		if err := encodeMetric(enc, fmt.Sprintf(MeanMetric, j), ts, mean, nil); err != nil {
			return nil, err
		}

		if err := encodeMetric(enc, fmt.Sprintf(VarMetric, j), ts, variance, nil); err != nil {
			return nil, err
		}
	}

	data, err := enc.Finish()
	if err != nil {
		return nil, fmt.Errorf("failed to finish trace blob: %w", err)
	}

	return data, nil
}

type encoder interface {
	StartMetricName(string, int) error
	AddDataPoints([]int64, []float64, []string) error
	EndMetric() error
}

func encodeMetric(enc encoder, name string, ts []int64, vals []float64, tags []string) error {
	if err := enc.StartMetricName(name, len(ts)); err != nil {
		return fmt.Errorf("failed to start metric %s: %w", name, err)
	}

	if err := enc.AddDataPoints(ts, vals, tags); err != nil {
		return fmt.Errorf("failed to add %s data points: %w", name, err)
	}

	if err := enc.EndMetric(); err != nil {
		return fmt.Errorf("failed to end metric %s: %w", name, err)
	}

	return nil
}

// Decode decodes steps from a numeric blob created by Recorder.Encode.
func Decode(data []byte) ([]Step, error) {
	dec, err := mebo.NewNumericDecoder(data)
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	b, err := dec.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode trace blob: %w", err)
	}

	if !b.HasMetricName(RegimeMetric) {
		return nil, fmt.Errorf("%w: trace blob has no %s metric", slds.ErrConfiguration, RegimeMetric)
	}

	count := b.LenByName(RegimeMetric)
	steps := make([]Step, count)
	for i, dp := range b.AllByName(RegimeMetric) {
		if i >= count {
			break
		}
		steps[i] = Step{
			Time:   time.UnixMicro(dp.Ts).UTC(),
			Regime: slds.RegimeID(dp.Val),
			Name:   dp.Tag,
		}
	}

	for j := 0; b.HasMetricName(fmt.Sprintf(MeanMetric, j)); j++ {
		if err := decodeMetric(b.AllValuesByName(fmt.Sprintf(MeanMetric, j)), steps, func(s *Step, v float64) {
			s.Mean = append(s.Mean, v)
		}); err != nil {
			return nil, err
		}

		if err := decodeMetric(b.AllValuesByName(fmt.Sprintf(VarMetric, j)), steps, func(s *Step, v float64) {
			s.Var = append(s.Var, v)
		}); err != nil {
			return nil, err
		}
	}

	return steps, nil
}

func decodeMetric(vals iter.Seq[float64], steps []Step, set func(*Step, float64)) error {
	i := 0
	for v := range vals {
		if i >= len(steps) {
			return fmt.Errorf("%w: trace metrics have different lengths", slds.ErrDimension)
		}
		set(&steps[i], v)
		i++
	}

	if i != len(steps) {
		return fmt.Errorf("%w: trace metrics have different lengths", slds.ErrDimension)
	}

	return nil
}
