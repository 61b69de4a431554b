package trace

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	slds "github.com/milosgajdos/go-slds"
	"github.com/milosgajdos/go-slds/estimate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func newEstimate(t *testing.T, mean []float64, cov []float64) slds.Estimate {
	n := len(mean)
	est, err := estimate.NewBaseWithCov(mat.NewVecDense(n, mean), mat.NewDense(n, n, cov))
	require.NoError(t, err)
	return est
}

func TestNewRecorder(t *testing.T) {
	assert := assert.New(t)

	r, err := NewRecorder(time.Now(), 0)
	assert.Nil(r)
	assert.True(errors.Is(err, slds.ErrConfiguration))

	r, err = NewRecorder(time.Now(), time.Second)
	assert.NotNil(r)
	assert.NoError(err)
	assert.Equal(0, r.Len())

	_, err = r.Encode()
	assert.True(errors.Is(err, slds.ErrConfiguration))
}

func TestRecord(t *testing.T) {
	assert := assert.New(t)

	start := time.Unix(1700000000, 0).UTC()
	r, err := NewRecorder(start, 100*time.Millisecond)
	require.NoError(t, err)

	assert.NoError(r.Record(0, "Stationary", newEstimate(t, []float64{1, 2}, []float64{0.5, 0.1, 0.1, 0.25})))
	assert.NoError(r.Record(1, "Moving", newEstimate(t, []float64{3, 4}, []float64{1, 0, 0, 2})))

	err = r.Record(1, "Moving", newEstimate(t, []float64{3}, []float64{1}))
	assert.True(errors.Is(err, slds.ErrDimension))

	assert.True(errors.Is(r.Record(0, "", nil), slds.ErrConfiguration))

	steps := r.Steps()
	assert.Len(steps, 2)
	assert.Equal([]float64{0.5, 0.25}, steps[0].Var)
	assert.True(steps[1].Time.Equal(start.Add(100 * time.Millisecond)))
}

func TestEncodeDecode(t *testing.T) {
	start := time.Unix(1700000000, 0).UTC()
	r, err := NewRecorder(start, time.Second)
	require.NoError(t, err)

	require.NoError(t, r.Record(0, "Stationary", newEstimate(t, []float64{0.0910}, []float64{0.0910})))
	require.NoError(t, r.Record(0, "Stationary", newEstimate(t, []float64{0.1465}, []float64{0.0522})))
	require.NoError(t, r.Record(1, "Moving", newEstimate(t, []float64{1.0521}, []float64{0.0885})))

	data, err := r.Encode()
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	steps, err := Decode(data)
	require.NoError(t, err)

	if diff := cmp.Diff(r.Steps(), steps); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeInvalid(t *testing.T) {
	_, err := Decode([]byte("not a blob"))
	assert.Error(t, err)
}
