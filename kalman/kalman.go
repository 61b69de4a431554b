package kalman

import (
	slds "github.com/milosgajdos/go-slds"
	"gonum.org/v1/gonum/mat"
)

// Kalman is a regime-conditional Kalman Filter
type Kalman interface {
	// slds.Filter is regime-conditional dynamical system filter
	slds.Filter
	// StateDim returns dimension of the filtered state
	StateDim() int
	// Regimes returns regimes the filter can step through
	Regimes() []slds.RegimeID
	// Gain returns Kalman gain for predicted estimate (x, p), measurement z and regime r
	Gain(x mat.Vector, p mat.Matrix, r slds.RegimeID, z mat.Vector) (mat.Matrix, error)
}
