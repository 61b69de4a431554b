package skf

import (
	"fmt"
	"math"
	"strings"

	slds "github.com/milosgajdos/go-slds"
	"gonum.org/v1/gonum/mat"
)

// UpdateForm selects covariance update formula
type UpdateForm int

const (
	// UpdateStandard updates covariance as (I-K*C)*P
	UpdateStandard UpdateForm = iota
	// UpdateJoseph updates covariance as (I-K*C)*P*(I-K*C)' + K*R*K'
	UpdateJoseph
)

// String implements the Stringer interface.
func (u UpdateForm) String() string {
	switch u {
	case UpdateStandard:
		return "standard"
	case UpdateJoseph:
		return "joseph"
	}

	return fmt.Sprintf("UpdateForm(%d)", int(u))
}

// ParseUpdateForm parses covariance update form name.
// Empty string parses to UpdateStandard.
func ParseUpdateForm(s string) (UpdateForm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard":
		return UpdateStandard, nil
	case "joseph":
		return UpdateJoseph, nil
	}

	return 0, fmt.Errorf("%w: unknown covariance update form: %q", slds.ErrConfiguration, s)
}

// Config contains SKF configuration parameters
type Config struct {
	// Update is covariance update form
	Update UpdateForm
	// CondTolerance is the largest condition number of the innovation
	// covariance that is still inverted. Zero means mat.ConditionTolerance.
	CondTolerance float64
	// Symmetrize replaces the posterior covariance P by (P+P')/2
	Symmetrize bool
}

// DefaultConfig returns default SKF configuration
func DefaultConfig() *Config {
	return &Config{
		Update:        UpdateStandard,
		CondTolerance: mat.ConditionTolerance,
	}
}

// Validate returns error wrapping slds.ErrConfiguration if the update form is unknown
// or the condition number tolerance is negative or NaN.
func (c *Config) Validate() error {
	if c.Update != UpdateStandard && c.Update != UpdateJoseph {
		return fmt.Errorf("%w: invalid covariance update form: %v", slds.ErrConfiguration, c.Update)
	}

	if math.IsNaN(c.CondTolerance) || c.CondTolerance < 0 {
		return fmt.Errorf("%w: invalid condition number tolerance: %v", slds.ErrConfiguration, c.CondTolerance)
	}

	return nil
}
