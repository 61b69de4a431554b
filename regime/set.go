package regime

import (
	"fmt"
	"sort"
	"strconv"

	slds "github.com/milosgajdos/go-slds"
)

// Set is an immutable table of regime parameters indexed by regime ID.
// It is safe for concurrent use.
type Set struct {
	params map[slds.RegimeID]*Params
	names  map[slds.RegimeID]string
	// ids are sorted regime IDs; their position is the regime index
	// used by the transition matrix
	ids   []slds.RegimeID
	index map[slds.RegimeID]int
	trans *Transition
	n     int
}

// Option configures Set
type Option func(*Set)

// WithNames labels regimes with human readable names.
func WithNames(names map[slds.RegimeID]string) Option {
	return func(s *Set) {
		for id, name := range names {
			s.names[id] = name
		}
	}
}

// NewSet creates new regime set from params and optional transition matrix t.
// Rows and columns of t are ordered by ascending regime ID.
// It returns error wrapping slds.ErrConfiguration if either of the following conditions is met:
//   - params is empty or contains nil parameters
//   - regimes do not share the same state dimension
//   - t is not nil and its size differs from the number of regimes
//   - a name is given for an unknown regime
func NewSet(params map[slds.RegimeID]*Params, t *Transition, opts ...Option) (*Set, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("%w: no regimes given", slds.ErrConfiguration)
	}

	s := &Set{
		params: make(map[slds.RegimeID]*Params, len(params)),
		names:  make(map[slds.RegimeID]string),
		ids:    make([]slds.RegimeID, 0, len(params)),
		index:  make(map[slds.RegimeID]int, len(params)),
		trans:  t,
		n:      -1,
	}

	for id, p := range params {
		if p == nil {
			return nil, fmt.Errorf("%w: nil parameters for regime %d", slds.ErrConfiguration, id)
		}

		n, _ := p.Dims()
		if s.n >= 0 && n != s.n {
			return nil, fmt.Errorf("%w: regime %d state dimension %d differs from %d", slds.ErrConfiguration, id, n, s.n)
		}
		s.n = n

		s.params[id] = p
		s.ids = append(s.ids, id)
	}

	sort.Slice(s.ids, func(i, j int) bool { return s.ids[i] < s.ids[j] })
	for i, id := range s.ids {
		s.index[id] = i
	}

	if t != nil && t.Size() != len(s.ids) {
		return nil, fmt.Errorf("%w: transition matrix size %d does not match %d regimes", slds.ErrConfiguration, t.Size(), len(s.ids))
	}

	for _, opt := range opts {
		opt(s)
	}

	for id := range s.names {
		if _, ok := s.params[id]; !ok {
			return nil, fmt.Errorf("%w: name given for unknown regime %d", slds.ErrConfiguration, id)
		}
	}

	return s, nil
}

// Params returns parameters of regime id.
// It returns error wrapping slds.ErrConfiguration if id is unknown.
func (s *Set) Params(id slds.RegimeID) (*Params, error) {
	p, ok := s.params[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown regime: %d", slds.ErrConfiguration, id)
	}

	return p, nil
}

// Has returns true if id is a known regime.
func (s *Set) Has(id slds.RegimeID) bool {
	_, ok := s.params[id]
	return ok
}

// IDs returns regime IDs in ascending order.
func (s *Set) IDs() []slds.RegimeID {
	ids := make([]slds.RegimeID, len(s.ids))
	copy(ids, s.ids)

	return ids
}

// Len returns the number of regimes.
func (s *Set) Len() int { return len(s.ids) }

// StateDim returns the state dimension shared by all regimes.
func (s *Set) StateDim() int { return s.n }

// Index returns position of regime id in the ascending ID order.
func (s *Set) Index(id slds.RegimeID) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

// ID returns regime ID at index i in the ascending ID order.
// It panics if i is out of range.
func (s *Set) ID(i int) slds.RegimeID {
	return s.ids[i]
}

// Name returns name of regime id.
// Unnamed regimes are named by their ID.
func (s *Set) Name(id slds.RegimeID) string {
	if name, ok := s.names[id]; ok {
		return name
	}

	return strconv.Itoa(int(id))
}

// Transition returns the regime transition matrix or nil if none was given.
func (s *Set) Transition() *Transition {
	return s.trans
}
