// Package config loads switching Kalman filter runs from YAML files.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	slds "github.com/milosgajdos/go-slds"
	"github.com/milosgajdos/go-slds/kalman/skf"
	"github.com/milosgajdos/go-slds/regime"
	"github.com/milosgajdos/go-slds/sim"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// MaxFileSize is the largest configuration file Load accepts.
const MaxFileSize = 1 * 1024 * 1024 // 1MB

// File is the configuration file layout.
type File struct {
	Regimes      []Regime      `yaml:"regimes"`
	Transition   [][]float64   `yaml:"transition,omitempty"`
	Filter       Filter        `yaml:"filter"`
	Init         Init          `yaml:"init"`
	Measurements []Measurement `yaml:"measurements,omitempty"`
}

// Regime holds matrices of a single regime stored row by row.
type Regime struct {
	ID   int         `yaml:"id"`
	Name string      `yaml:"name,omitempty"`
	A    [][]float64 `yaml:"a"`
	C    [][]float64 `yaml:"c"`
	Q    [][]float64 `yaml:"q"`
	R    [][]float64 `yaml:"r"`
}

// Filter holds filter options.
type Filter struct {
	Update        string  `yaml:"update,omitempty"`
	CondTolerance float64 `yaml:"cond_tolerance,omitempty"`
	Symmetrize    bool    `yaml:"symmetrize,omitempty"`
}

// Init is the initial filter estimate.
type Init struct {
	Mean []float64   `yaml:"mean"`
	Cov  [][]float64 `yaml:"cov"`
}

// Measurement is a measurement taken in a given regime.
type Measurement struct {
	Regime int       `yaml:"regime"`
	Z      []float64 `yaml:"z"`
}

// Model is a validated filter setup built from File.
type Model struct {
	Regimes      *regime.Set
	Filter       *skf.Config
	Init         *sim.InitCond
	Observations []skf.Observation
}

// Load reads and parses the configuration file stored in path.
// The file must have .yaml or .yml extension and must not exceed MaxFileSize.
func Load(path string) (*File, error) {
	cleanPath := filepath.Clean(path)

	if ext := filepath.Ext(cleanPath); ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("%w: config file must have .yaml or .yml extension, got %q", slds.ErrConfiguration, ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if fileInfo.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: config file too large: %d bytes (max %d)", slds.ErrConfiguration, fileInfo.Size(), MaxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes configuration from YAML data. Unknown fields are rejected.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	f := &File{}
	if err := dec.Decode(f); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config YAML: %v", slds.ErrConfiguration, err)
	}

	return f, nil
}

// Marshal encodes f as YAML.
func (f *File) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}

// Build validates f and builds the filter setup it describes.
// Any malformed content returns error wrapping slds.ErrConfiguration.
func (f *File) Build() (*Model, error) {
	regimes, err := f.regimes()
	if err != nil {
		return nil, err
	}

	update, err := skf.ParseUpdateForm(f.Filter.Update)
	if err != nil {
		return nil, err
	}

	filter := &skf.Config{
		Update:        update,
		CondTolerance: f.Filter.CondTolerance,
		Symmetrize:    f.Filter.Symmetrize,
	}

	if err := filter.Validate(); err != nil {
		return nil, err
	}

	ic, err := f.initCond(regimes.StateDim())
	if err != nil {
		return nil, err
	}

	obs, err := f.observations(regimes)
	if err != nil {
		return nil, err
	}

	return &Model{
		Regimes:      regimes,
		Filter:       filter,
		Init:         ic,
		Observations: obs,
	}, nil
}

func (f *File) regimes() (*regime.Set, error) {
	params := make(map[slds.RegimeID]*regime.Params, len(f.Regimes))
	names := make(map[slds.RegimeID]string, len(f.Regimes))

	for _, r := range f.Regimes {
		id := slds.RegimeID(r.ID)
		if _, ok := params[id]; ok {
			return nil, fmt.Errorf("%w: duplicate regime %d", slds.ErrConfiguration, r.ID)
		}

		mats := make([]*mat.Dense, 4)
		for i, m := range []struct {
			name string
			rows [][]float64
		}{{"a", r.A}, {"c", r.C}, {"q", r.Q}, {"r", r.R}} {
			d, err := dense(m.rows)
			if err != nil {
				return nil, fmt.Errorf("regime %d matrix %s: %w", r.ID, m.name, err)
			}
			mats[i] = d
		}

		p, err := regime.NewParams(mats[0], mats[1], mats[2], mats[3])
		if err != nil {
			return nil, fmt.Errorf("regime %d: %w", r.ID, err)
		}

		params[id] = p
		if r.Name != "" {
			names[id] = r.Name
		}
	}

	var trans *regime.Transition
	if len(f.Transition) > 0 {
		t, err := dense(f.Transition)
		if err != nil {
			return nil, fmt.Errorf("transition: %w", err)
		}

		trans, err = regime.NewTransition(t)
		if err != nil {
			return nil, err
		}
	}

	return regime.NewSet(params, trans, regime.WithNames(names))
}

func (f *File) initCond(n int) (*sim.InitCond, error) {
	if len(f.Init.Mean) != n {
		return nil, fmt.Errorf("%w: initial mean has length %d, expected %d", slds.ErrConfiguration, len(f.Init.Mean), n)
	}

	cov, err := dense(f.Init.Cov)
	if err != nil {
		return nil, fmt.Errorf("initial covariance: %w", err)
	}

	if r, c := cov.Dims(); r != n || c != n {
		return nil, fmt.Errorf("%w: initial covariance is [%d x %d], expected [%d x %d]", slds.ErrConfiguration, r, c, n, n)
	}

	if !mat.Equal(cov, cov.T()) {
		return nil, fmt.Errorf("%w: initial covariance is not symmetric", slds.ErrConfiguration)
	}

	ic := sim.NewInitCond(mat.NewVecDense(n, f.Init.Mean), mat.NewSymDense(n, cov.RawMatrix().Data))
	if err := ic.Validate(n); err != nil {
		return nil, err
	}

	return ic, nil
}

func (f *File) observations(regimes *regime.Set) ([]skf.Observation, error) {
	obs := make([]skf.Observation, len(f.Measurements))
	for i, m := range f.Measurements {
		id := slds.RegimeID(m.Regime)
		params, err := regimes.Params(id)
		if err != nil {
			return nil, err
		}

		if _, dim := params.Dims(); len(m.Z) != dim {
			return nil, fmt.Errorf("%w: measurement %d has length %d, regime %d expects %d",
				slds.ErrConfiguration, i, len(m.Z), m.Regime, dim)
		}

		obs[i] = skf.Observation{
			Regime: id,
			Z:      mat.NewVecDense(len(m.Z), append([]float64(nil), m.Z...)),
		}
	}

	return obs, nil
}

// dense builds a matrix from its rows.
func dense(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty matrix", slds.ErrConfiguration)
	}

	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d", slds.ErrConfiguration, i, len(row), cols)
		}
		data = append(data, row...)
	}

	return mat.NewDense(len(rows), cols, data), nil
}
