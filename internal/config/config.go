// internal/config/config.go
// Package config loads the optional campaign thresholds file. Flags always
// win over the file; the file wins over built-in defaults.
package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"quasim/internal/campaign"

	"quasim-core/kernel"
	"quasim-core/seed"
)

// Thresholds is the on-disk campaign policy. All fields are optional;
// zero values fall back to the built-in defaults.
type Thresholds struct {
	MeanFidelityGate    float64 `yaml:"mean_fidelity_gate"`
	StandardErrorGate   float64 `yaml:"standard_error_gate"`
	ConvergenceRateGate float64 `yaml:"convergence_rate_gate"`
	NominalReference    float64 `yaml:"nominal_reference"`
	FidelityThreshold   float64 `yaml:"fidelity_threshold"`
	DriftLimitMicros    float64 `yaml:"drift_limit_micros"`
	NoiseAmplitude      float64 `yaml:"noise_amplitude"`
	FaultRate           float64 `yaml:"fault_rate"`
}

// Default returns the built-in policy.
func Default() Thresholds {
	return Thresholds{
		MeanFidelityGate:    campaign.DefaultMeanFidelityGate,
		StandardErrorGate:   campaign.DefaultStandardErrorGate,
		ConvergenceRateGate: campaign.DefaultConvergenceRateGate,
		NominalReference:    campaign.DefaultNominalReference,
		FidelityThreshold:   kernel.DefaultFidelityThreshold,
		DriftLimitMicros:    seed.DefaultDriftLimitMicros,
		NoiseAmplitude:      kernel.DefaultNoiseAmplitude,
		FaultRate:           kernel.DefaultFaultRate,
	}
}

// Load parses a thresholds document from r. Unknown keys are rejected so
// a typoed gate name cannot silently fall back to a default.
func Load(r io.Reader) (Thresholds, error) {
	t := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		if err == io.EOF {
			return Default(), nil
		}
		return Thresholds{}, fmt.Errorf("parse thresholds: %w", err)
	}
	if err := t.validate(); err != nil {
		return Thresholds{}, err
	}
	return t, nil
}

// LoadFile reads path; an empty path yields the defaults.
func LoadFile(path string) (Thresholds, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Thresholds{}, err
	}
	defer f.Close()
	t, err := Load(f)
	if err != nil {
		return Thresholds{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func (t Thresholds) validate() error {
	unit := func(name string, v float64) error {
		if v < 0 || v > 1 {
			return fmt.Errorf("thresholds: %s %g outside [0,1]", name, v)
		}
		return nil
	}
	if err := unit("mean_fidelity_gate", t.MeanFidelityGate); err != nil {
		return err
	}
	if err := unit("convergence_rate_gate", t.ConvergenceRateGate); err != nil {
		return err
	}
	if err := unit("fidelity_threshold", t.FidelityThreshold); err != nil {
		return err
	}
	if t.StandardErrorGate < 0 {
		return fmt.Errorf("thresholds: standard_error_gate %g negative", t.StandardErrorGate)
	}
	if t.DriftLimitMicros < 0 {
		return fmt.Errorf("thresholds: drift_limit_micros %g negative", t.DriftLimitMicros)
	}
	return nil
}
