// SPDX-License-Identifier: EPL-2.0

package morph

import (
	"fmt"

	"github.com/ik5/audresynth/utils"
)

// ParamKind is the value type of a schema entry.
type ParamKind int

const (
	KindFloat ParamKind = iota
	KindInt
	KindChoice
)

// ParamSpec describes one tunable parameter. Choice parameters carry their
// option names; the value is the option index.
type ParamSpec struct {
	ID      string
	Name    string
	Kind    ParamKind
	Min     float64
	Max     float64
	Default float64
	Options []string
}

// Parameter IDs.
const (
	ParamType        = "morph_type"
	ParamMorphAmount = "morph_amount"
	ParamPhaseAmount = "phase_amount"
	ParamWaveform    = "waveform"
	ParamMinHarmonic = "min_harmonic"
)

// Schema lists the morph parameters.
func Schema() []ParamSpec {
	d := DefaultParams()
	return []ParamSpec{
		{ID: ParamType, Name: "Morph", Kind: KindChoice, Max: float64(len(typeNames) - 1), Options: typeNames[:]},
		{ID: ParamMorphAmount, Name: "Morph amount", Kind: KindFloat, Max: 1, Default: d.MorphAmount},
		{ID: ParamPhaseAmount, Name: "Phase amount", Kind: KindFloat, Max: 1, Default: d.PhaseAmount},
		{ID: ParamWaveform, Name: "Waveform", Kind: KindChoice, Max: float64(len(waveformNames) - 1), Options: waveformNames[:]},
		{ID: ParamMinHarmonic, Name: "Minimum harmonic", Kind: KindInt, Min: 1, Max: 64, Default: float64(d.MinHarmonic)},
	}
}

// Set applies one schema parameter to t and p, clamping to the schema
// bounds.
func Set(t *Type, p *Params, id string, v float64) error {
	for _, spec := range Schema() {
		if spec.ID != id {
			continue
		}
		v = utils.Clamp64(v, spec.Min, spec.Max)

		switch id {
		case ParamType:
			*t = Type(int(v))
		case ParamMorphAmount:
			p.MorphAmount = v
		case ParamPhaseAmount:
			p.PhaseAmount = v
		case ParamWaveform:
			p.Waveform = Waveform(int(v))
		case ParamMinHarmonic:
			p.MinHarmonic = int(v)
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownParam, id)
}
