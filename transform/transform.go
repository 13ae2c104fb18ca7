// SPDX-License-Identifier: EPL-2.0

package transform

import (
	"fmt"
	"strings"

	"github.com/ik5/audresynth/audio"
	"github.com/ik5/audresynth/brain"
	"github.com/ik5/audresynth/morph"
	"github.com/ik5/audresynth/utils"
	"github.com/ik5/audresynth/window"
)

// Kind identifies a transformer variant.
type Kind int

const (
	Passthrough Kind = iota
	SineMatch
	SimpleBrainMatch
	ExpandedBrainMatch
)

var kindNames = [...]string{
	Passthrough:        "passthrough",
	SineMatch:          "sine-match",
	SimpleBrainMatch:   "simple-brain-match",
	ExpandedBrainMatch: "expanded-brain-match",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("transform(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind accepts the names printed by String.
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return Passthrough, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Transformer turns one input chunk into one output chunk. in and out have
// the same shape; the return value is the number of valid output frames.
type Transformer interface {
	Kind() Kind
	Transform(in, out *audio.Chunk) int
	// AdditionalLatency is added to the chunk size when reporting latency.
	AdditionalLatency() int
	SetParam(id string, v float64) error
	Reset()
}

// ParamSpec describes one transformer parameter.
type ParamSpec = morph.ParamSpec

// Deps is what constructors may use. Brain matchers require Brain and
// analyse with its sample rate and window; the other fields serve the
// remaining variants.
type Deps struct {
	Brain      *brain.Brain
	SampleRate int
	ChunkSize  int
	Window     window.Type
}

// Descriptor is the data describing a transformer variant.
type Descriptor struct {
	Kind   Kind
	Name   string
	Params []ParamSpec
	New    func(Deps) (Transformer, error)
}

// Parameter IDs.
const (
	ParamGain        = "gain"
	ParamMix         = "mix"
	ParamOctave      = "octave"
	ParamRMSFollow   = "rms_follow"
	ParamGate        = "gate"
	ParamChannelMode = "channel_mode"
)

var (
	passthroughParams = []ParamSpec{
		{ID: ParamGain, Name: "Gain", Kind: morph.KindFloat, Max: 4, Default: 1},
	}
	sineParams = []ParamSpec{
		{ID: ParamMix, Name: "Mix", Kind: morph.KindFloat, Max: 1, Default: 1},
		{ID: ParamOctave, Name: "Octave", Kind: morph.KindInt, Min: -3, Max: 3},
	}
	simpleParams = []ParamSpec{
		{ID: ParamRMSFollow, Name: "Follow level", Kind: morph.KindFloat, Max: 1, Default: 1},
		{ID: ParamGate, Name: "Gate", Kind: morph.KindFloat, Max: 1, Default: 0.0005},
	}
	expandedParams = append(simpleParams[:len(simpleParams):len(simpleParams)],
		ParamSpec{
			ID: ParamChannelMode, Name: "Channels", Kind: morph.KindChoice,
			Max: 1, Options: []string{"average", "independent"},
		},
	)
)

var descriptors = [...]Descriptor{
	Passthrough:        {Kind: Passthrough, Name: kindNames[Passthrough], Params: passthroughParams, New: newPassthrough},
	SineMatch:          {Kind: SineMatch, Name: kindNames[SineMatch], Params: sineParams, New: newSine},
	SimpleBrainMatch:   {Kind: SimpleBrainMatch, Name: kindNames[SimpleBrainMatch], Params: simpleParams, New: newSimpleBrainMatch},
	ExpandedBrainMatch: {Kind: ExpandedBrainMatch, Name: kindNames[ExpandedBrainMatch], Params: expandedParams, New: newExpandedBrainMatch},
}

// Descriptors lists every variant in Kind order.
func Descriptors() []Descriptor {
	return descriptors[:]
}

// Lookup returns the descriptor of k.
func Lookup(k Kind) (Descriptor, bool) {
	if k < 0 || int(k) >= len(descriptors) {
		return Descriptor{}, false
	}
	return descriptors[k], true
}

// New builds a transformer of kind k with its default parameters.
func New(k Kind, deps Deps) (Transformer, error) {
	d, ok := Lookup(k)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}

	t, err := d.New(deps)
	if err != nil {
		return nil, fmt.Errorf("new %s: %w", d.Name, err)
	}
	return t, nil
}

// setParam clamps v to the schema entry id and hands it to apply.
func setParam(specs []ParamSpec, id string, v float64, apply func(id string, v float64)) error {
	for _, spec := range specs {
		if spec.ID == id {
			apply(id, utils.Clamp64(v, spec.Min, spec.Max))
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownParam, id)
}

// silence zeroes every frame of c.
func silence(c *audio.Chunk) {
	for _, s := range c.Samples {
		clear(s)
	}
}

// copyScaled writes src*gain into dst up to n frames and zeroes the rest.
func copyScaled(dst, src []float32, gain float32, n int) {
	n = min(n, len(src), len(dst))
	for i, v := range src[:n] {
		dst[i] = v * gain
	}
	clear(dst[n:])
}
