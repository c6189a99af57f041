package browser

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Transform is one named processing function. Fn must be pure: outputs
// depend only on inputs, and units are preserved on declared outputs.
// Inputs and Outputs list the canonical argument names; the pipeline
// maps step-level names onto them positionally. Scalar marks which
// outputs yield a single quantity per record; unmarked outputs are
// waveforms.
type Transform struct {
	Fn      func(inputs map[string]Datum) (map[string]Datum, error)
	Inputs  []string
	Outputs []string
	Scalar  []bool
}

var registry = map[string]Transform{}

func Register(name string, t Transform) {
	registry[name] = t
}

func Resolve(name string) (Transform, error) {
	t, ok := registry[name]
	if !ok {
		return Transform{}, &ErrUnknownTransform{Name: name}
	}
	return t, nil
}

func init() {
	Register("bl_subtract", Transform{
		Fn:      blSubtract,
		Inputs:  []string{"waveform", "baseline"},
		Outputs: []string{"out"},
	})
	Register("pole_zero", Transform{
		Fn:      poleZero,
		Inputs:  []string{"waveform", "tau"},
		Outputs: []string{"out"},
	})
	Register("trap_filter", Transform{
		Fn:      trapFilter,
		Inputs:  []string{"waveform", "rise", "flat"},
		Outputs: []string{"out"},
	})
	Register("trap_max", Transform{
		Fn:      trapMax,
		Inputs:  []string{"waveform"},
		Outputs: []string{"out"},
		Scalar:  []bool{true},
	})
	Register("fixed_time_pickoff", Transform{
		Fn:      fixedTimePickoff,
		Inputs:  []string{"waveform", "t"},
		Outputs: []string{"out"},
		Scalar:  []bool{true},
	})
}

func seriesInput(inputs map[string]Datum, name string) (Series, error) {
	s, ok := inputs[name].(Series)
	if !ok {
		return Series{}, fmt.Errorf("input %q must be a waveform", name)
	}
	return s, nil
}

func scalarInput(inputs map[string]Datum, name string) (Quantity, error) {
	q, ok := inputs[name].(Quantity)
	if !ok {
		return Quantity{}, fmt.Errorf("input %q must be a scalar", name)
	}
	return q, nil
}

// blSubtract subtracts a constant baseline from the waveform. The
// baseline is converted to the waveform's unit first.
func blSubtract(inputs map[string]Datum) (map[string]Datum, error) {
	wf, err := seriesInput(inputs, "waveform")
	if err != nil {
		return nil, err
	}
	baseline, err := scalarInput(inputs, "baseline")
	if err != nil {
		return nil, err
	}
	converted, err := baseline.Convert(wf.Unit)
	if err != nil {
		return nil, err
	}
	out := make([]float64, wf.Len())
	copy(out, wf.Samples)
	floats.AddConst(-converted.Value, out)
	return map[string]Datum{"out": Series{Samples: out, Unit: wf.Unit}}, nil
}

// poleZero applies the classic single-pole pole-zero correction with a
// decay constant tau given in samples.
func poleZero(inputs map[string]Datum) (map[string]Datum, error) {
	wf, err := seriesInput(inputs, "waveform")
	if err != nil {
		return nil, err
	}
	tau, err := scalarInput(inputs, "tau")
	if err != nil {
		return nil, err
	}
	if tau.Value <= 0 {
		return nil, fmt.Errorf("tau must be positive, got %g", tau.Value)
	}
	decay := math.Exp(-1.0 / tau.Value)
	out := make([]float64, wf.Len())
	if wf.Len() > 0 {
		out[0] = wf.Samples[0]
		for i := 1; i < wf.Len(); i++ {
			out[i] = out[i-1] + wf.Samples[i] - wf.Samples[i-1]*decay
		}
	}
	return map[string]Datum{"out": Series{Samples: out, Unit: wf.Unit}}, nil
}

// trapFilter runs a symmetric trapezoidal filter with the given rise
// and flat-top lengths, both in samples.
func trapFilter(inputs map[string]Datum) (map[string]Datum, error) {
	wf, err := seriesInput(inputs, "waveform")
	if err != nil {
		return nil, err
	}
	riseQ, err := scalarInput(inputs, "rise")
	if err != nil {
		return nil, err
	}
	flatQ, err := scalarInput(inputs, "flat")
	if err != nil {
		return nil, err
	}
	rise := int(riseQ.Value)
	flat := int(flatQ.Value)
	if rise < 1 || flat < 0 {
		return nil, fmt.Errorf("invalid trapezoid lengths rise=%d flat=%d", rise, flat)
	}
	n := wf.Len()
	if 2*rise+flat > n {
		return nil, fmt.Errorf("trapezoid (2*%d+%d samples) longer than waveform (%d)", rise, flat, n)
	}

	cumulative := make([]float64, n+1)
	for i, v := range wf.Samples {
		cumulative[i+1] = cumulative[i] + v
	}
	window := func(start, length int) float64 {
		return cumulative[start+length] - cumulative[start]
	}
	out := make([]float64, n)
	norm := float64(rise)
	for i := 2*rise + flat - 1; i < n; i++ {
		lead := window(i-rise+1, rise)
		lag := window(i-2*rise-flat+1, rise)
		out[i] = (lead - lag) / norm
	}
	return map[string]Datum{"out": Series{Samples: out, Unit: wf.Unit}}, nil
}

// trapMax picks the waveform maximum as a scalar feature.
func trapMax(inputs map[string]Datum) (map[string]Datum, error) {
	wf, err := seriesInput(inputs, "waveform")
	if err != nil {
		return nil, err
	}
	if wf.Len() == 0 {
		return nil, fmt.Errorf("empty waveform")
	}
	return map[string]Datum{"out": Quantity{Value: floats.Max(wf.Samples), Unit: wf.Unit}}, nil
}

// fixedTimePickoff samples the waveform at a fixed time t, in samples.
func fixedTimePickoff(inputs map[string]Datum) (map[string]Datum, error) {
	wf, err := seriesInput(inputs, "waveform")
	if err != nil {
		return nil, err
	}
	t, err := scalarInput(inputs, "t")
	if err != nil {
		return nil, err
	}
	i := int(t.Value)
	if i < 0 || i >= wf.Len() {
		return nil, fmt.Errorf("pickoff time %d outside waveform of %d samples", i, wf.Len())
	}
	return map[string]Datum{"out": Quantity{Value: wf.Samples[i], Unit: wf.Unit}}, nil
}
