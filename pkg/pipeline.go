package browser

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// RawWaveformName is the reserved input name carrying each record's raw
// waveform into the processing chain.
const RawWaveformName = "waveform"

// ParamSpec is one parameter binding in a step configuration: either a
// literal value or the name of a parameter database entry. A literal
// always wins over a database lookup.
type ParamSpec struct {
	Value  *float64 `json:"value,omitempty"`
	Unit   Unit     `json:"unit,omitempty"`
	Lookup string   `json:"lookup,omitempty"`
}

// StepConfig is the declarative description of one processing step.
// Inputs map positionally onto the transform's canonical inputs; each
// entry is the raw waveform name, another step's output, or a
// parameter name.
type StepConfig struct {
	Name     string               `json:"name"`
	Function string               `json:"function"`
	Inputs   []string             `json:"inputs"`
	Outputs  []string             `json:"outputs"`
	Params   map[string]ParamSpec `json:"params,omitempty"`
}

// LoadPipelineConfig reads a JSON step list from disk.
func LoadPipelineConfig(filename string) ([]StepConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var steps []StepConfig
	if err := json.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("error parsing pipeline configuration: %w", err)
	}
	return steps, nil
}

type wiredInput struct {
	name  string
	param *Quantity // resolved parameter value, nil when fed from env
}

type wiredStep struct {
	name      string
	transform Transform
	inputs    []wiredInput
	outputs   []string
}

// Pipeline is a DAG of processing steps, resolved once at construction
// and evaluated fresh for every record. Evaluation is stateless across
// records: a step needing channel-scoped configuration must take it
// from the parameter database, never from run state.
type Pipeline struct {
	steps   []wiredStep // topological order
	outputs []string    // every declared output name
	scalars []string    // the scalar subset, same order
}

// NewPipeline resolves a step list against the transform registry and
// the parameter database for one channel. Cycles and unresolvable
// inputs are construction errors, never evaluation errors.
func NewPipeline(configs []StepConfig, channel int, params ParameterDatabase) (*Pipeline, error) {
	producers := make(map[string]int) // output name -> config position
	for i, cfg := range configs {
		for _, out := range cfg.Outputs {
			if out == RawWaveformName {
				return nil, fmt.Errorf("step %q: output may not shadow %q", cfg.Name, RawWaveformName)
			}
			if prev, dup := producers[out]; dup {
				return nil, fmt.Errorf("output %q produced by both %q and %q",
					out, configs[prev].Name, cfg.Name)
			}
			producers[out] = i
		}
	}

	wired := make([]wiredStep, len(configs))
	edges := make([][]int, len(configs))    // dependency -> dependents
	indegree := make([]int, len(configs))
	for i, cfg := range configs {
		transform, err := Resolve(cfg.Function)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", cfg.Name, err)
		}
		if len(cfg.Inputs) != len(transform.Inputs) {
			return nil, fmt.Errorf("step %q: function %q takes %d inputs, %d configured",
				cfg.Name, cfg.Function, len(transform.Inputs), len(cfg.Inputs))
		}
		if len(cfg.Outputs) != len(transform.Outputs) {
			return nil, fmt.Errorf("step %q: function %q yields %d outputs, %d configured",
				cfg.Name, cfg.Function, len(transform.Outputs), len(cfg.Outputs))
		}

		inputs := make([]wiredInput, len(cfg.Inputs))
		for j, input := range cfg.Inputs {
			switch {
			case input == RawWaveformName:
				inputs[j] = wiredInput{name: input}
			default:
				if producer, ok := producers[input]; ok {
					if producer == i {
						return nil, &ErrCyclicDependency{Steps: []string{cfg.Name}}
					}
					inputs[j] = wiredInput{name: input}
					edges[producer] = append(edges[producer], i)
					indegree[i]++
					continue
				}
				value, err := resolveParameter(cfg, input, channel, params)
				if err != nil {
					return nil, err
				}
				inputs[j] = wiredInput{name: input, param: &value}
			}
		}
		wired[i] = wiredStep{
			name:      cfg.Name,
			transform: transform,
			inputs:    inputs,
			outputs:   cfg.Outputs,
		}
	}

	order, err := topoSort(configs, edges, indegree)
	if err != nil {
		return nil, err
	}

	pipeline := &Pipeline{}
	for _, i := range order {
		pipeline.steps = append(pipeline.steps, wired[i])
		pipeline.outputs = append(pipeline.outputs, wired[i].outputs...)
		for j, out := range wired[i].outputs {
			if scalar := wired[i].transform.Scalar; j < len(scalar) && scalar[j] {
				pipeline.scalars = append(pipeline.scalars, out)
			}
		}
	}
	return pipeline, nil
}

// resolveParameter applies the override order: step-level literal,
// step-level lookup alias, then a database lookup under the input name
// itself.
func resolveParameter(cfg StepConfig, input string, channel int, params ParameterDatabase) (Quantity, error) {
	if spec, ok := cfg.Params[input]; ok {
		if spec.Value != nil {
			return Quantity{Value: *spec.Value, Unit: spec.Unit}, nil
		}
		if spec.Lookup != "" {
			if params == nil {
				return Quantity{}, &ErrUnresolvedInput{Step: cfg.Name, Input: input}
			}
			value, err := params.Lookup(channel, spec.Lookup)
			if err != nil {
				return Quantity{}, fmt.Errorf("step %q: %w", cfg.Name, err)
			}
			return value, nil
		}
	}
	if params != nil {
		value, err := params.Lookup(channel, input)
		if err == nil {
			return value, nil
		}
	}
	return Quantity{}, &ErrUnresolvedInput{Step: cfg.Name, Input: input}
}

func topoSort(configs []StepConfig, edges [][]int, indegree []int) ([]int, error) {
	indegree = slices.Clone(indegree)
	var ready, order []int
	for i := range configs {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}
	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]
		order = append(order, i)
		for _, dependent := range edges[i] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}
	if len(order) != len(configs) {
		var cycle []string
		for i, cfg := range configs {
			if indegree[i] > 0 {
				cycle = append(cycle, cfg.Name)
			}
		}
		return nil, &ErrCyclicDependency{Steps: cycle}
	}
	return order, nil
}

// OutputNames returns every declared output, in evaluation order.
func (p *Pipeline) OutputNames() []string {
	return slices.Clone(p.outputs)
}

// ScalarOutputNames returns the declared outputs that yield a single
// quantity per record, in evaluation order.
func (p *Pipeline) ScalarOutputNames() []string {
	return slices.Clone(p.scalars)
}

// Evaluate runs the chain on one record and returns a value for every
// declared output. A failing transform aborts evaluation for this one
// record only; skip-or-halt policy belongs to the caller.
func (p *Pipeline) Evaluate(record Record) (map[string]Datum, error) {
	env := map[string]Datum{RawWaveformName: record.Waveform}
	for _, step := range p.steps {
		inputs := make(map[string]Datum, len(step.inputs))
		for j, input := range step.inputs {
			canonical := step.transform.Inputs[j]
			if input.param != nil {
				inputs[canonical] = *input.param
				continue
			}
			inputs[canonical] = env[input.name]
		}
		outputs, err := step.transform.Fn(inputs)
		if err != nil {
			return nil, &ErrTransformExecution{Step: step.name, Err: err}
		}
		for j, out := range step.outputs {
			value, ok := outputs[step.transform.Outputs[j]]
			if !ok {
				return nil, &ErrTransformExecution{
					Step: step.name,
					Err:  fmt.Errorf("transform produced no output %q", step.transform.Outputs[j]),
				}
			}
			env[out] = value
		}
	}
	maps.DeleteFunc(env, func(name string, _ Datum) bool {
		return name == RawWaveformName
	})
	return env, nil
}
