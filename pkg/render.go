package browser

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// LineSpec controls how one named output is drawn. Kind selects the
// artifact: a waveform line, or a vertical/horizontal marker placed at
// a scalar output's value.
type LineSpec struct {
	Kind   string  `json:"kind"` // "line", "vline" or "hline"
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
	Dashed bool    `json:"dashed"`
}

// FormatSpec controls legend formatting of one scalar output.
type FormatSpec struct {
	Unit      Unit `json:"unit"`
	Precision int  `json:"precision"`
}

// Artifact is an opaque reference returned by the renderer, usable for
// later styling or removal.
type Artifact interface{}

// Renderer is the external drawing collaborator. The binding layer is
// the only component touching it.
type Renderer interface {
	DrawLine(x, y []float64, style LineSpec) (Artifact, error)
	DrawVLine(x float64, style LineSpec) (Artifact, error)
	DrawHLine(y float64, style LineSpec) (Artifact, error)
	AddLegend(text string, artifact Artifact)
}

var templateField = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Bindings maps named pipeline outputs to display artifacts and legend
// text. It never reads files and never runs transforms; it binds values
// already computed upstream.
type Bindings struct {
	renderer  Renderer
	specs     map[string]LineSpec
	templates []string
	formats   map[string]FormatSpec
	overlay   bool

	lines map[string][]Artifact
}

func NewBindings(renderer Renderer, specs map[string]LineSpec, templates []string, formats map[string]FormatSpec, overlay bool) (*Bindings, error) {
	for name, spec := range specs {
		switch spec.Kind {
		case "line", "vline", "hline":
		default:
			return nil, fmt.Errorf("output %q: unknown line kind %q", name, spec.Kind)
		}
	}
	return &Bindings{
		renderer:  renderer,
		specs:     specs,
		templates: templates,
		formats:   formats,
		overlay:   overlay,
		lines:     make(map[string][]Artifact),
	}, nil
}

// Lines returns the accumulated artifacts per output name.
func (b *Bindings) Lines(output string) []Artifact {
	return b.lines[output]
}

// Clear drops accumulated artifacts, used between batches when overlay
// is off.
func (b *Bindings) Clear() {
	b.lines = make(map[string][]Artifact)
}

// BindBatch produces display artifacts for one batch: records aligned
// with their evaluated pipeline outputs. Waveform outputs become lines
// keyed by output name; scalar outputs feed markers and legend
// templates. The whole batch is validated against the templates before
// anything is drawn, so a template error never corrupts prior batches.
func (b *Bindings) BindBatch(records []Record, outputs []map[string]Datum) error {
	if !b.overlay {
		b.Clear()
	}
	for i := range records {
		if err := b.checkTemplates(outputs[i]); err != nil {
			return err
		}
	}
	for i, record := range records {
		if err := b.bindRecord(record, outputs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bindings) checkTemplates(outputs map[string]Datum) error {
	for _, template := range b.templates {
		for _, match := range templateField.FindAllStringSubmatch(template, -1) {
			field := match[1]
			if _, ok := outputs[field]; !ok {
				return &ErrTemplateField{Template: template, Field: field}
			}
		}
	}
	return nil
}

func (b *Bindings) bindRecord(record Record, outputs map[string]Datum) error {
	names := maps.Keys(b.specs)
	slices.Sort(names)
	for _, name := range names {
		spec := b.specs[name]
		value, ok := outputs[name]
		if name == RawWaveformName {
			value, ok = record.Waveform, true
		}
		if !ok {
			continue
		}
		artifact, err := b.draw(value, spec)
		if err != nil {
			return err
		}
		if artifact != nil {
			b.lines[name] = append(b.lines[name], artifact)
		}
	}

	for _, template := range b.templates {
		text, err := b.expand(template, record, outputs)
		if err != nil {
			return err
		}
		var anchor Artifact
		if artifacts := b.lines[RawWaveformName]; len(artifacts) > 0 {
			anchor = artifacts[len(artifacts)-1]
		}
		b.renderer.AddLegend(text, anchor)
	}
	return nil
}

func (b *Bindings) draw(value Datum, spec LineSpec) (Artifact, error) {
	switch v := value.(type) {
	case Series:
		if spec.Kind != "line" {
			return nil, fmt.Errorf("waveform outputs need kind %q, got %q", "line", spec.Kind)
		}
		x := make([]float64, v.Len())
		for i := range x {
			x[i] = float64(i)
		}
		return b.renderer.DrawLine(x, v.Samples, spec)
	case Quantity:
		switch spec.Kind {
		case "vline":
			return b.renderer.DrawVLine(v.Value, spec)
		case "hline":
			return b.renderer.DrawHLine(v.Value, spec)
		}
		return nil, fmt.Errorf("scalar outputs need kind %q or %q, got %q", "vline", "hline", spec.Kind)
	}
	return nil, nil
}

// expand substitutes every {name} field with the unit-formatted scalar.
func (b *Bindings) expand(template string, record Record, outputs map[string]Datum) (string, error) {
	result := template
	for _, match := range templateField.FindAllStringSubmatch(template, -1) {
		field := match[1]
		value, ok := outputs[field]
		if !ok {
			return "", &ErrTemplateField{Template: template, Field: field}
		}
		quantity, ok := value.(Quantity)
		if !ok {
			return "", &ErrTemplateField{Template: template, Field: field}
		}
		formatted, err := b.format(field, quantity)
		if err != nil {
			return "", err
		}
		result = strings.ReplaceAll(result, match[0], formatted)
	}
	return result, nil
}

func (b *Bindings) format(field string, quantity Quantity) (string, error) {
	spec, ok := b.formats[field]
	if !ok {
		return quantity.Format(2), nil
	}
	if spec.Unit != Dimensionless && spec.Unit != quantity.Unit {
		converted, err := quantity.Convert(spec.Unit)
		if err != nil {
			return "", err
		}
		quantity = converted
	}
	return quantity.Format(spec.Precision), nil
}
