package browser

import (
	"fmt"
	"sort"
)

// AuxTable maps the global logical index space to named scalar columns,
// typically features computed by a previous processing stage. It is
// loaded once and read-only afterwards.
type AuxTable struct {
	n       int
	columns map[string][]float64
	units   map[string]Unit
}

func NewAuxTable(n int) *AuxTable {
	return &AuxTable{
		n:       n,
		columns: make(map[string][]float64),
		units:   make(map[string]Unit),
	}
}

func (t *AuxTable) AddColumn(name string, data []float64, unit Unit) error {
	if len(data) != t.n {
		return fmt.Errorf("column %q has %d entries, table holds %d", name, len(data), t.n)
	}
	t.columns[name] = data
	t.units[name] = unit
	return nil
}

func (t *AuxTable) Len() int {
	return t.n
}

func (t *AuxTable) Column(name string) ([]float64, Unit, error) {
	data, ok := t.columns[name]
	if !ok {
		return nil, Dimensionless, &ErrColumnNotFound{Column: name}
	}
	return data, t.units[name], nil
}

// Value returns one entry of a column as a unit-tagged quantity.
func (t *AuxTable) Value(name string, index int) (Quantity, error) {
	data, unit, err := t.Column(name)
	if err != nil {
		return Quantity{}, err
	}
	if index < 0 || index >= t.n {
		return Quantity{}, &ErrIndexOutOfRange{Index: index, Size: t.n}
	}
	return Quantity{Value: data[index], Unit: unit}, nil
}

func (t *AuxTable) ColumnNames() []string {
	names := make([]string, 0, len(t.columns))
	for name := range t.columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
