package browser

import (
	"fmt"
	"strconv"
)

// Unit is a physical unit tag. Values with different units never mix
// silently: arithmetic and comparisons convert through the dimension
// table or fail with ErrUnitMismatch.
type Unit string

const (
	Dimensionless Unit = ""
	ADC           Unit = "adc"
	Nanosecond    Unit = "ns"
	Microsecond   Unit = "us"
	Millisecond   Unit = "ms"
	Second        Unit = "s"
	ElectronVolt  Unit = "eV"
	KiloEV        Unit = "keV"
	MegaEV        Unit = "MeV"
)

type dimension struct {
	dim   string
	scale float64
}

var unitTable = map[Unit]dimension{
	Dimensionless: {"none", 1},
	ADC:           {"amplitude", 1},
	Nanosecond:    {"time", 1},
	Microsecond:   {"time", 1e3},
	Millisecond:   {"time", 1e6},
	Second:        {"time", 1e9},
	ElectronVolt:  {"energy", 1},
	KiloEV:        {"energy", 1e3},
	MegaEV:        {"energy", 1e6},
}

// conversionFactor returns the multiplier taking a value in `from` to a
// value in `to`.
func conversionFactor(from, to Unit) (float64, error) {
	if from == to {
		return 1, nil
	}
	df, okf := unitTable[from]
	dt, okt := unitTable[to]
	if !okf || !okt || df.dim != dt.dim {
		return 0, &ErrUnitMismatch{A: from, B: to}
	}
	return df.scale / dt.scale, nil
}

// Quantity is a scalar tagged with a physical unit.
type Quantity struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (q Quantity) Convert(to Unit) (Quantity, error) {
	factor, err := conversionFactor(q.Unit, to)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Value: q.Value * factor, Unit: to}, nil
}

func (q Quantity) Add(other Quantity) (Quantity, error) {
	o, err := other.Convert(q.Unit)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Value: q.Value + o.Value, Unit: q.Unit}, nil
}

func (q Quantity) Sub(other Quantity) (Quantity, error) {
	o, err := other.Convert(q.Unit)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Value: q.Value - o.Value, Unit: q.Unit}, nil
}

// Compare returns -1, 0 or +1 after converting other to q's unit.
func (q Quantity) Compare(other Quantity) (int, error) {
	o, err := other.Convert(q.Unit)
	if err != nil {
		return 0, err
	}
	switch {
	case q.Value < o.Value:
		return -1, nil
	case q.Value > o.Value:
		return 1, nil
	}
	return 0, nil
}

// Format renders the quantity with the given number of decimals,
// e.g. "123.4 keV". Dimensionless values render bare.
func (q Quantity) Format(precision int) string {
	value := strconv.FormatFloat(q.Value, 'f', precision, 64)
	if q.Unit == Dimensionless {
		return value
	}
	return fmt.Sprintf("%s %s", value, q.Unit)
}

// Series is an ordered sequence of samples sharing one unit.
type Series struct {
	Samples []float64
	Unit    Unit
}

func (s Series) Convert(to Unit) (Series, error) {
	factor, err := conversionFactor(s.Unit, to)
	if err != nil {
		return Series{}, err
	}
	converted := make([]float64, len(s.Samples))
	for i, v := range s.Samples {
		converted[i] = v * factor
	}
	return Series{Samples: converted, Unit: to}, nil
}

func (s Series) Len() int {
	return len(s.Samples)
}

// Datum is a pipeline value: either a Quantity or a Series.
type Datum interface {
	isDatum()
}

func (Quantity) isDatum() {}
func (Series) isDatum()   {}
