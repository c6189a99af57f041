package browser

import "fmt"

// CompareOp is a comparison operator usable in a cut.
type CompareOp string

const (
	OpLess         CompareOp = "<"
	OpLessEqual    CompareOp = "<="
	OpGreater      CompareOp = ">"
	OpGreaterEqual CompareOp = ">="
	OpEqual        CompareOp = "=="
	OpNotEqual     CompareOp = "!="
)

// Cut is one condition on an auxiliary column. A selection built from
// several cuts requires all of them to hold.
type Cut struct {
	Column string    `json:"column"`
	Op     CompareOp `json:"op"`
	Value  float64   `json:"value"`
	Unit   Unit      `json:"unit"`
}

// Selection is an ordered list of global logical indices, immutable
// after construction.
type Selection []int

// BuildSelection computes the entry selection once. Modes are mutually
// exclusive: an explicit entry list is validated and returned unchanged
// (duplicates and arbitrary order permitted), cuts are evaluated
// element-wise over the auxiliary table in ascending index order, and
// with neither the selection is the full dataset.
func BuildSelection(total int, aux *AuxTable, cuts []Cut, entries []int) (Selection, error) {
	if len(entries) > 0 && len(cuts) > 0 {
		return nil, &ErrSelectionConflict{}
	}

	if len(entries) > 0 {
		for _, idx := range entries {
			if idx < 0 || idx >= total {
				return nil, &ErrIndexOutOfRange{Index: idx, Size: total}
			}
		}
		selection := make(Selection, len(entries))
		copy(selection, entries)
		return selection, nil
	}

	if len(cuts) > 0 {
		if aux == nil {
			return nil, &ErrColumnNotFound{Column: cuts[0].Column}
		}
		if aux.Len() != total {
			return nil, fmt.Errorf("auxiliary table has %d entries, dataset has %d", aux.Len(), total)
		}
		mask := make([]bool, total)
		for i := range mask {
			mask[i] = true
		}
		for _, cut := range cuts {
			if err := applyCut(aux, cut, mask); err != nil {
				return nil, err
			}
		}
		var selection Selection
		for i, keep := range mask {
			if keep {
				selection = append(selection, i)
			}
		}
		return selection, nil
	}

	selection := make(Selection, total)
	for i := range selection {
		selection[i] = i
	}
	return selection, nil
}

func applyCut(aux *AuxTable, cut Cut, mask []bool) error {
	switch cut.Op {
	case OpLess, OpLessEqual, OpGreater, OpGreaterEqual, OpEqual, OpNotEqual:
	default:
		return fmt.Errorf("cut on column %q: unknown comparison operator %q", cut.Column, cut.Op)
	}
	data, unit, err := aux.Column(cut.Column)
	if err != nil {
		return err
	}
	// Convert the cut threshold into the column's unit once.
	threshold, err := Quantity{Value: cut.Value, Unit: cut.Unit}.Convert(unit)
	if err != nil {
		return fmt.Errorf("cut on column %q: %w", cut.Column, err)
	}
	for i, value := range data {
		if !mask[i] {
			continue
		}
		mask[i] = compare(value, cut.Op, threshold.Value)
	}
	return nil
}

func compare(value float64, op CompareOp, threshold float64) bool {
	switch op {
	case OpLess:
		return value < threshold
	case OpLessEqual:
		return value <= threshold
	case OpGreater:
		return value > threshold
	case OpGreaterEqual:
		return value >= threshold
	case OpEqual:
		return value == threshold
	case OpNotEqual:
		return value != threshold
	}
	return false
}
