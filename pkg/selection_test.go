package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuxTable(t *testing.T) *AuxTable {
	t.Helper()
	aux := NewAuxTable(5)
	require.NoError(t, aux.AddColumn("energy", []float64{0, 500, 20, 700, 900}, KiloEV))
	require.NoError(t, aux.AddColumn("t0", []float64{10, 20, 30, 40, 50}, Microsecond))
	return aux
}

func TestBuildSelectionFullDataset(t *testing.T) {
	selection, err := BuildSelection(4, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, Selection{0, 1, 2, 3}, selection)
}

func TestBuildSelectionExplicitEntries(t *testing.T) {
	// Duplicates and non-monotonic order pass through unchanged.
	entries := []int{3, 0, 3, 1}
	selection, err := BuildSelection(5, nil, nil, entries)
	require.NoError(t, err)
	assert.Equal(t, Selection{3, 0, 3, 1}, selection)

	// The selection is a copy, not an alias.
	entries[0] = 4
	assert.Equal(t, Selection{3, 0, 3, 1}, selection)
}

func TestBuildSelectionEntriesOutOfRange(t *testing.T) {
	_, err := BuildSelection(5, nil, nil, []int{0, 5})
	var oor *ErrIndexOutOfRange
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, 5, oor.Index)
}

func TestBuildSelectionCuts(t *testing.T) {
	aux := testAuxTable(t)
	selection, err := BuildSelection(5, aux, []Cut{
		{Column: "energy", Op: OpGreater, Value: 100, Unit: KiloEV},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, Selection{1, 3, 4}, selection)
}

func TestBuildSelectionCutsAreConjunctive(t *testing.T) {
	aux := testAuxTable(t)
	selection, err := BuildSelection(5, aux, []Cut{
		{Column: "energy", Op: OpGreater, Value: 100, Unit: KiloEV},
		{Column: "t0", Op: OpLess, Value: 45, Unit: Microsecond},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, Selection{1, 3}, selection)
}

func TestBuildSelectionCutUnitConversion(t *testing.T) {
	aux := testAuxTable(t)
	// 0.6 MeV against a keV column selects energies above 600 keV.
	selection, err := BuildSelection(5, aux, []Cut{
		{Column: "energy", Op: OpGreaterEqual, Value: 0.6, Unit: MegaEV},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, Selection{3, 4}, selection)
}

func TestBuildSelectionRejectsUnknownOperator(t *testing.T) {
	aux := testAuxTable(t)
	// A typo'd operator must fail loudly, never match nothing.
	_, err := BuildSelection(5, aux, []Cut{
		{Column: "energy", Op: "=<", Value: 100, Unit: KiloEV},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "=<")

	_, err = BuildSelection(5, aux, []Cut{
		{Column: "energy", Value: 100, Unit: KiloEV},
	}, nil)
	require.Error(t, err)
}

func TestBuildSelectionCutUnitMismatch(t *testing.T) {
	aux := testAuxTable(t)
	_, err := BuildSelection(5, aux, []Cut{
		{Column: "energy", Op: OpGreater, Value: 1, Unit: Microsecond},
	}, nil)
	require.Error(t, err)
}

func TestBuildSelectionUnknownColumn(t *testing.T) {
	aux := testAuxTable(t)
	_, err := BuildSelection(5, aux, []Cut{
		{Column: "missing", Op: OpGreater, Value: 1},
	}, nil)
	var notFound *ErrColumnNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.Column)
}

func TestBuildSelectionConflict(t *testing.T) {
	aux := testAuxTable(t)
	_, err := BuildSelection(5, aux,
		[]Cut{{Column: "energy", Op: OpGreater, Value: 1}},
		[]int{0, 1})
	var conflict *ErrSelectionConflict
	require.ErrorAs(t, err, &conflict)
}

func TestBuildSelectionAuxSizeMismatch(t *testing.T) {
	aux := testAuxTable(t)
	_, err := BuildSelection(7, aux, []Cut{
		{Column: "energy", Op: OpGreater, Value: 1, Unit: KiloEV},
	}, nil)
	require.Error(t, err)
}
