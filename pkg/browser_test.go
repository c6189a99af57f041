package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// End-to-end: two files of 3 and 2 records, a cut selecting {1, 3, 4},
// batches of two.
func TestWaveformBrowserSession(t *testing.T) {
	pattern, reader := makeDataset(t, []int{3, 2}, 8)

	aux := NewAuxTable(5)
	require.NoError(t, aux.AddColumn("energy", []float64{0, 500, 20, 700, 900}, KiloEV))

	cfg := Configuration{
		FilePattern: pattern,
		NDrawn:      2,
		LRUBound:    2,
		Cuts:        []Cut{{Column: "energy", Op: OpGreater, Value: 100, Unit: KiloEV}},
		LineSpecs:   map[string]LineSpec{RawWaveformName: {Kind: "line"}},
		Overlay:     true,
	}
	renderer := &fakeRenderer{}
	wb, err := NewWaveformBrowserWithAux(cfg, reader, nil, renderer, aux)
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, Selection{1, 3, 4}, wb.Selection())

	batch, err := wb.DrawNext()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, batch)

	batch, err = wb.DrawNext()
	require.NoError(t, err)
	assert.Equal(t, []int{4}, batch)

	batch, err = wb.DrawNext()
	require.NoError(t, err)
	assert.Empty(t, batch)
	assert.True(t, wb.Exhausted())

	wb.Reset()
	batch, err = wb.DrawNext()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, batch)

	// Three draws of 2+1+2 records, overlaid.
	assert.Len(t, renderer.lines, 5)
}

func TestWaveformBrowserWithPipeline(t *testing.T) {
	pattern, reader := makeDataset(t, []int{2}, 8)

	dspPath := t.TempDir() + "/dsp.json"
	require.NoError(t, writeFile(dspPath, `[
		{"name": "blsub", "function": "bl_subtract",
		 "inputs": ["waveform", "baseline"], "outputs": ["wf_blsub"],
		 "params": {"baseline": {"value": 0, "unit": "adc"}}},
		{"name": "emax", "function": "trap_max",
		 "inputs": ["wf_blsub"], "outputs": ["trapEmax"]}
	]`))

	cfg := Configuration{
		FilePattern: pattern,
		NDrawn:      1,
		LRUBound:    2,
		DSPConfig:   dspPath,
		LineSpecs: map[string]LineSpec{
			RawWaveformName: {Kind: "line"},
			"wf_blsub":      {Kind: "line", Color: "red"},
		},
		LegendTemplates: []string{"E = {trapEmax}"},
		LegendFormats:   map[string]FormatSpec{"trapEmax": {Unit: ADC, Precision: 0}},
		Overlay:         true,
	}
	renderer := &fakeRenderer{}
	wb, err := NewWaveformBrowserWithAux(cfg, reader, nil, renderer, nil)
	require.NoError(t, err)
	defer wb.Close()

	batch, err := wb.DrawNext()
	require.NoError(t, err)
	assert.Equal(t, []int{0}, batch)

	// Raw and baseline-subtracted lines, one legend entry.
	assert.Len(t, renderer.lines, 2)
	require.Len(t, renderer.legends, 1)
	assert.Equal(t, "E = 7 adc", renderer.legends[0])
}

func TestWaveformBrowserDrawEntry(t *testing.T) {
	pattern, reader := makeDataset(t, []int{3, 2}, 4)

	cfg := Configuration{
		FilePattern: pattern,
		NDrawn:      2,
		LRUBound:    2,
		Overlay:     true,
	}
	renderer := &fakeRenderer{}
	wb, err := NewWaveformBrowserWithAux(cfg, reader, nil, renderer, nil)
	require.NoError(t, err)
	defer wb.Close()

	require.NoError(t, wb.DrawEntry(4))
	require.Len(t, renderer.lines, 1)
	assert.Equal(t, float64(4000), renderer.lines[0].y[0])

	var oor *ErrIndexOutOfRange
	require.ErrorAs(t, wb.DrawEntry(99), &oor)
}

func TestWaveformBrowserBadConfig(t *testing.T) {
	pattern, reader := makeDataset(t, []int{2}, 4)

	// Conflicting selection modes fail construction.
	cfg := Configuration{
		FilePattern: pattern,
		NDrawn:      1,
		Entries:     []int{0},
		Cuts:        []Cut{{Column: "energy", Op: OpGreater, Value: 1}},
	}
	_, err := NewWaveformBrowserWithAux(cfg, reader, nil, &fakeRenderer{}, nil)
	var conflict *ErrSelectionConflict
	require.ErrorAs(t, err, &conflict)
}
