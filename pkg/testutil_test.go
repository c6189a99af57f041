package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeReader serves waveforms from memory, keyed by path. Enumeration
// still goes through the filesystem, so tests touch empty files with
// the right names. Open/close bookkeeping backs the LRU tests.
type fakeReader struct {
	files map[string]*fakeFile

	opens    int
	closes   int
	curOpen  int
	peakOpen int
}

type fakeFile struct {
	waveforms  [][]float64
	timestamps []float64
}

func newFakeReader() *fakeReader {
	return &fakeReader{files: make(map[string]*fakeFile)}
}

func (r *fakeReader) Open(path string) (FileHandle, error) {
	file, ok := r.files[path]
	if !ok {
		return nil, fmt.Errorf("no such file %q", path)
	}
	r.opens++
	r.curOpen++
	if r.curOpen > r.peakOpen {
		r.peakOpen = r.curOpen
	}
	return &fakeHandle{reader: r, file: file}, nil
}

type fakeHandle struct {
	reader *fakeReader
	file   *fakeFile
	closed bool
}

func (h *fakeHandle) Header() (FileHeader, error) {
	return FileHeader{
		RecordCount:    len(h.file.waveforms),
		WaveformLen:    len(h.file.waveforms[0]),
		SampleDType:    "int16",
		SamplingPeriod: Quantity{Value: CLOCK_TICK, Unit: Nanosecond},
	}, nil
}

func (h *fakeHandle) ReadRecords(local []int) ([]Record, error) {
	records := make([]Record, len(local))
	for i, row := range local {
		if row < 0 || row >= len(h.file.waveforms) {
			return nil, &ErrIndexOutOfRange{Index: row, Size: len(h.file.waveforms)}
		}
		records[i] = Record{
			Local:     row,
			Timestamp: Quantity{Value: h.file.timestamps[row], Unit: Nanosecond},
			Waveform:  Series{Samples: h.file.waveforms[row], Unit: ADC},
		}
	}
	return records, nil
}

func (h *fakeHandle) Close() error {
	if !h.closed {
		h.closed = true
		h.reader.closes++
		h.reader.curOpen--
	}
	return nil
}

// makeDataset lays out files named run_NNN.h5 in a temp dir, with the
// given record counts. Sample j of global record i holds i*1000+j, so
// index translation is checkable from the data itself.
func makeDataset(t *testing.T, counts []int, waveformLen int) (string, *fakeReader) {
	t.Helper()
	dir := t.TempDir()
	reader := newFakeReader()

	global := 0
	for f, count := range counts {
		path := filepath.Join(dir, fmt.Sprintf("run_%03d.h5", f))
		require.NoError(t, os.WriteFile(path, nil, 0o644))

		file := &fakeFile{}
		for i := 0; i < count; i++ {
			waveform := make([]float64, waveformLen)
			for j := range waveform {
				waveform[j] = float64(global*1000 + j)
			}
			file.waveforms = append(file.waveforms, waveform)
			file.timestamps = append(file.timestamps, float64(global))
			global++
		}
		reader.files[path] = file
	}
	return filepath.Join(dir, "run_*.h5"), reader
}

// fakeRenderer records drawing calls for the binding tests.
type fakeRenderer struct {
	lines   []fakeLine
	vlines  []float64
	hlines  []float64
	legends []string
}

type fakeLine struct {
	x, y  []float64
	style LineSpec
}

func (r *fakeRenderer) DrawLine(x, y []float64, style LineSpec) (Artifact, error) {
	r.lines = append(r.lines, fakeLine{x: x, y: y, style: style})
	return &r.lines[len(r.lines)-1], nil
}

func (r *fakeRenderer) DrawVLine(x float64, style LineSpec) (Artifact, error) {
	r.vlines = append(r.vlines, x)
	return &r.vlines[len(r.vlines)-1], nil
}

func (r *fakeRenderer) DrawHLine(y float64, style LineSpec) (Artifact, error) {
	r.hlines = append(r.hlines, y)
	return &r.hlines[len(r.hlines)-1], nil
}

func (r *fakeRenderer) AddLegend(text string, artifact Artifact) {
	r.legends = append(r.legends, text)
}
