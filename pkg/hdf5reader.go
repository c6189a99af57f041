package browser

import (
	"fmt"

	"gonum.org/v1/hdf5"
)

// CLOCK_TICK is the digitizer sampling period in nanoseconds.
const CLOCK_TICK float64 = 25

// HDF5EventReader opens raw event files produced by the decoder stage:
// a 2-D waveform array "/RD/<channel>" plus the "/Run/events" metadata
// table.
type HDF5EventReader struct {
	Channel string
}

func NewHDF5EventReader(channel string) *HDF5EventReader {
	return &HDF5EventReader{Channel: channel}
}

func (r *HDF5EventReader) Open(path string) (FileHandle, error) {
	file, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("error opening file %q: %w", path, err)
	}
	dset, err := file.OpenDataset("RD/" + r.Channel)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("error opening channel %q in %q: %w", r.Channel, path, err)
	}
	handle := &hdf5Handle{path: path, file: file, waveforms: dset}
	if err := handle.readHeader(); err != nil {
		handle.Close()
		return nil, err
	}
	return handle, nil
}

type hdf5Handle struct {
	path      string
	file      *hdf5.File
	waveforms *hdf5.Dataset
	header    FileHeader
	events    []EventDataHDF5 // metadata table, loaded on first record read
}

func (h *hdf5Handle) readHeader() error {
	space := h.waveforms.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return fmt.Errorf("error reading dataspace of %q: %w", h.path, err)
	}
	if len(dims) != 2 {
		return fmt.Errorf("channel dataset in %q has rank %d, want 2", h.path, len(dims))
	}

	dtype, err := h.waveforms.Datatype()
	if err != nil {
		return fmt.Errorf("error reading datatype of %q: %w", h.path, err)
	}
	defer dtype.Close()

	h.header = FileHeader{
		RecordCount:    int(dims[0]),
		WaveformLen:    int(dims[1]),
		SampleDType:    fmt.Sprintf("int%d", 8*dtype.Size()),
		SamplingPeriod: Quantity{Value: CLOCK_TICK, Unit: Nanosecond},
	}
	return nil
}

func (h *hdf5Handle) Header() (FileHeader, error) {
	return h.header, nil
}

func (h *hdf5Handle) loadEvents() error {
	if h.events != nil {
		return nil
	}
	dset, err := h.file.OpenDataset("Run/events")
	if err != nil {
		return fmt.Errorf("error opening events table in %q: %w", h.path, err)
	}
	defer dset.Close()

	events := make([]EventDataHDF5, h.header.RecordCount)
	if err := dset.Read(&events); err != nil {
		return fmt.Errorf("error reading events table in %q: %w", h.path, err)
	}
	h.events = events
	return nil
}

func (h *hdf5Handle) ReadRecords(local []int) ([]Record, error) {
	if err := h.loadEvents(); err != nil {
		return nil, err
	}
	records := make([]Record, len(local))
	raw := make([]int16, h.header.WaveformLen)
	for i, row := range local {
		if row < 0 || row >= h.header.RecordCount {
			return nil, &ErrIndexOutOfRange{Index: row, Size: h.header.RecordCount}
		}
		if err := readRow(h.waveforms, row, h.header.WaveformLen, &raw); err != nil {
			return nil, fmt.Errorf("error reading record %d of %q: %w", row, h.path, err)
		}
		samples := make([]float64, len(raw))
		for j, v := range raw {
			samples[j] = float64(v)
		}
		records[i] = Record{
			Local:     row,
			Timestamp: Quantity{Value: float64(h.events[row].timestamp), Unit: Nanosecond},
			Waveform:  Series{Samples: samples, Unit: ADC},
		}
	}
	return records, nil
}

func (h *hdf5Handle) Close() error {
	if h.waveforms != nil {
		h.waveforms.Close()
		h.waveforms = nil
	}
	if h.file != nil {
		err := h.file.Close()
		h.file = nil
		return err
	}
	return nil
}
