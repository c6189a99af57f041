package browser

// Record is one detector readout event: a raw waveform plus scalar
// metadata. Records are immutable once read.
type Record struct {
	Index     int // global logical index inside the virtual dataset
	Local     int // index inside the owning physical file
	Timestamp Quantity
	Waveform  Series
}

// FileHeader is the per-file metadata read without touching waveform data.
type FileHeader struct {
	RecordCount    int
	WaveformLen    int
	SampleDType    string
	SamplingPeriod Quantity
}

// FileHandle is one opened physical file. ReadRecords takes local
// indices; the returned records carry Local set, Index left to the
// caller.
type FileHandle interface {
	Header() (FileHeader, error)
	ReadRecords(local []int) ([]Record, error)
	Close() error
}

// FileReader abstracts the physical file format. The dataset view
// depends only on this contract.
type FileReader interface {
	Open(path string) (FileHandle, error)
}
