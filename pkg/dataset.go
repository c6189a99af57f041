package browser

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

const DefaultLRUBound = 4

// FileSegment is one physical file's contribution to the virtual
// dataset: the contiguous logical range [Start, End).
type FileSegment struct {
	Path   string
	Start  int
	End    int
	Header FileHeader
}

// DatasetView presents many physical files holding the same channel as
// one contiguous, randomly indexable sequence of records. Files are
// enumerated once at construction; handles open lazily and at most
// lruBound stay open simultaneously.
type DatasetView struct {
	reader   FileReader
	segments []FileSegment
	schema   FileHeader
	total    int
	lruBound int
	handles  map[int]FileHandle
	lruOrder []int // most recently used last
}

// RecordError reports one failed index of a multi-index fetch.
type RecordError struct {
	Index int
	Err   error
}

func NewDatasetView(pattern string, reader FileReader, lruBound int) (*DatasetView, error) {
	if lruBound < 1 {
		lruBound = DefaultLRUBound
	}
	paths, err := expandPattern(pattern)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, &ErrNoFilesFound{Pattern: pattern}
	}

	view := &DatasetView{
		reader:   reader,
		lruBound: lruBound,
		handles:  make(map[int]FileHandle),
	}

	// Header-only pass: count records, freeze the logical ranges and
	// check every file against the first file's schema.
	offset := 0
	for _, path := range paths {
		header, err := readHeader(reader, path)
		if err != nil {
			return nil, fmt.Errorf("error reading header of %q: %w", path, err)
		}
		if len(view.segments) == 0 {
			view.schema = header
		} else if header.WaveformLen != view.schema.WaveformLen || header.SampleDType != view.schema.SampleDType {
			return nil, &ErrSchemaMismatch{
				Path: path,
				Want: fmt.Sprintf("%d samples of %s", view.schema.WaveformLen, view.schema.SampleDType),
				Got:  fmt.Sprintf("%d samples of %s", header.WaveformLen, header.SampleDType),
			}
		}
		view.segments = append(view.segments, FileSegment{
			Path:   path,
			Start:  offset,
			End:    offset + header.RecordCount,
			Header: header,
		})
		offset += header.RecordCount
	}
	view.total = offset
	return view, nil
}

func readHeader(reader FileReader, path string) (FileHeader, error) {
	handle, err := reader.Open(path)
	if err != nil {
		return FileHeader{}, err
	}
	defer handle.Close()
	return handle.Header()
}

// expandPattern resolves a file pattern to a lexicographically sorted
// path list. Patterns may use ** (any directory depth), which is why
// matching goes through gobwas/glob instead of filepath.Glob.
func expandPattern(pattern string) ([]string, error) {
	if !strings.ContainsAny(pattern, "*?[{") {
		if _, err := os.Stat(pattern); err != nil {
			return nil, nil
		}
		return []string{pattern}, nil
	}

	matcher, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("invalid file pattern %q: %w", pattern, err)
	}

	root := pattern[:strings.IndexAny(pattern, "*?[{")]
	if idx := strings.LastIndex(root, "/"); idx >= 0 {
		root = root[:idx]
	} else {
		root = "."
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && matcher.Match(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// TotalRecords returns the summed record count over all segments.
func (v *DatasetView) TotalRecords() int {
	return v.total
}

// NumFiles returns the number of physical files behind the view.
func (v *DatasetView) NumFiles() int {
	return len(v.segments)
}

// Schema returns the waveform schema shared by all segments.
func (v *DatasetView) Schema() FileHeader {
	return v.schema
}

// Segments returns the frozen segment list.
func (v *DatasetView) Segments() []FileSegment {
	return v.segments
}

// FetchRecords returns the records for the given global indices, in the
// order given. Indices are grouped by owning segment to minimize file
// reopenings. A record whose stored waveform disagrees with the dataset
// schema is reported in the returned RecordError list; the remaining
// records are still returned. Any index outside [0, TotalRecords())
// aborts the whole call.
func (v *DatasetView) FetchRecords(indices []int) ([]Record, []RecordError, error) {
	for _, idx := range indices {
		if idx < 0 || idx >= v.total {
			return nil, nil, &ErrIndexOutOfRange{Index: idx, Size: v.total}
		}
	}

	type request struct {
		slot   int // position in the caller's index list
		global int
		local  int
	}
	bySegment := make(map[int][]request)
	var segmentOrder []int
	for slot, idx := range indices {
		seg := v.segmentOf(idx)
		if _, seen := bySegment[seg]; !seen {
			segmentOrder = append(segmentOrder, seg)
		}
		bySegment[seg] = append(bySegment[seg], request{
			slot:   slot,
			global: idx,
			local:  idx - v.segments[seg].Start,
		})
	}

	records := make([]*Record, len(indices))
	var recordErrs []RecordError
	for _, seg := range segmentOrder {
		requests := bySegment[seg]
		handle, err := v.acquire(seg)
		if err != nil {
			return nil, nil, fmt.Errorf("error opening file %q: %w", v.segments[seg].Path, err)
		}
		locals := make([]int, len(requests))
		for i, req := range requests {
			locals[i] = req.local
		}
		read, err := handle.ReadRecords(locals)
		if err != nil {
			return nil, nil, fmt.Errorf("error reading records from %q: %w", v.segments[seg].Path, err)
		}
		for i, req := range requests {
			record := read[i]
			record.Index = req.global
			if reason := v.checkRecord(record); reason != "" {
				recordErrs = append(recordErrs, RecordError{
					Index: req.global,
					Err:   &ErrCorruptRecord{Index: req.global, Reason: reason},
				})
				continue
			}
			records[req.slot] = &record
		}
	}

	ordered := make([]Record, 0, len(indices))
	for _, record := range records {
		if record != nil {
			ordered = append(ordered, *record)
		}
	}
	return ordered, recordErrs, nil
}

func (v *DatasetView) checkRecord(record Record) string {
	if record.Waveform.Len() != v.schema.WaveformLen {
		return fmt.Sprintf("stored waveform has %d samples, schema declares %d",
			record.Waveform.Len(), v.schema.WaveformLen)
	}
	return ""
}

// segmentOf translates a valid global index to its owning segment.
func (v *DatasetView) segmentOf(index int) int {
	return sort.Search(len(v.segments), func(i int) bool {
		return v.segments[i].End > index
	})
}

// acquire returns an open handle for the segment, opening it lazily and
// evicting the least recently used handle when the bound is exceeded.
func (v *DatasetView) acquire(seg int) (FileHandle, error) {
	if handle, ok := v.handles[seg]; ok {
		v.touch(seg)
		return handle, nil
	}
	if len(v.handles) >= v.lruBound {
		oldest := v.lruOrder[0]
		v.lruOrder = v.lruOrder[1:]
		if err := v.handles[oldest].Close(); err != nil {
			logger.Error(fmt.Sprintf("error closing file %q: %v", v.segments[oldest].Path, err))
		}
		delete(v.handles, oldest)
	}
	handle, err := v.reader.Open(v.segments[seg].Path)
	if err != nil {
		return nil, err
	}
	v.handles[seg] = handle
	v.lruOrder = append(v.lruOrder, seg)
	return handle, nil
}

func (v *DatasetView) touch(seg int) {
	for i, s := range v.lruOrder {
		if s == seg {
			v.lruOrder = append(v.lruOrder[:i], v.lruOrder[i+1:]...)
			break
		}
	}
	v.lruOrder = append(v.lruOrder, seg)
}

// Close closes every open handle. The view is unusable afterwards.
func (v *DatasetView) Close() error {
	var firstErr error
	for seg, handle := range v.handles {
		if err := handle.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("error closing file %q: %w", v.segments[seg].Path, err)
		}
		delete(v.handles, seg)
	}
	v.lruOrder = nil
	return firstErr
}
