package browser

import (
	"fmt"
	"math"
)

// extractChunkSize bounds how many records the producer fetches per
// read, keeping memory flat regardless of selection size.
const extractChunkSize = 256

type extractJob struct {
	pos    int // position in the selection
	record Record
}

type extractResult struct {
	pos    int
	values map[string]Datum
	err    error
}

// ExtractFeatures reuses the dataset view and pipeline as a batch
// feature-extraction source: it evaluates the pipeline over the whole
// selection with numWorkers goroutines and collects the scalar outputs
// into an AuxTable. Failed records get NaN entries and are logged, so
// one bad record never aborts a long extraction. When writer is not
// nil the table is also streamed to disk.
//
// The view is driven only from the producer side, so its open-file set
// is never mutated concurrently.
func ExtractFeatures(view *DatasetView, pipeline *Pipeline, selection Selection, numWorkers int, writer *FeatureWriter) (*AuxTable, error) {
	if numWorkers < 1 {
		numWorkers = 1
	}

	jobs := make(chan extractJob, numWorkers)
	results := make(chan extractResult, numWorkers)

	for w := 1; w <= numWorkers; w++ {
		go extractWorker(w, pipeline, jobs, results)
	}

	var produceErr error
	go func() {
		defer close(jobs)
		for start := 0; start < len(selection); start += extractChunkSize {
			end := start + extractChunkSize
			if end > len(selection) {
				end = len(selection)
			}
			chunk := selection[start:end]
			records, recordErrs, err := view.FetchRecords(chunk)
			if err != nil {
				produceErr = err
				for pos := start; pos < len(selection); pos++ {
					results <- extractResult{pos: pos, err: err}
				}
				return
			}
			corrupt := make(map[int]error, len(recordErrs))
			for _, re := range recordErrs {
				corrupt[re.Index] = re.Err
			}
			next := 0
			for i, idx := range chunk {
				if err, bad := corrupt[idx]; bad {
					results <- extractResult{pos: start + i, err: err}
					continue
				}
				jobs <- extractJob{pos: start + i, record: records[next]}
				next++
			}
		}
	}()

	// Waveform-valued outputs never make it into the table; the
	// pipeline declares which outputs are scalar.
	columns := make(map[string][]float64)
	units := make(map[string]Unit)
	for _, name := range pipeline.ScalarOutputNames() {
		column := make([]float64, len(selection))
		for i := range column {
			column[i] = math.NaN()
		}
		columns[name] = column
	}

	failed := 0
	for received := 0; received < len(selection); received++ {
		result := <-results
		if result.err != nil {
			failed++
			logger.Error(fmt.Sprintf("entry %d: %v", selection[result.pos], result.err))
			continue
		}
		for name, value := range result.values {
			column, ok := columns[name]
			if !ok {
				continue
			}
			quantity, scalar := value.(Quantity)
			if !scalar {
				continue
			}
			column[result.pos] = quantity.Value
			units[name] = quantity.Unit
		}
	}

	if produceErr != nil {
		return nil, produceErr
	}
	if failed > 0 {
		logger.Info(fmt.Sprintf("%d of %d entries failed", failed, len(selection)), "extract")
	}

	table := NewAuxTable(len(selection))
	for name, column := range columns {
		if err := table.AddColumn(name, column, units[name]); err != nil {
			return nil, err
		}
	}

	if writer != nil {
		if err := writer.WriteIndex(selection); err != nil {
			return nil, err
		}
		if err := writer.WriteColumns(columns, units); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func extractWorker(id int, pipeline *Pipeline, jobs <-chan extractJob, results chan<- extractResult) {
	for job := range jobs {
		results <- evaluateRecord(id, pipeline, job)
	}
}

// evaluateRecord guards one evaluation, so a panicking transform costs
// one entry instead of a hung worker.
func evaluateRecord(id int, pipeline *Pipeline, job extractJob) (result extractResult) {
	result.pos = job.pos
	defer func() {
		if r := recover(); r != nil {
			logger.Error(fmt.Sprintf("Worker %d recovered from panic: %v", id, r))
			result.values = nil
			result.err = fmt.Errorf("panic during evaluation: %v", r)
		}
	}()
	result.values, result.err = pipeline.Evaluate(job.record)
	return result
}
