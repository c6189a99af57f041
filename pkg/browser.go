package browser

import "fmt"

// WaveformBrowser is the interactive inspection surface: it owns a
// dataset view, a selection with its cursor, and the processing chain,
// and binds each drawn batch to the renderer. Construction resolves
// everything up front; configuration mistakes surface here, never
// during drawing.
type WaveformBrowser struct {
	cfg      Configuration
	view     *DatasetView
	aux      *AuxTable
	pipeline *Pipeline
	sel      Selection
	cursor   *Cursor
	bindings *Bindings
}

func NewWaveformBrowser(cfg Configuration, reader FileReader, params ParameterDatabase, renderer Renderer) (*WaveformBrowser, error) {
	var aux *AuxTable
	if cfg.AuxFile != "" {
		var err error
		aux, err = LoadAuxTable(cfg.AuxFile, cfg.AuxGroup)
		if err != nil {
			return nil, err
		}
	}
	return NewWaveformBrowserWithAux(cfg, reader, params, renderer, aux)
}

// NewWaveformBrowserWithAux builds a browser around an auxiliary table
// already in memory, e.g. one just produced by ExtractFeatures.
func NewWaveformBrowserWithAux(cfg Configuration, reader FileReader, params ParameterDatabase, renderer Renderer, aux *AuxTable) (*WaveformBrowser, error) {
	view, err := NewDatasetView(cfg.FilePattern, reader, cfg.LRUBound)
	if err != nil {
		return nil, err
	}

	sel, err := BuildSelection(view.TotalRecords(), aux, cfg.Cuts, cfg.Entries)
	if err != nil {
		view.Close()
		return nil, err
	}

	var pipeline *Pipeline
	if cfg.DSPConfig != "" {
		steps, err := LoadPipelineConfig(cfg.DSPConfig)
		if err != nil {
			view.Close()
			return nil, err
		}
		pipeline, err = NewPipeline(steps, cfg.ChannelID, params)
		if err != nil {
			view.Close()
			return nil, err
		}
	}

	cursor, err := NewCursor(sel, cfg.NDrawn)
	if err != nil {
		view.Close()
		return nil, err
	}

	specs := cfg.LineSpecs
	if specs == nil {
		specs = map[string]LineSpec{RawWaveformName: {Kind: "line"}}
	}
	bindings, err := NewBindings(renderer, specs, cfg.LegendTemplates, cfg.LegendFormats, cfg.Overlay)
	if err != nil {
		view.Close()
		return nil, err
	}

	return &WaveformBrowser{
		cfg:      cfg,
		view:     view,
		aux:      aux,
		pipeline: pipeline,
		sel:      sel,
		cursor:   cursor,
		bindings: bindings,
	}, nil
}

func (b *WaveformBrowser) Selection() Selection {
	return b.sel
}

func (b *WaveformBrowser) View() *DatasetView {
	return b.view
}

func (b *WaveformBrowser) Pipeline() *Pipeline {
	return b.pipeline
}

// DrawNext draws the next batch of selected entries. It returns the
// drawn global indices; an empty batch means the selection is
// exhausted. Records failing a transform are skipped and logged, so a
// session survives occasional bad entries.
func (b *WaveformBrowser) DrawNext() ([]int, error) {
	batch := b.cursor.AdvanceBatch()
	if len(batch) == 0 {
		return nil, nil
	}
	if err := b.drawEntries(batch); err != nil {
		return nil, err
	}
	return batch, nil
}

// DrawEntry draws one absolute entry regardless of cursor position.
func (b *WaveformBrowser) DrawEntry(index int) error {
	return b.drawEntries([]int{index})
}

// JumpTo moves the cursor to the k-th selected entry.
func (b *WaveformBrowser) JumpTo(k int) error {
	return b.cursor.JumpTo(k)
}

// Reset restarts the cursor; the next DrawNext reproduces the first
// batch.
func (b *WaveformBrowser) Reset() {
	b.cursor.Reset()
}

func (b *WaveformBrowser) Exhausted() bool {
	return b.cursor.Exhausted()
}

func (b *WaveformBrowser) drawEntries(indices []int) error {
	records, recordErrs, err := b.view.FetchRecords(indices)
	if err != nil {
		return err
	}
	for _, re := range recordErrs {
		logger.Error(re.Err.Error())
	}

	outputs := make([]map[string]Datum, 0, len(records))
	kept := make([]Record, 0, len(records))
	for _, record := range records {
		values := map[string]Datum{}
		if b.pipeline != nil {
			values, err = b.pipeline.Evaluate(record)
			if err != nil {
				logger.Error(fmt.Sprintf("entry %d: %v", record.Index, err))
				continue
			}
		}
		kept = append(kept, record)
		outputs = append(outputs, values)
	}
	return b.bindings.BindBatch(kept, outputs)
}

// Close releases the underlying file handles.
func (b *WaveformBrowser) Close() error {
	return b.view.Close()
}
