package browser

import (
	"fmt"
	"strings"
)

// ErrNoFilesFound represents a file pattern matching zero physical files.
type ErrNoFilesFound struct {
	Pattern string
}

func (e *ErrNoFilesFound) Error() string {
	return fmt.Sprintf("no files found matching pattern %q", e.Pattern)
}

// ErrSchemaMismatch represents a file whose waveform schema disagrees
// with the rest of the dataset.
type ErrSchemaMismatch struct {
	Path string
	Want string
	Got  string
}

func (e *ErrSchemaMismatch) Error() string {
	return fmt.Sprintf("schema mismatch in file %q: want %s, got %s", e.Path, e.Want, e.Got)
}

// ErrIndexOutOfRange represents a logical index outside the valid range.
type ErrIndexOutOfRange struct {
	Index int
	Size  int
}

func (e *ErrIndexOutOfRange) Error() string {
	return fmt.Sprintf("index %d out of range [0, %d)", e.Index, e.Size)
}

// ErrCorruptRecord represents a stored record that disagrees with the
// dataset schema. It is reported per index, not fatal to the batch.
type ErrCorruptRecord struct {
	Index  int
	Reason string
}

func (e *ErrCorruptRecord) Error() string {
	return fmt.Sprintf("corrupt record at index %d: %s", e.Index, e.Reason)
}

// ErrColumnNotFound represents a cut referencing an unknown auxiliary column.
type ErrColumnNotFound struct {
	Column string
}

func (e *ErrColumnNotFound) Error() string {
	return fmt.Sprintf("auxiliary column %q not found", e.Column)
}

// ErrSelectionConflict is returned when both an explicit entry list and
// cuts are configured. The two selection modes are mutually exclusive.
type ErrSelectionConflict struct{}

func (e *ErrSelectionConflict) Error() string {
	return "explicit entries and cuts are mutually exclusive"
}

// ErrCyclicDependency represents a cycle in the processing chain.
type ErrCyclicDependency struct {
	Steps []string
}

func (e *ErrCyclicDependency) Error() string {
	return fmt.Sprintf("cyclic dependency between steps: %s", strings.Join(e.Steps, ", "))
}

// ErrUnresolvedInput represents a step input that is neither the raw
// waveform, an output of another step, nor a resolvable parameter.
type ErrUnresolvedInput struct {
	Step  string
	Input string
}

func (e *ErrUnresolvedInput) Error() string {
	return fmt.Sprintf("step %q: cannot resolve input %q", e.Step, e.Input)
}

// ErrParameterNotFound represents a failed parameter database lookup.
type ErrParameterNotFound struct {
	Channel int
	Name    string
}

func (e *ErrParameterNotFound) Error() string {
	return fmt.Sprintf("parameter %q not found for channel %d", e.Name, e.Channel)
}

// ErrUnknownTransform represents a processing function name missing
// from the registry.
type ErrUnknownTransform struct {
	Name string
}

func (e *ErrUnknownTransform) Error() string {
	return fmt.Sprintf("unknown transform function %q", e.Name)
}

// ErrTransformExecution represents a transform failing on one record.
type ErrTransformExecution struct {
	Step string
	Err  error
}

func (e *ErrTransformExecution) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Err)
}

func (e *ErrTransformExecution) Unwrap() error {
	return e.Err
}

// ErrTemplateField represents a legend template referencing an output
// name absent from the evaluated pipeline outputs.
type ErrTemplateField struct {
	Template string
	Field    string
}

func (e *ErrTemplateField) Error() string {
	return fmt.Sprintf("legend template %q references unknown output %q", e.Template, e.Field)
}

// ErrUnitMismatch represents arithmetic between incompatible units.
type ErrUnitMismatch struct {
	A Unit
	B Unit
}

func (e *ErrUnitMismatch) Error() string {
	return fmt.Sprintf("incompatible units %q and %q", e.A, e.B)
}
