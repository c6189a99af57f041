package browser

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gonum.org/v1/hdf5"
)

// FeatureWriter writes scalar pipeline outputs to an HDF5 features
// file: one 1-D float64 dataset per column, an "index" dataset with
// the global logical indices, and a "units" table. The written file
// loads back as an AuxTable.
type FeatureWriter struct {
	File     *hdf5.File
	Group    *hdf5.Group
	Filename string
}

func NewFeatureWriter(filename string, groupName string) *FeatureWriter {
	writer := &FeatureWriter{Filename: filename}
	logger.Info(fmt.Sprintf("Creating features file: %s", filename), "writer")
	writer.File = createFile(filename)
	writer.Group = createGroup(writer.File, groupName)
	return writer
}

// WriteIndex writes the selection's global indices as an int64 column.
func (w *FeatureWriter) WriteIndex(indices []int) error {
	data := make([]int64, len(indices))
	for i, idx := range indices {
		data[i] = int64(idx)
	}
	dset := createColumn(w.Group, "index", hdf5.T_NATIVE_INT64, len(data))
	defer dset.Close()
	if err := dset.Write(&data); err != nil {
		return fmt.Errorf("error writing index column: %w", err)
	}
	return nil
}

// WriteColumns writes every feature column plus the units table.
func (w *FeatureWriter) WriteColumns(columns map[string][]float64, units map[string]Unit) error {
	names := maps.Keys(columns)
	slices.Sort(names)

	unitRows := make([]UnitsHDF5, 0, len(names))
	for _, name := range names {
		data := columns[name]
		dset := createColumn(w.Group, name, hdf5.T_NATIVE_DOUBLE, len(data))
		if err := dset.Write(&data); err != nil {
			dset.Close()
			return fmt.Errorf("error writing column %q: %w", name, err)
		}
		dset.Close()
		unitRows = append(unitRows, UnitsHDF5{
			column: convertToHdf5String(name),
			units:  convertToHdf5String(string(units[name])),
		})
	}

	table := createTable(w.Group, "units", UnitsHDF5{}, len(unitRows))
	defer table.Close()
	if err := table.Write(&unitRows); err != nil {
		return fmt.Errorf("error writing units table: %w", err)
	}
	return nil
}

func (w *FeatureWriter) Close() {
	if w.Group != nil {
		w.Group.Close()
		w.Group = nil
	}
	if w.File != nil {
		w.File.Close()
		w.File = nil
	}
}

// LoadAuxTable reads a features file back into memory. Every 1-D
// float64 dataset in the group becomes a column; units come from the
// "units" table when present.
func LoadAuxTable(filename string, groupName string) (*AuxTable, error) {
	file, err := hdf5.OpenFile(filename, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("error opening file %q: %w", filename, err)
	}
	defer file.Close()

	group, err := file.OpenGroup(groupName)
	if err != nil {
		return nil, fmt.Errorf("error opening group %q in %q: %w", groupName, filename, err)
	}
	defer group.Close()

	numObjects, err := group.NumObjects()
	if err != nil {
		return nil, err
	}

	units := make(map[string]Unit)
	columns := make(map[string][]float64)
	for i := uint(0); i < numObjects; i++ {
		name, err := group.ObjectNameByIndex(i)
		if err != nil {
			return nil, err
		}
		switch name {
		case "units":
			if units, err = readUnitsTable(group); err != nil {
				return nil, err
			}
		case "index":
			// selection indices, not a feature column
		default:
			column, err := readColumn(group, name)
			if err != nil {
				return nil, err
			}
			columns[name] = column
		}
	}

	n := 0
	for _, column := range columns {
		n = len(column)
		break
	}
	table := NewAuxTable(n)
	for name, column := range columns {
		if err := table.AddColumn(name, column, units[name]); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func readColumn(group *hdf5.Group, name string) ([]float64, error) {
	dset, err := group.OpenDataset(name)
	if err != nil {
		return nil, fmt.Errorf("error opening column %q: %w", name, err)
	}
	defer dset.Close()

	space := dset.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, err
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("column %q has rank %d, want 1", name, len(dims))
	}

	data := make([]float64, dims[0])
	if err := dset.Read(&data); err != nil {
		return nil, fmt.Errorf("error reading column %q: %w", name, err)
	}
	return data, nil
}

func readUnitsTable(group *hdf5.Group) (map[string]Unit, error) {
	dset, err := group.OpenDataset("units")
	if err != nil {
		return nil, fmt.Errorf("error opening units table: %w", err)
	}
	defer dset.Close()

	space := dset.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, err
	}

	rows := make([]UnitsHDF5, dims[0])
	if err := dset.Read(&rows); err != nil {
		return nil, fmt.Errorf("error reading units table: %w", err)
	}

	units := make(map[string]Unit, len(rows))
	for _, row := range rows {
		units[convertFromHdf5String(row.column)] = Unit(convertFromHdf5String(row.units))
	}
	return units, nil
}
