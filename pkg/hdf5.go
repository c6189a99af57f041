package browser

import (
	"fmt"

	"gonum.org/v1/hdf5"
)

const STRLEN = 20

// EventDataHDF5 mirrors the per-event metadata table layout of the raw
// files ("/Run/events").
type EventDataHDF5 struct {
	evt_number int32
	timestamp  uint64
}

// UnitsHDF5 is one row of a features file's units table, mapping a
// column name to its physical unit.
type UnitsHDF5 struct {
	column [STRLEN]byte
	units  [STRLEN]byte
}

func convertToHdf5String(s string) [STRLEN]byte {
	var byteArray [STRLEN]byte
	copy(byteArray[:], s)
	return byteArray
}

func convertFromHdf5String(b [STRLEN]byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b[:])
}

func createFile(fname string) *hdf5.File {
	f, err := hdf5.CreateFile(fname, hdf5.F_ACC_TRUNC)
	if err != nil {
		panic(err)
	}
	return f
}

func createGroup(file *hdf5.File, groupName string) *hdf5.Group {
	g, err := file.CreateGroup(groupName)
	if err != nil {
		panic(err)
	}
	return g
}

// createTable creates a fixed-size compound dataset with the layout of
// the given struct value.
func createTable(group *hdf5.Group, name string, datatype interface{}, n int) *hdf5.Dataset {
	dims := []uint{uint(n)}
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		panic(err)
	}

	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		panic(err)
	}

	dset, err := group.CreateDataset(name, dtype, fileSpace)
	if err != nil {
		panic(err)
	}
	return dset
}

// createColumn creates a fixed-size 1-D dataset of the given type.
func createColumn(group *hdf5.Group, name string, dtype *hdf5.Datatype, n int) *hdf5.Dataset {
	dims := []uint{uint(n)}
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		panic(err)
	}
	dset, err := group.CreateDataset(name, dtype, fileSpace)
	if err != nil {
		panic(err)
	}
	return dset
}

// readRow reads one row of a 2-D dataset into a pre-sized slice.
func readRow(dset *hdf5.Dataset, row int, samples int, out interface{}) error {
	fileSpace := dset.Space()
	defer fileSpace.Close()

	offset := []uint{uint(row), 0}
	count := []uint{1, uint(samples)}
	if err := fileSpace.SelectHyperslab(offset, nil, count, nil); err != nil {
		return fmt.Errorf("error selecting row %d: %w", row, err)
	}

	memSpace, err := hdf5.CreateSimpleDataspace(count, nil)
	if err != nil {
		return err
	}
	defer memSpace.Close()

	return dset.ReadSubset(out, memSpace, fileSpace)
}
