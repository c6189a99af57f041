package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantityConvert(t *testing.T) {
	q := Quantity{Value: 1500, Unit: Nanosecond}
	converted, err := q.Convert(Microsecond)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, converted.Value, 1e-12)
	assert.Equal(t, Microsecond, converted.Unit)

	back, err := converted.Convert(Nanosecond)
	require.NoError(t, err)
	assert.InDelta(t, 1500, back.Value, 1e-9)
}

func TestQuantityConvertMismatch(t *testing.T) {
	_, err := Quantity{Value: 1, Unit: KiloEV}.Convert(Microsecond)
	var mismatch *ErrUnitMismatch
	require.ErrorAs(t, err, &mismatch)
}

func TestQuantityArithmetic(t *testing.T) {
	sum, err := Quantity{Value: 1, Unit: Microsecond}.Add(Quantity{Value: 500, Unit: Nanosecond})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, sum.Value, 1e-12)
	assert.Equal(t, Microsecond, sum.Unit)

	diff, err := Quantity{Value: 2, Unit: MegaEV}.Sub(Quantity{Value: 500, Unit: KiloEV})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, diff.Value, 1e-12)

	_, err = Quantity{Value: 1, Unit: ADC}.Add(Quantity{Value: 1, Unit: Second})
	require.Error(t, err)
}

func TestQuantityCompareAcrossUnits(t *testing.T) {
	c, err := Quantity{Value: 1, Unit: MegaEV}.Compare(Quantity{Value: 900, Unit: KiloEV})
	require.NoError(t, err)
	assert.Equal(t, 1, c)

	c, err = Quantity{Value: 1, Unit: MegaEV}.Compare(Quantity{Value: 1000, Unit: KiloEV})
	require.NoError(t, err)
	assert.Equal(t, 0, c)

	c, err = Quantity{Value: 1, Unit: Nanosecond}.Compare(Quantity{Value: 1, Unit: Microsecond})
	require.NoError(t, err)
	assert.Equal(t, -1, c)
}

func TestQuantityFormat(t *testing.T) {
	assert.Equal(t, "123.5 keV", Quantity{Value: 123.456, Unit: KiloEV}.Format(1))
	assert.Equal(t, "42", Quantity{Value: 42, Unit: Dimensionless}.Format(0))
}

func TestSeriesConvert(t *testing.T) {
	s := Series{Samples: []float64{1000, 2000}, Unit: Nanosecond}
	converted, err := s.Convert(Microsecond)
	require.NoError(t, err)
	assert.InDelta(t, 1, converted.Samples[0], 1e-12)
	assert.InDelta(t, 2, converted.Samples[1], 1e-12)
	// Original untouched.
	assert.Equal(t, float64(1000), s.Samples[0])
}
