package geotess

import (
	"fmt"
	"math"
	"strings"
)

// DataType identifies the scalar storage type shared by every Data vector
// in a model.
type DataType int

const (
	TypeDouble DataType = iota
	TypeFloat
	TypeLong
	TypeInt
	TypeShort
	TypeByte
)

var dataTypeNames = [...]string{"DOUBLE", "FLOAT", "LONG", "INT", "SHORT", "BYTE"}

func (t DataType) String() string { return dataTypeNames[t] }

// ParseDataType returns the DataType named by s, as written in model files.
func ParseDataType(s string) (DataType, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range dataTypeNames {
		if n == u {
			return DataType(i), nil
		}
	}
	return TypeDouble, fmt.Errorf("geotess: unknown data type %q", s)
}

// Data is a fixed-width vector of attribute values, all of one DataType.
// Exactly one backing slice is non-nil, selected by the type. Get and set
// accessors cast implicitly; NaN is only representable for the floating
// types and reads back as the type's zero after an integral round trip.
type Data struct {
	dtype   DataType
	doubles []float64
	floats  []float32
	longs   []int64
	ints    []int32
	shorts  []int16
	bytes   []int8
}

// NewData allocates a zero-valued attribute vector of n values.
func NewData(t DataType, n int) *Data {
	d := &Data{dtype: t}
	switch t {
	case TypeDouble:
		d.doubles = make([]float64, n)
	case TypeFloat:
		d.floats = make([]float32, n)
	case TypeLong:
		d.longs = make([]int64, n)
	case TypeInt:
		d.ints = make([]int32, n)
	case TypeShort:
		d.shorts = make([]int16, n)
	case TypeByte:
		d.bytes = make([]int8, n)
	}
	return d
}

// NewDataDouble wraps the given values in a Data vector of type DOUBLE.
// The slice is not copied.
func NewDataDouble(values ...float64) *Data {
	return &Data{dtype: TypeDouble, doubles: values}
}

// NewDataFloat wraps the given values in a Data vector of type FLOAT.
// The slice is not copied.
func NewDataFloat(values ...float32) *Data {
	return &Data{dtype: TypeFloat, floats: values}
}

// Type returns the scalar storage type.
func (d *Data) Type() DataType { return d.dtype }

// Size returns the number of attribute values.
func (d *Data) Size() int {
	switch d.dtype {
	case TypeDouble:
		return len(d.doubles)
	case TypeFloat:
		return len(d.floats)
	case TypeLong:
		return len(d.longs)
	case TypeInt:
		return len(d.ints)
	case TypeShort:
		return len(d.shorts)
	default:
		return len(d.bytes)
	}
}

// Double returns attribute i widened to float64. It panics if i is out of
// range.
func (d *Data) Double(i int) float64 {
	switch d.dtype {
	case TypeDouble:
		return d.doubles[i]
	case TypeFloat:
		return float64(d.floats[i])
	case TypeLong:
		return float64(d.longs[i])
	case TypeInt:
		return float64(d.ints[i])
	case TypeShort:
		return float64(d.shorts[i])
	default:
		return float64(d.bytes[i])
	}
}

// SetDouble stores v into attribute i, narrowing as needed. It panics if i
// is out of range.
func (d *Data) SetDouble(i int, v float64) {
	switch d.dtype {
	case TypeDouble:
		d.doubles[i] = v
	case TypeFloat:
		d.floats[i] = float32(v)
	case TypeLong:
		d.longs[i] = int64(v)
	case TypeInt:
		d.ints[i] = int32(v)
	case TypeShort:
		d.shorts[i] = int16(v)
	default:
		d.bytes[i] = int8(v)
	}
}

// Float returns attribute i as a float32.
func (d *Data) Float(i int) float32 { return float32(d.Double(i)) }

// Long returns attribute i truncated to int64.
func (d *Data) Long(i int) int64 {
	switch d.dtype {
	case TypeLong:
		return d.longs[i]
	case TypeInt:
		return int64(d.ints[i])
	case TypeShort:
		return int64(d.shorts[i])
	case TypeByte:
		return int64(d.bytes[i])
	default:
		return int64(d.Double(i))
	}
}

// SetLong stores v into attribute i, narrowing as needed.
func (d *Data) SetLong(i int, v int64) {
	switch d.dtype {
	case TypeLong:
		d.longs[i] = v
	case TypeInt:
		d.ints[i] = int32(v)
	case TypeShort:
		d.shorts[i] = int16(v)
	case TypeByte:
		d.bytes[i] = int8(v)
	default:
		d.SetDouble(i, float64(v))
	}
}

// Int returns attribute i truncated to int.
func (d *Data) Int(i int) int { return int(d.Long(i)) }

// IsNaN reports whether attribute i holds the NaN sentinel. Only the
// floating types can represent NaN; integral types always report false.
func (d *Data) IsNaN(i int) bool {
	switch d.dtype {
	case TypeDouble:
		return math.IsNaN(d.doubles[i])
	case TypeFloat:
		return math.IsNaN(float64(d.floats[i]))
	default:
		return false
	}
}

// Fill sets every attribute to v.
func (d *Data) Fill(v float64) {
	for i, n := 0, d.Size(); i < n; i++ {
		d.SetDouble(i, v)
	}
}

// Copy returns a deep copy of the vector.
func (d *Data) Copy() *Data {
	c := NewData(d.dtype, d.Size())
	switch d.dtype {
	case TypeDouble:
		copy(c.doubles, d.doubles)
	case TypeFloat:
		copy(c.floats, d.floats)
	case TypeLong:
		copy(c.longs, d.longs)
	case TypeInt:
		copy(c.ints, d.ints)
	case TypeShort:
		copy(c.shorts, d.shorts)
	default:
		copy(c.bytes, d.bytes)
	}
	return c
}
