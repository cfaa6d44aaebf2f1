package geotess

import (
	"math"
	"testing"
)

func TestDataCasts(t *testing.T) {
	for _, dtype := range []DataType{TypeDouble, TypeFloat, TypeLong, TypeInt, TypeShort, TypeByte} {
		d := NewData(dtype, 3)
		if d.Size() != 3 || d.Type() != dtype {
			t.Fatalf("%v: size %d type %v", dtype, d.Size(), d.Type())
		}
		d.SetDouble(1, 42)
		if got := d.Double(1); got != 42 {
			t.Errorf("%v: Double(1) = %v", dtype, got)
		}
		if got := d.Long(1); got != 42 {
			t.Errorf("%v: Long(1) = %v", dtype, got)
		}
		d.SetLong(2, 7)
		if got := d.Int(2); got != 7 {
			t.Errorf("%v: Int(2) = %v", dtype, got)
		}
	}
}

func TestDataNaN(t *testing.T) {
	d := NewDataDouble(1, math.NaN())
	if d.IsNaN(0) || !d.IsNaN(1) {
		t.Errorf("double NaN flags wrong: %v %v", d.IsNaN(0), d.IsNaN(1))
	}
	f := NewDataFloat(float32(math.NaN()))
	if !f.IsNaN(0) {
		t.Errorf("float NaN not detected")
	}
	// Integral types cannot hold NaN.
	i := NewData(TypeInt, 1)
	i.SetDouble(0, math.NaN())
	if i.IsNaN(0) {
		t.Errorf("int reported NaN")
	}
}

func TestDataCopy(t *testing.T) {
	d := NewDataDouble(1, 2, 3)
	c := d.Copy()
	c.SetDouble(0, 99)
	if d.Double(0) != 1 {
		t.Errorf("copy aliases original")
	}
}

func TestParseDataType(t *testing.T) {
	dt, err := ParseDataType("float")
	if err != nil || dt != TypeFloat {
		t.Errorf("ParseDataType = %v, %v", dt, err)
	}
	if _, err := ParseDataType("complex"); err == nil {
		t.Errorf("expected error for unknown type")
	}
}
