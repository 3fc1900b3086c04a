package housing

import (
	"fmt"
	"math"
	"time"
)

// Vector holds the data of a column. missing is nil until an element is set missing.
type Vector struct {
	dt DataTypes

	data    any
	missing []bool
}

func NewVector(data any, dt DataTypes) (*Vector, error) {
	var ok bool
	switch dt {
	case DTfloat:
		_, ok = data.([]float64)
	case DTint, DTcategorical:
		_, ok = data.([]int)
	case DTstring:
		_, ok = data.([]string)
	case DTdate:
		_, ok = data.([]time.Time)
	}

	if !ok {
		return nil, fmt.Errorf("cannot make vector of type %s from %T", dt, data)
	}

	return &Vector{dt: dt, data: data}, nil
}

func MakeVector(dt DataTypes, n int) *Vector {
	switch dt {
	case DTfloat:
		return &Vector{dt: dt, data: make([]float64, n)}
	case DTint, DTcategorical:
		return &Vector{dt: dt, data: make([]int, n)}
	case DTstring:
		return &Vector{dt: dt, data: make([]string, n)}
	case DTdate:
		return &Vector{dt: dt, data: make([]time.Time, n)}
	default:
		panic(fmt.Errorf("cannot make Vector with data type %s", dt))
	}
}

// ***************** Vector - Methods *****************

func (v *Vector) VectorType() DataTypes {
	return v.dt
}

func (v *Vector) Data() *Vector {
	return v
}

func (v *Vector) Len() int {
	switch x := v.data.(type) {
	case []float64:
		return len(x)
	case []int:
		return len(x)
	case []string:
		return len(x)
	case []time.Time:
		return len(x)
	default:
		return -1
	}
}

func (v *Vector) IsMissing(indx int) bool {
	return v.missing != nil && v.missing[indx]
}

func (v *Vector) SetMissing(indx int) error {
	if indx < 0 || indx >= v.Len() {
		return fmt.Errorf("index out of range")
	}

	if v.missing == nil {
		v.missing = make([]bool, v.Len())
	}

	v.missing[indx] = true

	return nil
}

// Missing returns the number of missing elements.
func (v *Vector) Missing() int {
	n := 0
	for _, m := range v.missing {
		if m {
			n++
		}
	}

	return n
}

func (v *Vector) setPresent(indx int) {
	if v.missing != nil {
		v.missing[indx] = false
	}
}

func (v *Vector) check(dt DataTypes, indx int) error {
	if v.dt != dt && !(dt == DTint && v.dt == DTcategorical) {
		return fmt.Errorf("vector is %s, not %s", v.dt, dt)
	}

	if indx < 0 || indx >= v.Len() {
		return fmt.Errorf("index out of range")
	}

	return nil
}

func (v *Vector) SetFloat(val float64, indx int) error {
	if e := v.check(DTfloat, indx); e != nil {
		return e
	}

	v.data.([]float64)[indx] = val
	v.setPresent(indx)

	return nil
}

func (v *Vector) SetInt(val, indx int) error {
	if e := v.check(DTint, indx); e != nil {
		return e
	}

	v.data.([]int)[indx] = val
	v.setPresent(indx)

	return nil
}

func (v *Vector) SetString(val string, indx int) error {
	if e := v.check(DTstring, indx); e != nil {
		return e
	}

	v.data.([]string)[indx] = val
	v.setPresent(indx)

	return nil
}

func (v *Vector) SetDate(val time.Time, indx int) error {
	if e := v.check(DTdate, indx); e != nil {
		return e
	}

	v.data.([]time.Time)[indx] = val
	v.setPresent(indx)

	return nil
}

// Set assigns element indx of v from element from of src, including its missing status.
func (v *Vector) Set(indx int, src *Vector, from int) error {
	if v.dt != src.dt {
		return fmt.Errorf("cannot set %s from %s", v.dt, src.dt)
	}

	if src.IsMissing(from) {
		return v.SetMissing(indx)
	}

	switch x := src.data.(type) {
	case []float64:
		return v.SetFloat(x[from], indx)
	case []int:
		return v.SetInt(x[from], indx)
	case []string:
		return v.SetString(x[from], indx)
	case []time.Time:
		return v.SetDate(x[from], indx)
	}

	return fmt.Errorf("unsupported data type in Set")
}

// Element returns element indx of v, or nil if it is missing.
func (v *Vector) Element(indx int) any {
	if indx < 0 || indx >= v.Len() {
		panic(fmt.Errorf("index out of range"))
	}

	if v.IsMissing(indx) {
		return nil
	}

	switch x := v.data.(type) {
	case []float64:
		return x[indx]
	case []int:
		return x[indx]
	case []string:
		return x[indx]
	case []time.Time:
		return x[indx]
	default:
		panic(fmt.Errorf("error in Element"))
	}
}

// ElementFloat returns element indx as a float64. ok is false if the element is missing
// or the vector is not numeric.
func (v *Vector) ElementFloat(indx int) (val float64, ok bool) {
	if v.IsMissing(indx) {
		return 0, false
	}

	switch x := v.data.(type) {
	case []float64:
		return x[indx], true
	case []int:
		return float64(x[indx]), true
	}

	return 0, false
}

func (v *Vector) ElementInt(indx int) (val int, ok bool) {
	if v.IsMissing(indx) {
		return 0, false
	}

	switch x := v.data.(type) {
	case []int:
		return x[indx], true
	case []float64:
		return int(x[indx]), true
	}

	return 0, false
}

func (v *Vector) ElementString(indx int) (val string, ok bool) {
	if v.IsMissing(indx) {
		return "", false
	}

	if x, isStr := v.data.([]string); isStr {
		return x[indx], true
	}

	return "", false
}

func (v *Vector) ElementDate(indx int) (val time.Time, ok bool) {
	if v.IsMissing(indx) {
		return time.Time{}, false
	}

	if x, isDate := v.data.([]time.Time); isDate {
		return x[indx], true
	}

	return time.Time{}, false
}

// AsFloat returns the vector as []float64 with missing elements set to NaN.
func (v *Vector) AsFloat() []float64 {
	xOut := make([]float64, v.Len())
	for ind := 0; ind < len(xOut); ind++ {
		var ok bool
		if xOut[ind], ok = v.ElementFloat(ind); !ok {
			xOut[ind] = math.NaN()
		}
	}

	return xOut
}

func (v *Vector) AsInt() []int {
	if x, ok := v.data.([]int); ok {
		return x
	}

	panic(fmt.Errorf("cannot convert to Vector.AsInt"))
}

func (v *Vector) AsString() []string {
	if x, ok := v.data.([]string); ok {
		return x
	}

	panic(fmt.Errorf("cannot convert to Vector.AsString"))
}

func (v *Vector) AsDate() []time.Time {
	if x, ok := v.data.([]time.Time); ok {
		return x
	}

	panic(fmt.Errorf("cannot convert to Vector.AsDate"))
}

func (v *Vector) AsAny() any {
	return v.data
}

func (v *Vector) Copy() *Vector {
	n := v.Len()
	var data any
	switch x := v.data.(type) {
	case []float64:
		data = append(make([]float64, 0, n), x...)
	case []int:
		data = append(make([]int, 0, n), x...)
	case []string:
		data = append(make([]string, 0, n), x...)
	case []time.Time:
		data = append(make([]time.Time, 0, n), x...)
	}

	vOut := &Vector{dt: v.dt, data: data}
	if v.missing != nil {
		vOut.missing = append(make([]bool, 0, n), v.missing...)
	}

	return vOut
}

// AppendVector appends vAdd to v.
func (v *Vector) AppendVector(vAdd *Vector) error {
	if v.dt != vAdd.dt {
		return fmt.Errorf("cannot append %s to %s", vAdd.dt, v.dt)
	}

	n1, n2 := v.Len(), vAdd.Len()
	switch x := v.data.(type) {
	case []float64:
		v.data = append(x, vAdd.data.([]float64)...)
	case []int:
		v.data = append(x, vAdd.data.([]int)...)
	case []string:
		v.data = append(x, vAdd.data.([]string)...)
	case []time.Time:
		v.data = append(x, vAdd.data.([]time.Time)...)
	}

	if v.missing == nil && vAdd.missing == nil {
		return nil
	}

	if v.missing == nil {
		v.missing = make([]bool, n1, n1+n2)
	}

	if vAdd.missing == nil {
		v.missing = append(v.missing, make([]bool, n2)...)
		return nil
	}

	v.missing = append(v.missing, vAdd.missing...)

	return nil
}

// Subset returns a new vector with the elements of rows, in order. A row of -1 produces a missing element.
func (v *Vector) Subset(rows []int) *Vector {
	vOut := MakeVector(v.dt, len(rows))
	for ind, row := range rows {
		if row < 0 {
			_ = vOut.SetMissing(ind)
			continue
		}

		_ = vOut.Set(ind, v, row)
	}

	return vOut
}

// Equal is true if v and v2 have the same type, values and missing pattern.
func (v *Vector) Equal(v2 *Vector) bool {
	if v.dt != v2.dt || v.Len() != v2.Len() {
		return false
	}

	for ind := 0; ind < v.Len(); ind++ {
		if v.IsMissing(ind) != v2.IsMissing(ind) {
			return false
		}

		if v.IsMissing(ind) {
			continue
		}

		e1, e2 := v.Element(ind), v2.Element(ind)
		if t1, isDate := e1.(time.Time); isDate {
			if !t1.Equal(e2.(time.Time)) {
				return false
			}
			continue
		}

		if e1 != e2 {
			return false
		}
	}

	return true
}

// Less is used by sorting. Missing elements sort last.
func (v *Vector) Less(i, j int) bool {
	mi, mj := v.IsMissing(i), v.IsMissing(j)
	if mi || mj {
		return !mi && mj
	}

	switch x := v.data.(type) {
	case []float64:
		return x[i] < x[j]
	case []int:
		return x[i] < x[j]
	case []string:
		return x[i] < x[j]
	case []time.Time:
		return x[i].Before(x[j])
	default:
		panic(fmt.Errorf("unsupported data type in Less"))
	}
}
