package housing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompare(t *testing.T) {
	x, _ := NewVector([]float64{5, 3, 0}, DTfloat)
	y, _ := NewVector([]int{3, 5, 1}, DTint)
	_ = x.SetMissing(2)

	c, e := Compare(x, 0, ">", y)
	assert.Nil(t, e)
	assert.Equal(t, True, c)

	c, _ = Compare(x, 1, ">", y)
	assert.Equal(t, False, c)

	// missing on either side is never true or false
	c, _ = Compare(x, 2, "<", y)
	assert.Equal(t, Unknown, c)
	c, _ = Compare(y, 2, ">", x)
	assert.Equal(t, Unknown, c)

	c, _ = Compare(x, 1, "==", 3)
	assert.Equal(t, True, c)
	c, _ = Compare(x, 1, "!=", 3.0)
	assert.Equal(t, False, c)

	_, e = Compare(x, 0, "~", 1)
	assert.NotNil(t, e)

	s, _ := NewVector([]string{"a"}, DTstring)
	_, e = Compare(s, 0, "==", 1)
	assert.NotNil(t, e)
}

func TestTri_Or(t *testing.T) {
	assert.Equal(t, True, Unknown.Or(True))
	assert.Equal(t, Unknown, Unknown.Or(False))
	assert.Equal(t, False, False.Or(False))
	assert.Equal(t, "unknown", Unknown.String())
}

func TestWhere(t *testing.T) {
	x, _ := NewVector([]float64{5, 3, 0, 7}, DTfloat)
	y, _ := NewVector([]float64{3, 5, 1, 6}, DTfloat)
	_ = y.SetMissing(3)

	rows, e := Where(x, ">", y)
	assert.Nil(t, e)
	assert.Equal(t, []int{0}, rows)

	rows, e = Where(x, "==", 0)
	assert.Nil(t, e)
	assert.Equal(t, []int{2}, rows)

	short, _ := NewVector([]float64{1}, DTfloat)
	_, e = Where(x, ">", short)
	assert.NotNil(t, e)
}
