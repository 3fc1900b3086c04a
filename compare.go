package housing

import "fmt"

// Tri is the result of a comparison that may involve a missing value.
type Tri uint8

const (
	Unknown Tri = iota
	False
	True
)

func (t Tri) String() string {
	switch t {
	case False:
		return "false"
	case True:
		return "true"
	default:
		return "unknown"
	}
}

func triOf(b bool) Tri {
	if b {
		return True
	}

	return False
}

// Or is Kleene disjunction: true if either is true, false if both are false, otherwise unknown.
func (t Tri) Or(t2 Tri) Tri {
	switch {
	case t == True || t2 == True:
		return True
	case t == False && t2 == False:
		return False
	default:
		return Unknown
	}
}

var compOps = map[string]func(a, b float64) bool{
	">":  func(a, b float64) bool { return a > b },
	"<":  func(a, b float64) bool { return a < b },
	">=": func(a, b float64) bool { return a >= b },
	"<=": func(a, b float64) bool { return a <= b },
	"==": func(a, b float64) bool { return a == b },
	"!=": func(a, b float64) bool { return a != b },
}

// Compare compares element row of x with y using op (>, <, >=, <=, ==, !=). y is either a *Vector,
// in which case its element row is used, or a float64/int constant. The result is Unknown when
// either side is missing.
func Compare(x *Vector, row int, op string, y any) (Tri, error) {
	fn, ok := compOps[op]
	if !ok {
		return Unknown, fmt.Errorf("unknown comparison %s", op)
	}

	if !x.VectorType().IsNumeric() {
		return Unknown, fmt.Errorf("cannot compare %s", x.VectorType())
	}

	a, aOK := x.ElementFloat(row)

	var (
		b   float64
		bOK bool
	)
	switch yv := y.(type) {
	case *Vector:
		if !yv.VectorType().IsNumeric() {
			return Unknown, fmt.Errorf("cannot compare %s", yv.VectorType())
		}

		b, bOK = yv.ElementFloat(row)
	case float64:
		b, bOK = yv, true
	case int:
		b, bOK = float64(yv), true
	default:
		return Unknown, fmt.Errorf("unsupported comparison operand %T", y)
	}

	if !aOK || !bOK {
		return Unknown, nil
	}

	return triOf(fn(a, b)), nil
}

// Where returns the rows of x for which the comparison with y is True.
func Where(x *Vector, op string, y any) ([]int, error) {
	if yv, ok := y.(*Vector); ok && yv.Len() != x.Len() {
		return nil, fmt.Errorf("length mismatch in Where: %d and %d", x.Len(), yv.Len())
	}

	var rows []int
	for ind := 0; ind < x.Len(); ind++ {
		t, e := Compare(x, ind, op, y)
		if e != nil {
			return nil, e
		}

		if t == True {
			rows = append(rows, ind)
		}
	}

	return rows, nil
}
