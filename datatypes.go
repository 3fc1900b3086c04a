package housing

import "fmt"

//  *********** DataTypes ***********

// DataTypes are the types of data that the package supports
type DataTypes uint8

// values of DataTypes
const (
	DTunknown DataTypes = 0 + iota
	DTstring
	DTfloat
	DTint
	DTcategorical
	DTdate
	DTany // keep as last entry
)

// MaxDT is max value of DataTypes type
const MaxDT = DTany

var dtNames = []string{"DTunknown", "DTstring", "DTfloat", "DTint", "DTcategorical", "DTdate", "DTany"}

func (d DataTypes) String() string {
	if int(d) < len(dtNames) {
		return dtNames[d]
	}

	return fmt.Sprintf("DataTypes(%d)", d)
}

func DTFromString(nm string) DataTypes {
	pos := position(nm, dtNames)
	if pos < 0 {
		return DTunknown
	}

	return DataTypes(uint8(pos))
}

// IsNumeric is true for types that can enter a design matrix.
func (d DataTypes) IsNumeric() bool {
	return d == DTfloat || d == DTint || d == DTcategorical
}
