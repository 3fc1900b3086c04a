// Package schema selects and type-casts the columns used from the raw transaction and macro tables.
package schema

import (
	"fmt"

	d "github.com/invertedv/housing"
)

// column names shared across packages
const (
	TimeKey = "timestamp"
	Target  = "price_doc"

	FullSq      = "full_sq"
	LifeSq      = "life_sq"
	Floor       = "floor"
	MaxFloor    = "max_floor"
	BuildYear   = "build_year"
	NumRoom     = "num_room"
	KitchSq     = "kitch_sq"
	State       = "state"
	Material    = "material"
	ProductType = "product_type"
	PopRatio    = "raion_popul"

	USDRUB       = "usdrub"
	Unemployment = "unemployment"
)

// Field is a column to keep and the type to cast it to.
type Field struct {
	Name string
	Type d.DataTypes
}

// Transactions are the fields kept from the transaction table.
func Transactions() []Field {
	return []Field{
		{TimeKey, d.DTdate},
		{FullSq, d.DTfloat},
		{LifeSq, d.DTfloat},
		{Floor, d.DTint},
		{MaxFloor, d.DTint},
		{BuildYear, d.DTint},
		{NumRoom, d.DTint},
		{KitchSq, d.DTfloat},
		{State, d.DTint},
		{Material, d.DTint},
		{ProductType, d.DTstring},
		{PopRatio, d.DTfloat},
		{Target, d.DTfloat},
	}
}

// Macro are the fields kept from the macro table.
func Macro() []Field {
	return []Field{
		{TimeKey, d.DTdate},
		{USDRUB, d.DTfloat},
		{Unemployment, d.DTfloat},
	}
}

// Categoricals are the transaction fields treated as categorical once the data is split.
func Categoricals() []string {
	return []string{State, Material, ProductType}
}

// Project returns a new DF with the fields of raw, in the order of fields, cast to their types.
// A field absent from raw is an ErrSchema; a value that does not parse, or a missing date, is an ErrTypeCast.
func Project(raw *d.DF, fields []Field) (*d.DF, error) {
	var cols []*d.Col
	for _, fld := range fields {
		var src *d.Col
		if src = raw.Column(fld.Name); src == nil {
			return nil, fmt.Errorf("%w: required column %s is absent", d.ErrSchema, fld.Name)
		}

		var (
			col *d.Col
			e   error
		)
		if col, e = d.Cast(src, fld.Type); e != nil {
			return nil, e
		}

		if fld.Type == d.DTdate && col.Missing() > 0 {
			return nil, fmt.Errorf("%w: column %s has %d missing dates", d.ErrTypeCast, fld.Name, col.Missing())
		}

		cols = append(cols, col)
	}

	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: no fields to project", d.ErrSchema)
	}

	return d.NewDF(cols...)
}

// Load reads fileName and projects it onto fields.
func Load(fileName string, fields []Field) (*d.DF, error) {
	var (
		raw *d.DF
		e   error
	)
	if raw, e = d.ReadCSV(fileName); e != nil {
		return nil, e
	}

	return Project(raw, fields)
}
