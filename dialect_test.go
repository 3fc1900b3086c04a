package housing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewDialect(t *testing.T) {
	for _, which := range []string{CH, PG, "ClickHouse"} {
		d, e := NewDialect(which, nil)
		assert.Nil(t, e)

		dbt, e := d.dbtype(DTfloat)
		assert.Nil(t, e)
		assert.NotEqual(t, "", dbt)

		_, e = d.dbtype(DTcategorical)
		assert.NotNil(t, e)
	}

	_, e := NewDialect("mysql", nil)
	assert.NotNil(t, e)
}

func TestDialect_ToString(t *testing.T) {
	d, _ := NewDialect(CH, nil)
	assert.Equal(t, "NULL", d.ToString(nil))
	assert.Equal(t, "3", d.ToString(3))
	assert.Equal(t, "2.5", d.ToString(2.5))
	assert.Equal(t, "'O''Brien'", d.ToString("O'Brien"))
	assert.Equal(t, "'2014-01-02'", d.ToString(time.Date(2014, 1, 2, 0, 0, 0, 0, time.UTC)))
}
