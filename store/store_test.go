package store

import (
	"os"
	"testing"

	d "github.com/invertedv/housing"
	"github.com/invertedv/housing/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// environment variables for the live tests:
//   - HOUSING_CH_HOST ClickHouse host, HOUSING_PG_HOST Postgres host
//   - HOUSING_DB_USER, HOUSING_DB_PASSWORD credentials
//   - HOUSING_PG_DB Postgres database

func TestPgURL(t *testing.T) {
	cfg := config.Store{Dialect: d.PG, Host: "db", User: "u", Password: "p", Database: "housing"}
	assert.Equal(t, "postgres://u:p@db:5432/housing", pgURL(cfg))

	cfg.Port = 6543
	assert.Equal(t, "postgres://u:p@db:6543/housing", pgURL(cfg))
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "housing_train_0f1e", TableName("housing", "train", "0f-1e"))
}

func TestConnect_Unsupported(t *testing.T) {
	_, e := Connect(config.Store{Dialect: "oracle"})
	assert.NotNil(t, e)
}

func liveStores(t *testing.T) []config.Store {
	var stores []config.Store
	user, password := os.Getenv("HOUSING_DB_USER"), os.Getenv("HOUSING_DB_PASSWORD")
	if host := os.Getenv("HOUSING_CH_HOST"); host != "" {
		stores = append(stores, config.Store{Dialect: d.CH, Host: host, User: user, Password: password, Database: "default"})
	}

	if host := os.Getenv("HOUSING_PG_HOST"); host != "" {
		stores = append(stores, config.Store{Dialect: d.PG, Host: host, User: user, Password: password,
			Database: os.Getenv("HOUSING_PG_DB")})
	}

	if len(stores) == 0 {
		t.Skip("no database configured")
	}

	return stores
}

func TestSave(t *testing.T) {
	for _, cfg := range liveStores(t) {
		dlct, e := Connect(cfg)
		require.Nil(t, e)

		x, _ := d.NewCol([]float64{1, 2, 3}, d.DTfloat, d.ColName("x"))
		y, _ := d.NewCol([]int{4, 5, 6}, d.DTint, d.ColName("y"))
		_ = x.SetMissing(1)
		df, _ := d.NewDF(x, y)

		table := TableName("housing", "test", "live")
		require.Nil(t, dlct.Save(table, "y", true, df))
		assert.True(t, dlct.Exists(table))

		require.Nil(t, dlct.DropTable(table))
		assert.False(t, dlct.Exists(table))
		assert.Nil(t, dlct.Close())
	}
}
