package housing

import (
	"database/sql"
	_ "embed"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// All code interacting with a database is here

var (
	//go:embed skeletons/clickhouse/create.txt
	chCreate string
	//go:embed skeletons/postgres/create.txt
	pgCreate string

	//go:embed skeletons/clickhouse/types.txt
	chTypes string
	//go:embed skeletons/postgres/types.txt
	pgTypes string

	//go:embed skeletons/clickhouse/fields.txt
	chFields string
	//go:embed skeletons/postgres/fields.txt
	pgFields string

	//go:embed skeletons/clickhouse/dropIf.txt
	chDropIf string
	//go:embed skeletons/postgres/dropIf.txt
	pgDropIf string

	//go:embed skeletons/clickhouse/exists.txt
	chExists string
	//go:embed skeletons/postgres/exists.txt
	pgExists string
)

const (
	CH = "clickhouse"
	PG = "postgres"
)

// Dialect writes DFs to a database.
type Dialect struct {
	db      *sql.DB
	dialect string

	dtTypes []string
	dbTypes []string

	create string
	dropIf string
	exists string
	fields string

	bufSize int // in MB
}

func NewDialect(dialect string, db *sql.DB) (*Dialect, error) {
	dialect = strings.ToLower(dialect)

	d := &Dialect{db: db, dialect: dialect, bufSize: 64}

	var types string
	switch d.dialect {
	case CH:
		d.create, d.fields, d.dropIf, d.exists = chCreate, chFields, chDropIf, chExists
		types = chTypes
	case PG:
		d.create, d.fields, d.dropIf, d.exists = pgCreate, pgFields, pgDropIf, pgExists
		types = pgTypes
	default:
		return nil, fmt.Errorf("no skeletons for database %s", dialect)
	}

	for _, lm := range strings.Split(types, "\n") {
		if strings.TrimSpace(lm) == "" {
			continue
		}

		t := strings.Split(lm, ",")
		if len(t) != 2 {
			return nil, fmt.Errorf("bad type line in NewDialect: %s", lm)
		}

		if DTFromString(t[0]) == DTunknown {
			return nil, fmt.Errorf("unknown data type in NewDialect: %s", t[0])
		}

		d.dtTypes = append(d.dtTypes, t[0])
		d.dbTypes = append(d.dbTypes, strings.TrimSpace(t[1]))
	}

	return d, nil
}

// ***************** Methods *****************

func (d *Dialect) BufSize() int {
	return d.bufSize
}

func (d *Dialect) SetBufSize(mb int) {
	d.bufSize = mb
}

func (d *Dialect) Close() error {
	return d.db.Close()
}

func (d *Dialect) DB() *sql.DB {
	return d.db
}

func (d *Dialect) DialectName() string {
	return d.dialect
}

// Create creates tableName with the given fields and types.
func (d *Dialect) Create(tableName, orderBy string, fields []string, types []DataTypes, overwrite bool) error {
	if d.Exists(tableName) && !overwrite {
		return fmt.Errorf("table %s exists", tableName)
	}

	if orderBy == "" {
		orderBy = fields[0]
	}

	create := strings.ReplaceAll(d.create, "?TableName", tableName)
	create = strings.ReplaceAll(create, "?OrderBy", orderBy)
	create = strings.ReplaceAll(create, "?IndexName", randomLetters(8))

	var flds []string
	for ind := 0; ind < len(fields); ind++ {
		var (
			dbType string
			ex     error
		)
		if dbType, ex = d.dbtype(types[ind]); ex != nil {
			return ex
		}

		field := strings.ReplaceAll(strings.TrimSpace(d.fields), "?Field", fields[ind])
		field = strings.ReplaceAll(field, "?Type", dbType)
		flds = append(flds, field)
	}

	create = strings.Replace(create, "?fields", strings.Join(flds, ","), 1)
	if strings.Contains(create, "?") {
		return fmt.Errorf("create still has placeholders: %s", create)
	}

	for _, stmt := range strings.Split(create, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}

		if _, e := d.db.Exec(stmt); e != nil {
			return e
		}
	}

	return nil
}

func (d *Dialect) DropTable(tableName string) error {
	if !d.Exists(tableName) {
		return nil
	}

	qry := strings.ReplaceAll(strings.TrimSpace(d.dropIf), "?TableName", tableName)
	_, e := d.DB().Exec(qry)

	return e
}

func (d *Dialect) Exists(tableName string) bool {
	qry := strings.ReplaceAll(strings.TrimSpace(d.exists), "?TableName", tableName)

	var n int
	if e := d.db.QueryRow(qry).Scan(&n); e != nil {
		return false
	}

	return n > 0
}

func (d *Dialect) InsertValues(tableName string, fields, values []byte) error {
	qry := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", tableName, fields) + string(values)
	_, e := d.db.Exec(qry)

	return e
}

// Save writes df to tableName, replacing it if overwrite is true.
func (d *Dialect) Save(tableName, orderBy string, overwrite bool, df *DF) error {
	exists := d.Exists(tableName)
	if exists && !overwrite {
		return fmt.Errorf("table %s exists", tableName)
	}

	if exists {
		if e := d.DropTable(tableName); e != nil {
			return e
		}
	}

	if orderBy != "" && !df.HasColumns(strings.Split(orderBy, ",")...) {
		return fmt.Errorf("not all columns present in OrderBy %s", orderBy)
	}

	var dts []DataTypes
	for col := df.Next(true); col != nil; col = df.Next(false) {
		dt := col.DataType()
		if dt == DTcategorical {
			dt = col.RawType()
		}

		dts = append(dts, dt)
	}

	if e := d.Create(tableName, orderBy, df.ColumnNames(), dts, overwrite); e != nil {
		return e
	}

	return d.IterSave(tableName, df)
}

// IterSave inserts the rows of df into tableName in batches of about BufSize MB.
func (d *Dialect) IterSave(tableName string, df *DF) error {
	const (
		bSep   = byte(',')
		bOpen  = byte('(')
		bClose = byte(')')
	)

	fields := []byte(strings.Join(df.ColumnNames(), ","))

	var buffer []byte
	bsize := d.bufSize * 1024 * 1024

	for row := 0; row < df.RowCount(); row++ {
		if buffer != nil {
			buffer = append(buffer, bSep)
		}

		buffer = append(buffer, bOpen)
		for _, x := range df.Row(row) {
			buffer = append(append(buffer, []byte(d.ToString(x))...), bSep)
		}

		buffer[len(buffer)-1] = bClose

		if bsize > 0 && len(buffer) >= bsize {
			if e := d.InsertValues(tableName, fields, buffer); e != nil {
				return e
			}

			buffer = nil
		}
	}

	if buffer != nil {
		return d.InsertValues(tableName, fields, buffer)
	}

	return nil
}

// ToString returns a string version of val that can be placed into SQL
func (d *Dialect) ToString(val any) string {
	switch x := val.(type) {
	case nil:
		return "NULL"
	case float64:
		return fmt.Sprintf("%v", x)
	case int:
		return fmt.Sprintf("%d", x)
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	case time.Time:
		return "'" + x.Format(DateFormat) + "'"
	default:
		panic(fmt.Errorf("unsupported type %T in ToString", val))
	}
}

func (d *Dialect) dbtype(dt DataTypes) (string, error) {
	pos := position(dt.String(), d.dtTypes)
	if pos < 0 {
		return "", fmt.Errorf("cannot find type %s to map to DB type", dt.String())
	}

	return d.dbTypes[pos], nil
}

func randomLetters(length int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, length)
	for ind := range b {
		b[ind] = letters[rand.IntN(len(letters))]
	}

	return string(b)
}
