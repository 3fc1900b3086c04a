package housing

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// All code interacting with files is here

const (
	Sep         = ','
	EOL         = '\n'
	DateFormat  = "2006-01-02"
	FloatFormat = "%g"
	Header      = true
)

// ReadCSV reads a delimited file with a header row. Every column is DTstring; missing tokens
// (empty, NA, NaN, null) are missing.
func ReadCSV(fileName string) (*DF, error) {
	var (
		f *os.File
		e error
	)
	if f, e = os.Open(fileName); e != nil {
		return nil, e
	}
	defer func() { _ = f.Close() }()

	return ReadDelimited(f, Sep)
}

// ReadDelimited reads delimited data with a header row from r.
func ReadDelimited(r io.Reader, sep rune) (*DF, error) {
	rdr := csv.NewReader(r)
	rdr.Comma = sep

	var (
		header []string
		e      error
	)
	if header, e = rdr.Read(); e != nil {
		return nil, fmt.Errorf("reading header: %w", e)
	}

	data := make([][]string, len(header))
	missing := make([][]int, len(header))
	row := 0
	for {
		rec, ex := rdr.Read()
		if ex == io.EOF {
			break
		}

		if ex != nil {
			return nil, ex
		}

		for ind, val := range rec {
			if IsMissingToken(val) {
				missing[ind] = append(missing[ind], row)
			}

			data[ind] = append(data[ind], val)
		}
		row++
	}

	var cols []*Col
	for ind, name := range header {
		name = strings.TrimSpace(name)
		if data[ind] == nil {
			data[ind] = []string{}
		}

		col, ex := NewCol(data[ind], DTstring, ColName(name))
		if ex != nil {
			return nil, fmt.Errorf("%w: header field %q: %v", ErrSchema, name, ex)
		}

		for _, m := range missing[ind] {
			_ = col.SetMissing(m)
		}

		cols = append(cols, col)
	}

	return NewDF(cols...)
}

// Files writes delimited files.
type Files struct {
	FieldNames  []string
	EOL         byte
	Sep         byte
	DateFormat  string
	FloatFormat string
	Header      bool

	file     *os.File
	fileName string
}

func NewFiles() *Files {
	f := &Files{
		EOL:         byte(EOL),
		Sep:         byte(Sep),
		DateFormat:  DateFormat,
		FloatFormat: FloatFormat,
		Header:      Header,
	}

	return f
}

func (f *Files) Create(fileName string) error {
	var e error
	f.fileName = fileName
	f.file, e = os.Create(fileName)

	return e
}

func (f *Files) FileName() string {
	return f.fileName
}

func (f *Files) Close() error {
	if f.file != nil {
		return f.file.Close()
	}

	return fmt.Errorf("no open files")
}

// WriteLine writes one row. nil elements are written as empty fields.
func (f *Files) WriteLine(v []any) error {
	var line []byte
	for ind := 0; ind < len(v); ind++ {
		var lx []byte
		switch d := v[ind].(type) {
		case nil:
		case float64:
			lx = []byte(fmt.Sprintf(f.FloatFormat, d))
		case int:
			lx = []byte(fmt.Sprintf("%v", d))
		case time.Time:
			lx = []byte(d.Format(f.DateFormat))
		case string:
			lx = []byte(d)
			if strings.ContainsAny(d, string([]byte{f.Sep, f.EOL, '"'})) {
				lx = []byte(`"` + strings.ReplaceAll(d, `"`, `""`) + `"`)
			}
		default:
			lx = []byte("#err#")
		}
		line = append(line, lx...)
		if ind < len(v)-1 {
			line = append(line, f.Sep)
		}
	}

	_, e := f.file.Write(append(line, f.EOL))

	return e
}

func (f *Files) WriteHeader() error {
	if !f.Header {
		return nil
	}

	if f.FieldNames == nil {
		return fmt.Errorf("field names not set in *Files")
	}

	_, e := f.file.WriteString(strings.Join(f.FieldNames, string(rune(f.Sep))) + string(rune(f.EOL)))

	return e
}

// Row returns the values of row as written to files and databases: nil for missing elements and
// the raw level for categorical columns.
func (df *DF) Row(row int) []any {
	var vals []any
	for h := df.head; h != nil; h = h.next {
		if h.col.DataType() == DTcategorical {
			lvl, _ := h.col.Level(row)
			vals = append(vals, lvl)
			continue
		}

		vals = append(vals, h.col.Element(row))
	}

	return vals
}

// SaveCSV writes df to fileName with a header row.
func SaveCSV(df *DF, fileName string) (err error) {
	f := NewFiles()
	f.FieldNames = df.ColumnNames()
	if e := f.Create(fileName); e != nil {
		return e
	}

	defer func() {
		if e := f.Close(); e != nil && err == nil {
			err = e
		}
	}()

	if e := f.WriteHeader(); e != nil {
		return e
	}

	for row := 0; row < df.RowCount(); row++ {
		if e := f.WriteLine(df.Row(row)); e != nil {
			return e
		}
	}

	return nil
}
