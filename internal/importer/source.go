package importer

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/geodata/internal/fetcher"
)

// Source yields snapshot rows keyed by column name.
type Source interface {
	Records(ctx context.Context) ([]fetcher.Record, error)
	String() string
}

// SourceFor picks a Source by file extension. table names the SQLite table
// to read and is ignored for CSV and XLSX files.
func SourceFor(path, table string) (Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, eris.Wrapf(err, "importer: snapshot %s", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sqlite3", ".sqlite", ".db":
		return &SQLiteSource{Path: path, Table: table}, nil
	case ".csv":
		return &CSVSource{Path: path}, nil
	case ".xlsx":
		return &XLSXSource{Path: path}, nil
	default:
		return nil, eris.Errorf("importer: unsupported snapshot format %q", filepath.Ext(path))
	}
}

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteSource reads every row of one table of a SQLite snapshot, opened read-only.
type SQLiteSource struct {
	Path  string
	Table string
}

func (s *SQLiteSource) String() string { return s.Path + "#" + s.Table }

func (s *SQLiteSource) Records(ctx context.Context) ([]fetcher.Record, error) {
	if !tableName.MatchString(s.Table) {
		return nil, eris.Errorf("importer: invalid table name %q", s.Table)
	}
	db, err := sql.Open("sqlite", "file:"+s.Path+"?mode=ro")
	if err != nil {
		return nil, eris.Wrap(err, "importer: open snapshot")
	}
	defer db.Close() //nolint:errcheck

	rs, err := db.QueryContext(ctx, `SELECT * FROM `+s.Table+` ORDER BY rowid`)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: query %s", s)
	}
	defer rs.Close() //nolint:errcheck

	cols, err := rs.Columns()
	if err != nil {
		return nil, eris.Wrap(err, "importer: snapshot columns")
	}

	var out []fetcher.Record
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rs.Next() {
		if err := rs.Scan(ptrs...); err != nil {
			return nil, eris.Wrapf(err, "importer: scan %s row %d", s, len(out)+1)
		}
		rec := make(fetcher.Record, len(cols))
		for i, c := range cols {
			rec[c] = cellString(values[i])
		}
		out = append(out, rec)
	}
	return out, eris.Wrapf(rs.Err(), "importer: iterate %s", s)
}

// cellString renders a SQLite value the way the CSV export of the same data would.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.UTC().Format("2006-01-02 15:04:05.999999")
	default:
		return fmt.Sprint(x)
	}
}

// CSVSource reads a comma-separated snapshot with a header row.
type CSVSource struct {
	Path string
}

func (s *CSVSource) String() string { return s.Path }

func (s *CSVSource) Records(ctx context.Context) ([]fetcher.Record, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open csv snapshot")
	}
	defer f.Close() //nolint:errcheck
	return fetcher.ReadCSVRecords(ctx, f, fetcher.CSVOptions{LazyQuotes: true, TrimSpace: true})
}

// XLSXSource reads the first sheet of a workbook snapshot.
type XLSXSource struct {
	Path string
}

func (s *XLSXSource) String() string { return s.Path }

func (s *XLSXSource) Records(_ context.Context) ([]fetcher.Record, error) {
	return fetcher.ReadXLSXRecords(s.Path, fetcher.XLSXOptions{})
}
