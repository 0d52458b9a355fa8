package services

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/ekaya-inc/ekaya-profiler/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-profiler/pkg/adapters/datasource/sqlite"
	"github.com/ekaya-inc/ekaya-profiler/pkg/models"
)

// statQuery is a statistic query as seen by the fake executor.
type statQuery struct {
	Statistic string
	Column    string // empty for row count
	SQL       string
	Args      []any
}

var quotedIdent = regexp.MustCompile(`"([^"]+)"`)

// classifyQuery maps a generated statement back to the statistic it computes.
func classifyQuery(table, sqlText string, args []any) statQuery {
	q := statQuery{SQL: sqlText, Args: args}
	for _, m := range quotedIdent.FindAllStringSubmatch(sqlText, -1) {
		if m[1] != table {
			q.Column = m[1]
			break
		}
	}

	switch {
	case strings.Contains(sqlText, "AS freq"):
		q.Statistic = models.StatTopValues
	case strings.Contains(sqlText, "IS NULL"):
		q.Statistic = models.StatNullCount
	case strings.Contains(sqlText, "COUNT(DISTINCT"):
		q.Statistic = models.StatDistinctCount
	case strings.HasPrefix(sqlText, "SELECT MIN("):
		q.Statistic = models.StatMinValue
	case strings.HasPrefix(sqlText, "SELECT MAX("):
		q.Statistic = models.StatMaxValue
	case strings.HasPrefix(sqlText, "SELECT AVG("):
		q.Statistic = models.StatAvgLength
	case strings.HasPrefix(sqlText, "SELECT COUNT(*)"):
		q.Statistic = models.StatRowCount
	default:
		q.Statistic = models.StatSamples
	}
	return q
}

// fakeConn is an in-memory datasource.Connection. Statistic queries are
// answered by respond; everything issued is recorded.
type fakeConn struct {
	tables  []datasource.TableRef
	columns map[string][]datasource.ColumnInfo
	pks     map[string][]string
	fks     map[string][]models.ForeignKeyConstraint

	listErr    error
	columnsErr map[string]error
	pkErr      map[string]error
	fkErr      map[string]error

	respond func(ctx context.Context, table string, q statQuery) (*datasource.QueryResult, error)

	mu      sync.Mutex
	queries []statQuery
	closed  bool
}

var _ datasource.Connection = (*fakeConn)(nil)

func newFakeConn() *fakeConn {
	return &fakeConn{
		columns:    map[string][]datasource.ColumnInfo{},
		pks:        map[string][]string{},
		fks:        map[string][]models.ForeignKeyConstraint{},
		columnsErr: map[string]error{},
		pkErr:      map[string]error{},
		fkErr:      map[string]error{},
	}
}

func (f *fakeConn) addTable(name string, cols ...datasource.ColumnInfo) {
	f.tables = append(f.tables, datasource.TableRef{Name: name})
	f.columns[name] = cols
}

func (f *fakeConn) ListTables(ctx context.Context) ([]datasource.TableRef, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.tables, nil
}

func (f *fakeConn) GetColumns(ctx context.Context, table datasource.TableRef) ([]datasource.ColumnInfo, error) {
	if err := f.columnsErr[table.Name]; err != nil {
		return nil, err
	}
	return f.columns[table.Name], nil
}

func (f *fakeConn) GetPrimaryKey(ctx context.Context, table datasource.TableRef) ([]string, error) {
	if err := f.pkErr[table.Name]; err != nil {
		return nil, err
	}
	return f.pks[table.Name], nil
}

func (f *fakeConn) GetForeignKeys(ctx context.Context, table datasource.TableRef) ([]models.ForeignKeyConstraint, error) {
	if err := f.fkErr[table.Name]; err != nil {
		return nil, err
	}
	return f.fks[table.Name], nil
}

func (f *fakeConn) IsSystemTable(name string) bool {
	return strings.HasPrefix(name, "sqlite_")
}

func (f *fakeConn) Query(ctx context.Context, sqlText string, args ...any) (*datasource.QueryResult, error) {
	table := ""
	if m := regexp.MustCompile(`FROM "([^"]+)"`).FindStringSubmatch(sqlText); m != nil {
		table = m[1]
	}
	q := classifyQuery(table, sqlText, args)

	f.mu.Lock()
	f.queries = append(f.queries, q)
	respond := f.respond
	f.mu.Unlock()

	if respond == nil {
		return &datasource.QueryResult{Rows: [][]any{}}, nil
	}
	return respond(ctx, table, q)
}

func (f *fakeConn) Dialect() datasource.Dialect {
	return sqlite.Dialect{}
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

// issued returns the statistics queried for column, in order.
func (f *fakeConn) issued(column string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, q := range f.queries {
		if q.Column == column {
			out = append(out, q.Statistic)
		}
	}
	return out
}

func scalar(v any) *datasource.QueryResult {
	return &datasource.QueryResult{Columns: []string{"v"}, Rows: [][]any{{v}}}
}

func rows(values ...any) *datasource.QueryResult {
	res := &datasource.QueryResult{Columns: []string{"v"}, Rows: make([][]any, 0, len(values))}
	for _, v := range values {
		res.Rows = append(res.Rows, []any{v})
	}
	return res
}

func pairs(kv ...any) *datasource.QueryResult {
	res := &datasource.QueryResult{Columns: []string{"v", "freq"}, Rows: [][]any{}}
	for i := 0; i+1 < len(kv); i += 2 {
		res.Rows = append(res.Rows, []any{kv[i], kv[i+1]})
	}
	return res
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
