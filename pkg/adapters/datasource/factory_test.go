package datasource

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-profiler/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-profiler/pkg/models"
)

// stubConnection satisfies Connection for registry tests.
type stubConnection struct {
	Connection
	dsn  string
	opts Options
}

func registerStub(t *testing.T, scheme string) *[]stubConnection {
	t.Helper()
	var opened []stubConnection
	Register(AdapterRegistration{
		Info: AdapterInfo{Type: "stub-" + scheme, DisplayName: "Stub", Schemes: []string{scheme}, Local: true},
		Open: func(ctx context.Context, dsn string, opts Options) (Connection, error) {
			c := stubConnection{dsn: dsn, opts: opts}
			opened = append(opened, c)
			return &c, nil
		},
	})
	t.Cleanup(func() {
		registryMu.Lock()
		delete(registry, scheme)
		registryMu.Unlock()
	})
	return &opened
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		raw    string
		scheme string
		dsn    string
	}{
		{"postgres://u:p@localhost/db", "postgres", "postgres://u:p@localhost/db"},
		{"postgresql+psycopg2://u:p@localhost/db", "postgresql", "postgresql://u:p@localhost/db"},
		{"MSSQL+pyodbc://sa:x@db:1433?database=shop", "mssql", "mssql://sa:x@db:1433?database=shop"},
		{"sqlite:///demo.sqlite", "sqlite", "sqlite:///demo.sqlite"},
		{"  file:shop.db?mode=ro ", "file", "file:shop.db?mode=ro"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			scheme, dsn, err := ParseURL(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.scheme, scheme)
			assert.Equal(t, tt.dsn, dsn)
		})
	}
}

func TestParseURL_MissingScheme(t *testing.T) {
	for _, raw := range []string{"", "demo.sqlite", ":memory:", "+driver://x"} {
		_, _, err := ParseURL(raw)
		assert.ErrorIs(t, err, apperrors.ErrConfiguration, raw)
	}
}

func TestOpen_SelectsAdapterByScheme(t *testing.T) {
	opened := registerStub(t, "stubdb")

	conn, err := Open(context.Background(), "stubdb+fast:///data.db", Options{Schema: "main", MaxConns: 3})
	require.NoError(t, err)
	require.NotNil(t, conn)

	require.Len(t, *opened, 1)
	assert.Equal(t, "stubdb:///data.db", (*opened)[0].dsn)
	assert.Equal(t, "main", (*opened)[0].opts.Schema)
	assert.Equal(t, 3, (*opened)[0].opts.MaxConns)
	assert.NotNil(t, (*opened)[0].opts.Logger)

	assert.True(t, IsRegistered("stubdb"))
	var types []string
	for _, info := range RegisteredAdapters() {
		types = append(types, info.Type)
	}
	assert.Contains(t, types, "stub-stubdb")
}

func TestOpen_UnsupportedScheme(t *testing.T) {
	_, err := Open(context.Background(), "oracle://scott:tiger@db/orcl", Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedDatasource)
	assert.NotContains(t, err.Error(), "tiger")
}

func TestGroupForeignKeys(t *testing.T) {
	rows := []ForeignKeyRow{
		{Name: "fk_items_order", Column: "order_id", ReferredTable: "orders", ReferredColumn: "order_id"},
		{Name: "fk_ship_item", Column: "order_id", ReferredTable: "order_items", ReferredColumn: "order_id"},
		{Name: "fk_ship_item", Column: "line_no", ReferredTable: "order_items", ReferredColumn: "line_no"},
		{Key: "0", Column: "product_id", ReferredTable: "products", ReferredColumn: "product_id"},
	}

	fks := GroupForeignKeys(rows)
	require.Len(t, fks, 3)
	assert.Equal(t, "orders(order_id)", fks[0].Target())
	assert.Equal(t, []string{"order_id", "line_no"}, fks[1].ConstrainedColumns)
	assert.Equal(t, "order_items(order_id, line_no)", fks[1].Target())
	assert.Equal(t, "", fks[2].Name)
	assert.Equal(t, "products(product_id)", fks[2].Target())

	assert.NotNil(t, GroupForeignKeys(nil))
	assert.Empty(t, GroupForeignKeys(nil))
}

func TestNewQueryError(t *testing.T) {
	unsupported := func(err error) (models.StatFailureKind, bool) {
		if err.Error() == "no aggregate for blob" {
			return models.FailureUnsupported, true
		}
		return "", false
	}
	ctx := context.Background()

	qe := NewQueryError(ctx, "SELECT MIN(b) FROM t", errors.New("no aggregate for blob"), unsupported)
	assert.Equal(t, models.FailureUnsupported, qe.Kind)
	assert.Equal(t, "SELECT MIN(b) FROM t", qe.Query)

	qe = NewQueryError(ctx, "SELECT 1", errors.New("syntax error"), unsupported)
	assert.Equal(t, models.FailureQuery, qe.Kind)

	qe = NewQueryError(ctx, "SELECT 1", fmt.Errorf("read: %w", context.DeadlineExceeded), unsupported)
	assert.Equal(t, models.FailureTimeout, qe.Kind)

	expired, cancel := context.WithTimeout(ctx, 0)
	defer cancel()
	<-expired.Done()
	qe = NewQueryError(expired, "SELECT 1", errors.New("interrupted (9)"), nil)
	assert.Equal(t, models.FailureTimeout, qe.Kind)

	// Already-classified errors pass through.
	again := NewQueryError(ctx, "other", fmt.Errorf("wrap: %w", qe), nil)
	assert.Same(t, qe, again)
}

func TestFailureKind(t *testing.T) {
	assert.Equal(t, models.FailureUnsupported, FailureKind(fmt.Errorf("x: %w", &QueryError{Kind: models.FailureUnsupported})))
	assert.Equal(t, models.FailureTimeout, FailureKind(context.DeadlineExceeded))
	assert.Equal(t, models.FailureQuery, FailureKind(errors.New("boom")))
}

func TestTableRef_String(t *testing.T) {
	assert.Equal(t, "orders", TableRef{Name: "orders"}.String())
	assert.Equal(t, "sales.orders", TableRef{Schema: "sales", Name: "orders"}.String())
}
