package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-profiler/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-profiler/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-profiler/pkg/config"
	"github.com/ekaya-inc/ekaya-profiler/pkg/models"
)

func newTestProfiler(t *testing.T) TableProfiler {
	t.Helper()
	return NewTableProfiler(newTestCollector(t, samplingConfig(10, 5), config.MaskConfig{}), zap.NewNop())
}

// countingResponder answers row count with n and every other statistic with
// an empty or NULL result.
func countingResponder(n int64) func(ctx context.Context, table string, q statQuery) (*datasource.QueryResult, error) {
	return func(ctx context.Context, table string, q statQuery) (*datasource.QueryResult, error) {
		switch q.Statistic {
		case models.StatRowCount, models.StatNullCount, models.StatDistinctCount:
			return scalar(n), nil
		case models.StatSamples:
			return rows(), nil
		case models.StatTopValues:
			return pairs(), nil
		}
		return scalar(nil), nil
	}
}

func TestTableProfiler_Profile_Keys(t *testing.T) {
	conn := newFakeConn()
	conn.addTable("order_items",
		datasource.ColumnInfo{Name: "order_id", DataType: "INTEGER"},
		datasource.ColumnInfo{Name: "product_id", DataType: "INTEGER"},
		datasource.ColumnInfo{Name: "quantity", DataType: "INTEGER", Nullable: true},
	)
	conn.pks["order_items"] = []string{"order_id", "product_id"}
	conn.fks["order_items"] = []models.ForeignKeyConstraint{
		{ConstrainedColumns: []string{"order_id"}, ReferredTable: "orders", ReferredColumns: []string{"order_id"}},
		{ConstrainedColumns: []string{"product_id"}, ReferredTable: "products", ReferredColumns: []string{"product_id"}},
	}
	conn.respond = countingResponder(120)

	profile, err := newTestProfiler(t).Profile(context.Background(), conn, datasource.TableRef{Name: "order_items"})
	require.NoError(t, err)

	assert.Equal(t, "order_items", profile.Name)
	require.Len(t, profile.Columns, 3)
	assert.Equal(t, []string{"order_id", "product_id", "quantity"},
		[]string{profile.Columns[0].Name, profile.Columns[1].Name, profile.Columns[2].Name})

	orderID := profile.Column("order_id")
	assert.True(t, orderID.IsPrimaryKey)
	assert.True(t, orderID.IsForeignKey)
	require.NotNil(t, orderID.FKTarget)
	assert.Equal(t, "orders(order_id)", *orderID.FKTarget)

	productID := profile.Column("product_id")
	assert.True(t, productID.IsPrimaryKey)
	assert.Equal(t, "products(product_id)", *productID.FKTarget)

	quantity := profile.Column("quantity")
	assert.False(t, quantity.IsPrimaryKey)
	assert.False(t, quantity.IsForeignKey)
	assert.Nil(t, quantity.FKTarget)
	assert.Empty(t, quantity.FKTargets)

	assert.Len(t, profile.ForeignKeys, 2)
}

func TestTableProfiler_Profile_SharedRowCount(t *testing.T) {
	conn := newFakeConn()
	conn.addTable("orders",
		datasource.ColumnInfo{Name: "order_id"},
		datasource.ColumnInfo{Name: "status"},
	)
	conn.respond = countingResponder(80)

	profile, err := newTestProfiler(t).Profile(context.Background(), conn, datasource.TableRef{Name: "orders"})
	require.NoError(t, err)

	require.NotNil(t, profile.RowCount)
	assert.Equal(t, int64(80), *profile.RowCount)
	for _, c := range profile.Columns {
		require.NotNil(t, c.RowCount)
		assert.Equal(t, int64(80), *c.RowCount)
	}

	rowCounts := 0
	for _, q := range conn.queries {
		if q.Statistic == models.StatRowCount {
			rowCounts++
		}
	}
	assert.Equal(t, 1, rowCounts, "row count is computed once per table")
}

func TestTableProfiler_Profile_RowCountFailure(t *testing.T) {
	conn := newFakeConn()
	conn.addTable("orders", datasource.ColumnInfo{Name: "status"})
	healthy := countingResponder(3)
	conn.respond = func(ctx context.Context, table string, q statQuery) (*datasource.QueryResult, error) {
		if q.Statistic == models.StatRowCount {
			return nil, errors.New("permission denied")
		}
		return healthy(ctx, table, q)
	}

	profile, err := newTestProfiler(t).Profile(context.Background(), conn, datasource.TableRef{Name: "orders"})
	require.NoError(t, err)

	assert.Nil(t, profile.RowCount)
	require.Len(t, profile.Columns, 1)
	assert.Nil(t, profile.Columns[0].RowCount)
	assert.NotNil(t, profile.Columns[0].DistinctCount, "other statistics still ran")
}

func TestTableProfiler_Profile_ForeignKeyResolution(t *testing.T) {
	conn := newFakeConn()
	conn.addTable("shipments", datasource.ColumnInfo{Name: "order_id"})
	conn.fks["shipments"] = []models.ForeignKeyConstraint{
		{Name: "fk_a", ConstrainedColumns: []string{"order_id"}, ReferredTable: "orders", ReferredColumns: []string{"order_id"}},
		{Name: "fk_b", ConstrainedColumns: []string{"order_id"}, ReferredTable: "legacy_orders", ReferredColumns: []string{"id"}},
		{Name: "fk_c", ConstrainedColumns: []string{"order_id"}, ReferredTable: "orders", ReferredColumns: []string{"order_id"}},
		{Name: "fk_d", ConstrainedColumns: []string{"order_id"}},
	}
	conn.respond = countingResponder(1)

	profile, err := newTestProfiler(t).Profile(context.Background(), conn, datasource.TableRef{Name: "shipments"})
	require.NoError(t, err)

	col := profile.Column("order_id")
	require.NotNil(t, col.FKTarget)
	assert.Equal(t, "orders(order_id)", *col.FKTarget, "last constraint with a target wins")
	assert.Equal(t, []string{"orders(order_id)", "legacy_orders(id)"}, col.FKTargets)
	assert.True(t, col.IsForeignKey)
}

func TestResolveForeignKey_CompositeConstraint(t *testing.T) {
	fks := []models.ForeignKeyConstraint{{
		ConstrainedColumns: []string{"order_id", "product_id"},
		ReferredTable:      "order_lines",
		ReferredColumns:    []string{"order_id", "product_id"},
	}}

	target, all := resolveForeignKey("product_id", fks)
	require.NotNil(t, target)
	assert.Equal(t, "order_lines(order_id, product_id)", *target)
	assert.Equal(t, []string{"order_lines(order_id, product_id)"}, all)

	target, all = resolveForeignKey("quantity", fks)
	assert.Nil(t, target)
	assert.Nil(t, all)
}

func TestTableProfiler_Profile_NilForeignKeys(t *testing.T) {
	conn := newFakeConn()
	conn.addTable("notes", datasource.ColumnInfo{Name: "body"})
	conn.respond = countingResponder(0)

	profile, err := newTestProfiler(t).Profile(context.Background(), conn, datasource.TableRef{Name: "notes"})
	require.NoError(t, err)
	assert.NotNil(t, profile.ForeignKeys)
	assert.Empty(t, profile.ForeignKeys)
}

func TestTableProfiler_Profile_IntrospectionErrors(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(f *fakeConn)
		operation string
	}{
		{
			name:      "columns",
			setup:     func(f *fakeConn) { f.columnsErr["orders"] = errors.New("no such table") },
			operation: "get columns",
		},
		{
			name:      "primary key",
			setup:     func(f *fakeConn) { f.pkErr["orders"] = errors.New("catalog unavailable") },
			operation: "get primary key",
		},
		{
			name:      "foreign keys",
			setup:     func(f *fakeConn) { f.fkErr["orders"] = errors.New("catalog unavailable") },
			operation: "get foreign keys",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := newFakeConn()
			conn.addTable("orders", datasource.ColumnInfo{Name: "status"})
			tt.setup(conn)

			profile, err := newTestProfiler(t).Profile(context.Background(), conn, datasource.TableRef{Name: "orders"})
			require.Error(t, err)
			assert.Nil(t, profile)
			assert.True(t, errors.Is(err, apperrors.ErrIntrospection))

			var ie *apperrors.IntrospectionError
			require.True(t, errors.As(err, &ie))
			assert.Equal(t, "orders", ie.Table)
			assert.Equal(t, tt.operation, ie.Operation)
			assert.Empty(t, conn.queries, "no statistics run for a table that failed introspection")
		})
	}
}

func TestTableProfiler_Profile_SuspiciousIdentifiers(t *testing.T) {
	conn := newFakeConn()
	conn.addTable("weird", datasource.ColumnInfo{Name: "x' OR '1'='1"})
	conn.respond = countingResponder(1)

	profile, err := newTestProfiler(t).Profile(context.Background(), conn, datasource.TableRef{Name: "weird"})
	require.NoError(t, err)
	require.Len(t, profile.Columns, 1)
	assert.Equal(t, "x' OR '1'='1", profile.Columns[0].Name)
}
