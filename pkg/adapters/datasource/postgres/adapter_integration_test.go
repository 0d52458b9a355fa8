//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-profiler/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-profiler/pkg/models"
	"github.com/ekaya-inc/ekaya-profiler/pkg/testhelpers"
)

func setupAdapter(t *testing.T) *Adapter {
	t.Helper()

	testDB := testhelpers.GetTestDB(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	adapter, err := NewAdapter(ctx, &Config{URL: testDB.ConnStr, MaxConns: 2}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { adapter.Close() })
	return adapter
}

func TestAdapter_Introspection(t *testing.T) {
	a := setupAdapter(t)
	ctx := context.Background()

	tables, err := a.ListTables(ctx)
	require.NoError(t, err)

	var names []string
	for _, tbl := range tables {
		assert.Equal(t, "public", tbl.Schema)
		names = append(names, tbl.Name)
	}
	assert.Equal(t, []string{"customers", "order_items", "orders", "products"}, names)

	cols, err := a.GetColumns(ctx, datasource.TableRef{Name: "customers"})
	require.NoError(t, err)
	require.NotEmpty(t, cols)
	assert.Equal(t, "customer_id", cols[0].Name)
	assert.Equal(t, "integer", cols[0].DataType)
	assert.False(t, cols[0].Nullable)
	require.NotNil(t, cols[0].Default)
	assert.Contains(t, *cols[0].Default, "nextval")

	pk, err := a.GetPrimaryKey(ctx, datasource.TableRef{Name: "order_items"})
	require.NoError(t, err)
	assert.Equal(t, []string{"order_id", "product_id"}, pk)

	fks, err := a.GetForeignKeys(ctx, datasource.TableRef{Name: "order_items"})
	require.NoError(t, err)
	var targets []string
	for _, fk := range fks {
		targets = append(targets, fk.Target())
	}
	assert.ElementsMatch(t, []string{"orders(order_id)", "products(product_id)"}, targets)
}

func TestAdapter_QueryClassification(t *testing.T) {
	a := setupAdapter(t)
	ctx := context.Background()

	res, err := a.Query(ctx, `SELECT COUNT(*) FROM "customers"`)
	require.NoError(t, err)
	n, ok := models.ValueOf(res.Rows[0][0]).Int64()
	require.True(t, ok)
	assert.Positive(t, n)

	// No MIN aggregate exists for json.
	_, err = a.Query(ctx, `SELECT MIN('{}'::json)`)
	require.Error(t, err)
	assert.Equal(t, models.FailureUnsupported, datasource.FailureKind(err))

	tctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = a.Query(tctx, `SELECT pg_sleep(2)`)
	require.Error(t, err)
	assert.Equal(t, models.FailureTimeout, datasource.FailureKind(err))

	_, err = a.Pool().Exec(ctx, `CREATE TABLE should_fail (id int)`)
	assert.Error(t, err, "sessions are read-only")
}
