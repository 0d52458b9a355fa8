package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-profiler/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-profiler/pkg/config"
	"github.com/ekaya-inc/ekaya-profiler/pkg/logging"
	"github.com/ekaya-inc/ekaya-profiler/pkg/masking"
	"github.com/ekaya-inc/ekaya-profiler/pkg/metrics"
	"github.com/ekaya-inc/ekaya-profiler/pkg/models"
	"github.com/ekaya-inc/ekaya-profiler/pkg/sql"
)

// ColumnStatsCollector runs the statistic battery for a single column.
// Every statistic is isolated: a failing query leaves its field absent,
// records a StatFailure on the profile and the battery continues.
type ColumnStatsCollector interface {
	// Collect profiles one column. The returned profile carries the column's
	// declared metadata and statistics; key flags and row count are the
	// caller's to fill in.
	Collect(ctx context.Context, exec datasource.QueryExecutor, table datasource.TableRef, column datasource.ColumnInfo) models.ColumnProfile

	// RowCount counts the table's rows. A nil count comes with the failure.
	RowCount(ctx context.Context, exec datasource.QueryExecutor, table datasource.TableRef) (*int64, *models.StatFailure)
}

type columnStatsCollector struct {
	sampling     config.SamplingConfig
	queryTimeout time.Duration
	masker       *masking.Masker
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

var _ ColumnStatsCollector = (*columnStatsCollector)(nil)

// NewColumnStatsCollector creates a collector. The masker is applied to every
// value that leaves the collector; metrics may be nil.
func NewColumnStatsCollector(
	sampling config.SamplingConfig,
	queryTimeout time.Duration,
	masker *masking.Masker,
	m *metrics.Metrics,
	logger *zap.Logger,
) ColumnStatsCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &columnStatsCollector{
		sampling:     sampling,
		queryTimeout: queryTimeout,
		masker:       masker,
		metrics:      m,
		logger:       logger.Named("column-stats"),
	}
}

func (c *columnStatsCollector) RowCount(ctx context.Context, exec datasource.QueryExecutor, table datasource.TableRef) (*int64, *models.StatFailure) {
	b := sql.NewStatementBuilder(exec.Dialect(), table)
	res, failure := c.run(ctx, exec, table, "", models.StatRowCount, b.RowCount())
	if failure != nil {
		return nil, failure
	}
	n, failure := countOf(models.StatRowCount, res)
	if failure != nil {
		return nil, failure
	}
	return &n, nil
}

func (c *columnStatsCollector) Collect(
	ctx context.Context,
	exec datasource.QueryExecutor,
	table datasource.TableRef,
	column datasource.ColumnInfo,
) models.ColumnProfile {
	b := sql.NewStatementBuilder(exec.Dialect(), table)
	col := column.Name

	profile := models.ColumnProfile{
		Name:         col,
		DeclaredType: column.DataType,
		Nullable:     column.Nullable,
		Default:      column.Default,
		Samples:      []*string{},
		TopValues:    []models.TopValue{},
	}
	fail := func(f *models.StatFailure) {
		profile.StatFailures = append(profile.StatFailures, *f)
	}

	// Samples
	if res, f := c.run(ctx, exec, table, col, models.StatSamples, b.Samples(col, c.sampling.MaxRowsPerTable)); f != nil {
		fail(f)
	} else {
		values := make([]models.Value, 0, len(res.Rows))
		for _, row := range res.Rows {
			if len(row) > 0 {
				values = append(values, models.ValueOf(row[0]))
			}
		}
		profile.Samples = c.masker.MaskAll(col, values)
	}

	// Null count falls back to zero; it only feeds display.
	if res, f := c.run(ctx, exec, table, col, models.StatNullCount, b.NullCount(col)); f != nil {
		fail(f)
	} else if n, f := countOf(models.StatNullCount, res); f != nil {
		fail(f)
	} else {
		profile.NullCount = n
	}

	// Distinct count stays unknown on failure; it gates top-k.
	if res, f := c.run(ctx, exec, table, col, models.StatDistinctCount, b.DistinctCount(col)); f != nil {
		fail(f)
	} else if n, f := countOf(models.StatDistinctCount, res); f != nil {
		fail(f)
	} else {
		profile.DistinctCount = &n
	}

	if profile.DistinctCount != nil && *profile.DistinctCount <= int64(c.sampling.MaxDistinctForTopKValue()) {
		if res, f := c.run(ctx, exec, table, col, models.StatTopValues, b.TopValues(col, c.sampling.TopKValue())); f != nil {
			fail(f)
		} else if top, f := c.topValues(col, res); f != nil {
			fail(f)
		} else {
			profile.TopValues = top
		}
	}

	if res, f := c.run(ctx, exec, table, col, models.StatMinValue, b.Min(col)); f != nil {
		fail(f)
	} else {
		profile.MinValue = c.masker.Mask(col, firstValue(res))
	}
	if res, f := c.run(ctx, exec, table, col, models.StatMaxValue, b.Max(col)); f != nil {
		fail(f)
	} else {
		profile.MaxValue = c.masker.Mask(col, firstValue(res))
	}

	if c.sampling.InferTextLengths {
		if res, f := c.run(ctx, exec, table, col, models.StatAvgLength, b.AvgLength(col)); f != nil {
			fail(f)
		} else if v := firstValue(res); !v.IsNull() {
			if avg, ok := v.Float64(); ok {
				profile.AvgLength = &avg
			} else {
				fail(unexpectedResult(models.StatAvgLength, v))
			}
		}
	}

	if len(profile.StatFailures) > 0 {
		c.logger.Debug("Column profiled with failures",
			zap.String("table", table.String()),
			zap.String("column", col),
			zap.Int("failures", len(profile.StatFailures)))
	}
	return profile
}

// run executes one statistic query under the per-query timeout and converts
// an error into a StatFailure.
func (c *columnStatsCollector) run(
	ctx context.Context,
	exec datasource.QueryExecutor,
	table datasource.TableRef,
	column string,
	statistic string,
	stmt sql.Statement,
) (*datasource.QueryResult, *models.StatFailure) {
	queryCtx := ctx
	if c.queryTimeout > 0 {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(ctx, c.queryTimeout)
		defer cancel()
	}

	start := time.Now()
	res, err := exec.Query(queryCtx, stmt.SQL, stmt.Args...)
	elapsed := time.Since(start)

	if err != nil {
		kind := datasource.FailureKind(err)
		c.metrics.ObserveStatistic(statistic, elapsed, kind)
		c.logger.Debug("Statistic failed",
			zap.String("table", table.String()),
			zap.String("column", column),
			zap.String("statistic", statistic),
			zap.String("kind", string(kind)),
			zap.String("query", logging.SanitizeQuery(stmt.SQL)),
			zap.String("error", logging.SanitizeError(err)))
		return nil, &models.StatFailure{
			Statistic: statistic,
			Kind:      kind,
			Message:   logging.SanitizeError(err),
		}
	}

	c.metrics.ObserveStatistic(statistic, elapsed, "")
	return res, nil
}

func (c *columnStatsCollector) topValues(column string, res *datasource.QueryResult) ([]models.TopValue, *models.StatFailure) {
	top := make([]models.TopValue, 0, len(res.Rows))
	for _, row := range res.Rows {
		if len(row) < 2 {
			return nil, &models.StatFailure{
				Statistic: models.StatTopValues,
				Kind:      models.FailureQuery,
				Message:   fmt.Sprintf("expected 2 result columns, got %d", len(row)),
			}
		}
		count := models.ValueOf(row[1])
		n, ok := count.Int64()
		if !ok {
			return nil, unexpectedResult(models.StatTopValues, count)
		}
		top = append(top, models.TopValue{
			Value: c.masker.Mask(column, models.ValueOf(row[0])),
			Count: n,
		})
	}
	return top, nil
}

// firstValue returns the first column of the first row, or Null.
func firstValue(res *datasource.QueryResult) models.Value {
	if res == nil || len(res.Rows) == 0 || len(res.Rows[0]) == 0 {
		return models.Null
	}
	return models.ValueOf(res.Rows[0][0])
}

func countOf(statistic string, res *datasource.QueryResult) (int64, *models.StatFailure) {
	v := firstValue(res)
	if v.IsNull() {
		return 0, nil
	}
	n, ok := v.Int64()
	if !ok {
		return 0, unexpectedResult(statistic, v)
	}
	return n, nil
}

func unexpectedResult(statistic string, v models.Value) *models.StatFailure {
	return &models.StatFailure{
		Statistic: statistic,
		Kind:      models.FailureQuery,
		Message:   fmt.Sprintf("unexpected %s result %q", v.Kind, logging.TruncateString(v.String(), 50)),
	}
}
