package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-profiler/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-profiler/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-profiler/pkg/models"
	"github.com/ekaya-inc/ekaya-profiler/pkg/sql"
)

// TableProfiler profiles one table: schema metadata, row count and every
// column in introspection order.
type TableProfiler interface {
	// Profile returns the table's profile. Introspection failures are
	// returned as *apperrors.IntrospectionError; statistic failures never are.
	Profile(ctx context.Context, conn datasource.Connection, table datasource.TableRef) (*models.TableProfile, error)
}

type tableProfiler struct {
	collector ColumnStatsCollector
	logger    *zap.Logger
}

var _ TableProfiler = (*tableProfiler)(nil)

// NewTableProfiler creates a profiler driving collector over each column.
func NewTableProfiler(collector ColumnStatsCollector, logger *zap.Logger) TableProfiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &tableProfiler{
		collector: collector,
		logger:    logger.Named("table-profiler"),
	}
}

func (p *tableProfiler) Profile(ctx context.Context, conn datasource.Connection, table datasource.TableRef) (*models.TableProfile, error) {
	columns, err := conn.GetColumns(ctx, table)
	if err != nil {
		return nil, apperrors.NewIntrospectionError(table.String(), "get columns", err)
	}
	pk, err := conn.GetPrimaryKey(ctx, table)
	if err != nil {
		return nil, apperrors.NewIntrospectionError(table.String(), "get primary key", err)
	}
	fks, err := conn.GetForeignKeys(ctx, table)
	if err != nil {
		return nil, apperrors.NewIntrospectionError(table.String(), "get foreign keys", err)
	}
	if fks == nil {
		fks = []models.ForeignKeyConstraint{}
	}

	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	for _, r := range sql.CheckIdentifiers(table.Name, names) {
		p.logger.Warn("Identifier looks like SQL injection; it is quoted in every statement",
			zap.String("table", table.String()),
			zap.String("kind", r.Kind),
			zap.String("identifier", r.Identifier),
			zap.String("fingerprint", r.Fingerprint))
	}

	// One row count for the table; every column shares it.
	rowCount, failure := p.collector.RowCount(ctx, conn, table)
	if failure != nil {
		p.logger.Info("Row count unavailable",
			zap.String("table", table.String()),
			zap.String("kind", string(failure.Kind)),
			zap.String("error", failure.Message))
	}

	pkSet := make(map[string]struct{}, len(pk))
	for _, name := range pk {
		pkSet[name] = struct{}{}
	}

	profile := &models.TableProfile{
		Schema:      table.Schema,
		Name:        table.Name,
		RowCount:    rowCount,
		Columns:     make([]models.ColumnProfile, 0, len(columns)),
		ForeignKeys: fks,
	}

	failures := 0
	for _, column := range columns {
		cp := p.collector.Collect(ctx, conn, table, column)
		cp.RowCount = rowCount

		_, cp.IsPrimaryKey = pkSet[column.Name]
		cp.FKTarget, cp.FKTargets = resolveForeignKey(column.Name, fks)
		cp.IsForeignKey = cp.FKTarget != nil

		failures += len(cp.StatFailures)
		profile.Columns = append(profile.Columns, cp)
	}

	p.logger.Info("Table profiled",
		zap.String("table", table.String()),
		zap.Int("columns", len(profile.Columns)),
		zap.Int("statistic_failures", failures))

	return profile, nil
}

// resolveForeignKey scans every constraint that constrains column. The last
// match is the column's target; all distinct matches are returned in order.
func resolveForeignKey(column string, fks []models.ForeignKeyConstraint) (*string, []string) {
	var last *string
	var targets []string
	seen := make(map[string]struct{})

	for _, fk := range fks {
		if !fk.Constrains(column) {
			continue
		}
		target := fk.Target()
		if target == "" {
			continue
		}
		t := target
		last = &t
		if _, ok := seen[target]; !ok {
			seen[target] = struct{}{}
			targets = append(targets, target)
		}
	}
	return last, targets
}
