package services

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ekaya-inc/ekaya-profiler/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-profiler/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-profiler/pkg/config"
	"github.com/ekaya-inc/ekaya-profiler/pkg/metrics"
	"github.com/ekaya-inc/ekaya-profiler/pkg/models"
)

// CatalogWalker enumerates user tables and profiles each one into a
// metadata document.
type CatalogWalker interface {
	Run(ctx context.Context, conn datasource.Connection) (*models.MetadataDocument, error)
}

type catalogWalker struct {
	profiler TableProfiler
	cfg      config.ProfilingConfig
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

var _ CatalogWalker = (*catalogWalker)(nil)

// NewCatalogWalker creates a walker. With cfg.IsolateTableFailures unset the
// first introspection failure aborts the run.
func NewCatalogWalker(profiler TableProfiler, cfg config.ProfilingConfig, m *metrics.Metrics, logger *zap.Logger) CatalogWalker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &catalogWalker{
		profiler: profiler,
		cfg:      cfg,
		metrics:  m,
		logger:   logger.Named("catalog-walker"),
	}
}

func (w *catalogWalker) Run(ctx context.Context, conn datasource.Connection) (*models.MetadataDocument, error) {
	// The run id correlates log lines only; it stays out of the document.
	logger := w.logger.With(zap.String("run_id", uuid.NewString()))

	all, err := conn.ListTables(ctx)
	if err != nil {
		return nil, apperrors.NewIntrospectionError("", "list tables", err)
	}

	tables := make([]datasource.TableRef, 0, len(all))
	for _, t := range all {
		if conn.IsSystemTable(t.Name) {
			continue
		}
		if w.excluded(t) {
			logger.Debug("Table excluded by configuration", zap.String("table", t.String()))
			continue
		}
		tables = append(tables, t)
	}
	if len(tables) == 0 {
		logger.Warn("No user tables found")
	}

	logger.Info("Profiling tables",
		zap.String("dialect", conn.Dialect().Name()),
		zap.Int("tables", len(tables)),
		zap.Int("parallelism", w.parallelism()))

	profiles := make([]*models.TableProfile, len(tables))
	tableErrs := make([]error, len(tables))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.parallelism())
	for i, table := range tables {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			profile, err := w.profiler.Profile(gctx, conn, table)
			if err != nil {
				w.metrics.TableFailed()
				logger.Error("Table introspection failed",
					zap.String("table", table.String()),
					zap.Error(err))
				if w.cfg.IsolateTableFailures && errors.Is(err, apperrors.ErrIntrospection) {
					tableErrs[i] = err
					return nil
				}
				return err
			}
			w.metrics.TableProfiled()
			profiles[i] = profile
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := models.NewMetadataDocument(w.databaseInfo(conn, tables), make([]models.TableProfile, 0, len(tables)))
	for i, table := range tables {
		if tableErrs[i] != nil {
			doc.Errors = append(doc.Errors, models.TableError{
				Schema: table.Schema,
				Table:  table.Name,
				Error:  tableErrs[i].Error(),
			})
			continue
		}
		doc.Tables = append(doc.Tables, *profiles[i])
	}

	logger.Info("Profiling complete",
		zap.Int("tables_profiled", len(doc.Tables)),
		zap.Int("tables_failed", len(doc.Errors)))
	return doc, nil
}

func (w *catalogWalker) parallelism() int {
	if w.cfg.Parallelism < 1 {
		return 1
	}
	return w.cfg.Parallelism
}

// excluded matches the table name, and schema.name when there is a schema,
// against the configured glob patterns, ignoring case.
func (w *catalogWalker) excluded(t datasource.TableRef) bool {
	candidates := []string{strings.ToLower(t.Name)}
	if t.Schema != "" {
		candidates = append(candidates, strings.ToLower(t.String()))
	}
	for _, pattern := range w.cfg.ExcludeTables {
		pattern = strings.ToLower(pattern)
		for _, c := range candidates {
			if ok, err := path.Match(pattern, c); err == nil && ok {
				return true
			}
		}
	}
	return false
}

func (w *catalogWalker) databaseInfo(conn datasource.Connection, tables []datasource.TableRef) models.DatabaseInfo {
	info := models.DatabaseInfo{Dialect: conn.Dialect().Name()}
	if len(tables) > 0 {
		info.Schema = tables[0].Schema
	}
	return info
}
