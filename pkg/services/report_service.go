package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-profiler/pkg/llm"
	"github.com/ekaya-inc/ekaya-profiler/pkg/models"
	"github.com/ekaya-inc/ekaya-profiler/pkg/prompts"
	"github.com/ekaya-inc/ekaya-profiler/pkg/retry"
)

// Artifact file names inside the output directory.
const (
	MetadataFileName = "metadata.json"
	ReportFileName   = "report.md"
)

// ReportConfig controls where artifacts go and how the brief is generated.
type ReportConfig struct {
	OutputDir       string
	Temperature     float64
	MaxTokens       int
	SamplesIncluded bool // false strips samples from metadata.json and the prompt
}

// ReportArtifacts are the files written by a run.
type ReportArtifacts struct {
	MetadataPath string
	ReportPath   string // empty when no report was generated
	Report       string
}

// ReportService persists the metadata document and turns it into an
// engineering brief.
type ReportService interface {
	// WriteMetadata writes metadata.json only.
	WriteMetadata(doc *models.MetadataDocument) (*ReportArtifacts, error)

	// Generate writes metadata.json, asks the LLM for the brief and writes report.md.
	Generate(ctx context.Context, doc *models.MetadataDocument) (*ReportArtifacts, error)
}

type reportService struct {
	generator llm.TextGenerator
	cfg       ReportConfig
	retryCfg  *retry.Config
	logger    *zap.Logger
}

var _ ReportService = (*reportService)(nil)

// NewReportService creates a report service. generator may be nil when only
// WriteMetadata is used; retryCfg nil means retry.DefaultConfig.
func NewReportService(generator llm.TextGenerator, cfg ReportConfig, retryCfg *retry.Config, logger *zap.Logger) ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retryCfg == nil {
		retryCfg = retry.DefaultConfig()
	}
	return &reportService{
		generator: generator,
		cfg:       cfg,
		retryCfg:  retryCfg,
		logger:    logger.Named("report-service"),
	}
}

func (s *reportService) WriteMetadata(doc *models.MetadataDocument) (*ReportArtifacts, error) {
	if _, err := s.writeMetadata(doc); err != nil {
		return nil, err
	}
	return &ReportArtifacts{MetadataPath: s.path(MetadataFileName)}, nil
}

func (s *reportService) Generate(ctx context.Context, doc *models.MetadataDocument) (*ReportArtifacts, error) {
	if s.generator == nil {
		return nil, fmt.Errorf("generate report: no text generator configured")
	}

	metadataJSON, err := s.writeMetadata(doc)
	if err != nil {
		return nil, err
	}

	req := llm.GenerateRequest{
		SystemMessage: prompts.EngineeringBriefSystemPrompt,
		Prompt:        prompts.BuildEngineeringBriefPrompt(metadataJSON, s.cfg.SamplesIncluded),
		Temperature:   s.cfg.Temperature,
		MaxTokens:     s.cfg.MaxTokens,
	}

	retryCfg := *s.retryCfg
	retryCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		s.logger.Warn("Report generation failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
	}

	s.logger.Info("Generating report",
		zap.String("model", s.generator.GetModel()),
		zap.Int("prompt_len", len(req.Prompt)))

	result, err := retry.DoIfRetryableWithResult(ctx, &retryCfg, func() (*llm.GenerateResponseResult, error) {
		return s.generator.GenerateResponse(ctx, req)
	})
	if err != nil {
		return nil, fmt.Errorf("generate report: %w", err)
	}

	report := strings.TrimSpace(result.Content) + "\n"
	reportPath := s.path(ReportFileName)
	if err := os.WriteFile(reportPath, []byte(report), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", reportPath, err)
	}

	s.logger.Info("Report written",
		zap.String("report", reportPath),
		zap.Int("total_tokens", result.TotalTokens))

	return &ReportArtifacts{
		MetadataPath: s.path(MetadataFileName),
		ReportPath:   reportPath,
		Report:       report,
	}, nil
}

// writeMetadata creates the output directory and writes the document with a
// two-space indent. It returns the bytes written. Samples are dropped unless
// SamplesIncluded, so the file always matches what the LLM is sent.
func (s *reportService) writeMetadata(doc *models.MetadataDocument) ([]byte, error) {
	if !s.cfg.SamplesIncluded {
		doc = doc.WithoutSamples()
	}

	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	data = append(data, '\n')

	path := s.path(MetadataFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}

	s.logger.Info("Metadata written",
		zap.String("path", path),
		zap.Int("tables", len(doc.Tables)))
	return data, nil
}

func (s *reportService) path(name string) string {
	return filepath.Join(s.cfg.OutputDir, name)
}

// RenderReport renders markdown for a terminal. Width is capped at 120
// columns; color=false selects the plain style.
func RenderReport(markdown string, width int, color bool) (string, error) {
	style := "dark"
	if !color {
		style = "notty"
	}
	if width <= 0 || width > 120 {
		width = 120
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
