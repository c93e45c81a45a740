package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/calderalabs/ragline/internal/config"
	"github.com/calderalabs/ragline/internal/core/domain"
	"github.com/calderalabs/ragline/internal/core/ports/driven"
	"github.com/calderalabs/ragline/internal/extractors"
	"github.com/calderalabs/ragline/internal/logger"
)

// ExtractionService runs configured extractors and persists their
// output through the stage store.
type ExtractionService struct {
	cfg     *config.Pipeline
	manager *ConnectorManager
	stage   driven.StageStore
	marks   driven.WatermarkStore
}

// NewExtractionService creates the extraction runner.
func NewExtractionService(cfg *config.Pipeline, manager *ConnectorManager, stage driven.StageStore, marks driven.WatermarkStore) *ExtractionService {
	return &ExtractionService{cfg: cfg, manager: manager, stage: stage, marks: marks}
}

// Sources lists the configured extraction sources, sorted.
func (s *ExtractionService) Sources() []string {
	names := make([]string, 0, len(s.cfg.Extractors))
	for name := range s.cfg.Extractors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run extracts one source and writes its documents to the stage
// store. The report records how many documents were produced and
// which partitions were skipped.
func (s *ExtractionService) Run(ctx context.Context, source string) (domain.ExtractionReport, error) {
	extractorCfg, ok := s.cfg.Extractors[source]
	if !ok {
		return domain.ExtractionReport{}, fmt.Errorf("%w: extractor %q is not configured", domain.ErrMissingConfig, source)
	}

	connectorName := extractorCfg.Connector
	if connectorName == "" {
		connectorName = source
	}
	conn, err := s.manager.Connect(ctx, connectorName)
	if err != nil {
		return domain.ExtractionReport{}, err
	}

	extractor, err := extractors.New(source, extractorCfg, conn, s.stage, s.marks)
	if err != nil {
		return domain.ExtractionReport{}, err
	}

	docs, errs := extractor.Extract(ctx)

	var collected []domain.Document
	for doc := range docs {
		collected = append(collected, doc)
	}

	var report domain.ExtractionReport
	for err := range errs {
		if complete, ok := driven.IsExtractComplete(err); ok {
			report = complete.Report
			continue
		}
		return domain.ExtractionReport{}, fmt.Errorf("extract %s: %w", source, err)
	}

	if err := s.stage.WriteDocuments(source, collected); err != nil {
		return domain.ExtractionReport{}, fmt.Errorf("persist %s: %w", source, err)
	}

	if report.Partial() {
		logger.Warn("extraction %s: %d documents, %d partitions skipped", source, report.Documents, len(report.Skipped))
	} else {
		logger.Info("extraction %s: %d documents", source, report.Documents)
	}
	return report, nil
}

// RunAll extracts every configured source in name order. A source
// that fails outright stops the run; partition-level failures are
// carried in the reports.
func (s *ExtractionService) RunAll(ctx context.Context) ([]domain.ExtractionReport, error) {
	var reports []domain.ExtractionReport
	for _, source := range s.Sources() {
		report, err := s.Run(ctx, source)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}
