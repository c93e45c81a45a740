package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/calderalabs/ragline/internal/config"
	"github.com/calderalabs/ragline/internal/core/domain"
	"github.com/calderalabs/ragline/internal/core/ports/driven"
	"github.com/calderalabs/ragline/internal/logger"
	"github.com/calderalabs/ragline/internal/transformers"
)

// TransformReport summarises one transformation run.
type TransformReport struct {
	// Transformer is the configured transformer name.
	Transformer string

	// Source is the extraction output that was read.
	Source string

	// Chunks is the number of chunks produced.
	Chunks int

	// Failures lists records that could not be transformed.
	Failures []string
}

// TransformationService runs configured transformers and persists
// their chunks through the stage store.
type TransformationService struct {
	cfg   *config.Pipeline
	stage driven.StageStore
}

// NewTransformationService creates the transformation runner.
func NewTransformationService(cfg *config.Pipeline, stage driven.StageStore) *TransformationService {
	return &TransformationService{cfg: cfg, stage: stage}
}

// Transformers lists the configured transformer names, sorted.
func (s *TransformationService) Transformers() []string {
	names := make([]string, 0, len(s.cfg.Transformers))
	for name := range s.cfg.Transformers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes one transformer and writes its chunks to the stage
// store, keyed by the transformer's source. Record-level failures are
// collected on the report; anything else aborts the run.
func (s *TransformationService) Run(ctx context.Context, name string) (TransformReport, error) {
	transformerCfg, ok := s.cfg.Transformers[name]
	if !ok {
		return TransformReport{}, fmt.Errorf("%w: transformer %q is not configured", domain.ErrMissingConfig, name)
	}

	transformer, err := transformers.New(name, transformerCfg, s.stage)
	if err != nil {
		return TransformReport{}, err
	}

	chunks, errs := transformer.Transform(ctx)

	report := TransformReport{Transformer: name, Source: transformerCfg.Source}
	var collected []domain.Chunk

	for chunks != nil || errs != nil {
		select {
		case ch, ok := <-chunks:
			if !ok {
				chunks = nil
				continue
			}
			collected = append(collected, ch)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if errors.Is(err, domain.ErrRecordFailed) {
				logger.Warn("transform %s: %v", name, err)
				report.Failures = append(report.Failures, err.Error())
				continue
			}
			return TransformReport{}, fmt.Errorf("transform %s: %w", name, err)
		}
	}
	report.Chunks = len(collected)

	if err := s.stage.WriteChunks(transformerCfg.Source, collected); err != nil {
		return TransformReport{}, fmt.Errorf("persist %s: %w", transformerCfg.Source, err)
	}

	logger.Info("transformation %s: %d chunks from %s", name, report.Chunks, transformerCfg.Source)
	return report, nil
}

// RunAll executes every configured transformer in name order.
func (s *TransformationService) RunAll(ctx context.Context) ([]TransformReport, error) {
	var reports []TransformReport
	for _, name := range s.Transformers() {
		report, err := s.Run(ctx, name)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}
