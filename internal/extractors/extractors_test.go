package extractors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calderalabs/ragline/internal/core/domain"
	"github.com/calderalabs/ragline/internal/core/ports/driven"
)

// drain runs an extraction to completion and returns the documents
// and the final report. Fails the test on a non-completion error.
func drain(t *testing.T, extractor driven.Extractor) ([]domain.Document, domain.ExtractionReport) {
	t.Helper()

	docs, errs := extractor.Extract(context.Background())

	var collected []domain.Document
	for doc := range docs {
		collected = append(collected, doc)
	}

	var report domain.ExtractionReport
	for err := range errs {
		complete, ok := driven.IsExtractComplete(err)
		require.True(t, ok, "unexpected extraction error: %v", err)
		report = complete.Report
	}
	return collected, report
}

// drainError runs an extraction expecting a fatal error.
func drainError(t *testing.T, extractor driven.Extractor) error {
	t.Helper()

	docs, errs := extractor.Extract(context.Background())

	for range docs {
	}
	var fatal error
	for err := range errs {
		if _, ok := driven.IsExtractComplete(err); ok {
			t.Fatal("expected a fatal error, got completion")
		}
		fatal = err
	}
	require.Error(t, fatal)
	return fatal
}

// fakeConnector provides the base Connector behaviour for the mocks.
type fakeConnector struct {
	name      string
	kind      string
	connected bool
}

func (f *fakeConnector) Name() string                     { return f.name }
func (f *fakeConnector) Type() string                     { return f.kind }
func (f *fakeConnector) Connect(_ context.Context) error  { f.connected = true; return nil }
func (f *fakeConnector) Disconnect() error                { f.connected = false; return nil }
func (f *fakeConnector) IsConnected() bool                { return f.connected }

// fakeMarks is an in-memory watermark store.
type fakeMarks struct {
	marks map[string]string
}

func newFakeMarks() *fakeMarks {
	return &fakeMarks{marks: make(map[string]string)}
}

func (f *fakeMarks) Watermark(source, partition string) (string, bool, error) {
	v, ok := f.marks[source+"/"+partition]
	return v, ok, nil
}

func (f *fakeMarks) SetWatermark(source, partition, value string) error {
	f.marks[source+"/"+partition] = value
	return nil
}
