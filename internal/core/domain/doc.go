// Package domain defines the core entities for the ragline pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A normalised record pulled from a source by an extractor
//   - Chunk: A bounded, independently embeddable span of text
//   - AlignedRecord: A chunk plus its generated vector, keyed by chunk identity
//   - IngestOutcome: Per-call result of writing aligned records to the store
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
