// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): connectors to external systems, the
// stage store holding intermediate files, the embedding service and
// the ingestors writing to the vector store.
package driven
