// Package services orchestrates the pipeline stages. Each service
// drives one stage (extraction, transformation, loading, retrieval)
// through the driven ports, with the ConnectorManager sharing
// connector handles across stages.
package services
