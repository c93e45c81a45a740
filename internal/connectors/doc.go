// Package connectors provides the registry mapping connector type
// names to builders, and hosts the concrete connector implementations
// in its subpackages:
//
//   - relational: database/sql over SQLite or PostgreSQL
//   - elastic:    Elasticsearch search/vector backend
//   - gmail:      Gmail mailbox via the Google API client
//   - bolt:       embedded bbolt search/vector backend
package connectors
