// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// SearchService retrieves and reranks chunks, IndexingService publishes new
// index versions, QueryService composes answers and VersionService handles
// rollbacks and pruning.
package services
