// Package services implements the indexing and retrieval pipeline behind
// the driving ports.
//
// SchemaNegotiator resolves the API version and addressing style of the
// index once per process. UpsertPipeline and QueryEngine build requests on
// that descriptor, EmbeddingGateway guards vector shape, and
// RetrievalOrchestrator and FallbackSearcher turn ranked hits into grounding
// documents. Ingester batches bulk writes and keeps the key ledger current.
package services
