// Package domain defines the core entities of the docspace indexing pipeline.
//
// This package is the innermost layer of the hexagon. It has NO external
// dependencies and defines the fundamental types:
//
//   - RawDocument: A document handed to the pipeline after text extraction
//   - Record: A document as stored in, or returned by, the search index
//   - SchemaDescriptor: The API version and addressing style that answered
//   - QueryHit: A normalised similarity or relevance hit
//   - MakeSafeKey: The mapping from original identifiers to index keys
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
