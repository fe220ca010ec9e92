// Package domain defines the core business entities for OmniMind.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: The canonical record held by the document store
//   - IndexEntry: The vector projection of a document
//   - DocumentSummary: The cached projection of a document
//   - Annotation: Tags and summary derived from content
//   - Error: Typed failures shared by every port and service
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
