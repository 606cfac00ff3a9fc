package driving

import (
	"context"

	"github.com/docspace-ai/docspace/internal/core/domain"
)

// SchemaService discovers, and when permitted creates, the live index schema.
type SchemaService interface {
	// EnsureReady resolves the API version and addressing style, creating
	// the index when it is missing and createIfMissing is true.
	EnsureReady(ctx context.Context, createIfMissing bool) (domain.ReadyState, error)

	// SchemaFields returns the field names the live index declares.
	SchemaFields(ctx context.Context) (domain.FieldSet, error)

	// Descriptor returns the resolved version and addressing style.
	Descriptor(ctx context.Context) (domain.SchemaDescriptor, error)
}
