package auditlog

import "context"

// Metadata describes the run being audited. Fields set by inner callers
// override those set further out.
type Metadata struct {
	Environment string
	Tool        string
	Target      string
	LogFile     string
}

type metadataKey struct{}

// WithMetadata attaches audit metadata to a context.
func WithMetadata(ctx context.Context, meta Metadata) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	existing, _ := ctx.Value(metadataKey{}).(Metadata)
	merged := Metadata{
		Environment: pick(meta.Environment, existing.Environment),
		Tool:        pick(meta.Tool, existing.Tool),
		Target:      pick(meta.Target, existing.Target),
		LogFile:     pick(meta.LogFile, existing.LogFile),
	}
	return context.WithValue(ctx, metadataKey{}, merged)
}

// MetadataFromContext returns audit metadata stored in the context.
func MetadataFromContext(ctx context.Context) Metadata {
	if ctx == nil {
		return Metadata{}
	}
	meta, _ := ctx.Value(metadataKey{}).(Metadata)
	return meta
}

func pick(next, fallback string) string {
	if next != "" {
		return next
	}
	return fallback
}
