package health

import "context"

// Source lists the current health of all monitored providers.
//
// A Source may fail at any time (network errors, bad payloads); callers
// treat a failed fetch as "skip this cycle", never as fatal.
type Source interface {
	Fetch(ctx context.Context) ([]ProviderHealth, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) ([]ProviderHealth, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context) ([]ProviderHealth, error) {
	return f(ctx)
}
