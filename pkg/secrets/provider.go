package secrets

import "context"

// Provider defines a secrets backend that can produce the full set of
// secrets for a project/environment pair.
type Provider interface {
	// GetSecrets retrieves every secret visible to project/environment,
	// already filtered of backend-internal entries.
	GetSecrets(ctx context.Context, project, environment string) (SecretSet, error)
}
