package instance

import "github.com/reyes-labs/storefront-backend/pkg/env"

// ID returns the worker instance identifier or a default value.
func ID() string {
	return env.Get("STOREFRONT_WORKER_ID", "worker-0")
}
