package config

import "time"

// Worker intervals and timeouts
const (
	// StatusWorkerInterval defines how often the status worker reports the plan state
	StatusWorkerInterval = 15 * time.Second

	// PublishTimeout bounds a single Redis PUBLISH
	PublishTimeout = 2 * time.Second

	// ShutdownTimeout bounds graceful HTTP shutdown
	ShutdownTimeout = 10 * time.Second
)
