// Package domain contains the core business types for InfoBot.
// It has no dependencies on adapters or external services.
package domain
