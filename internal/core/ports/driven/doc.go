// Package driven defines the outbound ports of the core: capability
// contracts the core consumes, implemented by adapters.
package driven
