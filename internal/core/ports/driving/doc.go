// Package driving defines the inbound ports of the core: the operations
// the surrounding application may invoke.
package driving
