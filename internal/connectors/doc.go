// Package connectors provides shared infrastructure for the content
// source connectors:
//
//   - RateLimiter with token bucket limiting and 429 backoff
//   - Per-service default rate limits
//
// The connectors themselves live in subpackages (drive, confluence),
// each implementing the driven.ContentSource port.
package connectors
