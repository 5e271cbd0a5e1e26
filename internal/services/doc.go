// Package services defines shared utilities consumed by the pipeline stages and
// the external service clients.
//
// Key responsibilities:
//   - Context helpers that stamp product IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures can be
//     classified (timeout, external, validation) after they cross package
//     boundaries.
package services
