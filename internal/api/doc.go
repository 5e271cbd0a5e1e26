// Package api serves the read-only status API: tracked product state, the
// attempt journal, health, and Prometheus metrics.
//
// DTOs use camelCase JSON tags and RFC3339 timestamps with milliseconds.
// Product ids in paths may be numeric legacy ids or URL-escaped global ids.
package api
