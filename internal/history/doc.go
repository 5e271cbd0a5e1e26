// Package history journals every pipeline attempt in SQLite.
//
// The tracker state document only keeps the latest outcome per product. The
// journal keeps one row per attempt so operators can see how often a product
// was regenerated, how long generation took, and why it failed. Journal
// writes are best-effort from the pipeline's point of view.
package history
