// Package tracker persists per-product fingerprints and pipeline outcomes.
//
// The state document is a single JSON object keyed by product identifier. It is
// read once by Open and rewritten in full after every mutation (temp file,
// fsync, rename), so a crash leaves either the previous or the new document on
// disk. Entries are overwritten, never deleted.
//
// Lock guards the document across processes; the in-memory map is guarded by an
// RWMutex so the status API can read while the poller writes.
package tracker
