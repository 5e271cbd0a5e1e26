// Package pipeline evaluates one catalog product at a time.
//
// The orchestrator selects the primary image, compares its fingerprint with
// the tracked state, and for changed products runs generate, upload, and
// attach in order. Every path that reaches generation ends with exactly one
// tracker write. Status echoes to the catalog, journal rows, metrics, and
// notifications are best-effort and never change the decision.
package pipeline
