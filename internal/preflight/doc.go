// Package preflight provides readiness checks for the filesystem paths and
// remote services auto3d depends on.
//
// `auto3d doctor` runs RunAll and renders the results. `auto3d run` calls
// CheckDirectoryAccess on the state directory before taking the writer lock so
// a permissions problem is reported before the first poll.
package preflight
