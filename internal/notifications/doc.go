// Package notifications pushes pipeline events to ntfy.
//
// The topic configured in config.toml may be a full URL or a bare topic name
// (published on ntfy.sh). Without a topic the service is a no-op. The
// pipeline treats every notification as best-effort.
package notifications
