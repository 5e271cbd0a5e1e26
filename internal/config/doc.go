// Package config loads, normalizes, and validates auto3d configuration.
//
// Configuration is read from TOML (explicit --config path, then
// ~/.config/auto3d/config.toml, then ./auto3d.toml). Before decoding, .env and
// .env.local in the working directory are loaded into the process environment
// without overriding variables that are already set. The three credentials
// (SHOP, SHOPIFY_ADMIN_TOKEN, MESHY_API_KEY) fall back to the environment when
// absent from the file; a missing credential is a fatal load error.
//
// The package also ships an embedded sample written by `auto3d config init`.
package config
