// Package catalog turns declaration files into per-client resource catalogs.
//
// The package covers the whole server-side pipeline: Load reads the TOML
// declarations for clients and groups from disk, Compile resolves variables,
// merges group inheritance, wires implicit and explicit dependencies, rejects
// invalid or cyclic configurations and produces a State holding one finished
// catalog per client.
//
// Compilation is all-or-nothing. Any violation aborts the whole run with an
// error that wraps one of the sentinel errors in errors.go, so the server can
// keep serving the previous state after a failed reload.
package catalog
