// Package agent implements pullconf, the client side: fetching the host's
// catalog over authenticated HTTPS with a conditional GET, caching catalog
// and ETag on disk, and converging local system state to the catalog in
// dependency order.
//
// The appliers reach the host through the System seam, which wraps account
// database lookups, ownership changes and subprocess execution. Tests swap
// in a recording fake; the real implementation shells out to the usual
// Debian administration commands.
package agent
