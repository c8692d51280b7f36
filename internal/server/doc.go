// Package server implements pullconfd: configuration from the environment,
// the store holding the compiled catalogs, the authenticated HTTPS surface
// serving catalogs and assets, and the process lifecycle with graceful
// shutdown and declaration reloads on SIGHUP or file changes.
package server
