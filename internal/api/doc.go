// Package api defines the wire model shared by pullconfd and pullconf.
//
// This package is the single contract between the two programs: the server
// compiles declarations into the types defined here and serializes them, the
// agent deserializes them and converges the host. Neither side imports the
// other's internals.
//
// # Resources
//
// A Resource is a tagged union over the ten supported kinds:
//
//   - apt::package
//   - apt::preference
//   - cron::job
//   - directory
//   - file
//   - group
//   - host
//   - resolv.conf
//   - symlink
//   - user
//
// Exactly one variant is set. On the wire each resource is a JSON object
// with the kind in its "type" field, a server-minted uuid in "id", the
// kind-specific "parameters", and "relationships" listing the resources it
// depends on by type and id. Directories additionally record their managed
// children, which drives the purge behavior of the agent.
//
// # Validated values
//
// Scalar parameter types (Hostname, Username, SafePath, FileMode, Password,
// PackageVersion, ...) validate themselves during decoding via
// encoding.TextUnmarshaler. A catalog that deserializes without error is
// well-formed by construction; neither program re-validates field contents
// after decoding.
//
// # Error documents
//
// HTTP error responses use the ErrorDocument envelope with the status code,
// a short title and a human-readable detail message.
package api
