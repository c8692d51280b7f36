package catalog

import "errors"

// Sentinel errors for the conditions that abort a compilation. Every fatal
// error returned by Load or Compile wraps one of these, with the client,
// group and resource context in the message.
var (
	ErrDuplicateHost               = errors.New("duplicate host")
	ErrDuplicateGroup              = errors.New("duplicate group")
	ErrDuplicateAPIKey             = errors.New("duplicate API key")
	ErrUnknownGroup                = errors.New("unknown group")
	ErrUnknownVariable             = errors.New("unknown variable")
	ErrInvalidValue                = errors.New("invalid value")
	ErrDuplicateResource           = errors.New("duplicate resource")
	ErrPathConflict                = errors.New("path conflict")
	ErrUnknownDependency           = errors.New("unknown dependency")
	ErrForbiddenDependency         = errors.New("forbidden dependency")
	ErrDependencyCycle             = errors.New("dependency cycle")
	ErrMultipleResolvConf          = errors.New("multiple resolv.conf resources")
	ErrTooManyAliases              = errors.New("too many aliases")
	ErrTargetFileHasContent        = errors.New("target file declares content")
	ErrPrimaryGroupInSupplementary = errors.New("primary group in supplementary groups")
)
