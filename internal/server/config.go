package server

import (
	"fmt"
	"os"
	"path/filepath"

	"pullconf/pkg/logging"
)

// Environment variables read by pullconfd.
const (
	EnvListenOn       = "PULLCONF_LISTEN_ON"
	EnvTLSCertificate = "PULLCONF_TLS_CERTIFICATE"
	EnvTLSPrivateKey  = "PULLCONF_TLS_PRIVATE_KEY"
	EnvAssetDir       = "PULLCONF_ASSET_DIR"
	EnvResourceDir    = "PULLCONF_RESOURCE_DIR"
	EnvLogFormat      = "PULLCONF_LOG_FORMAT"
)

// Config is the runtime configuration of pullconfd. The environment is the
// normative interface, every variable has a default suitable for a package
// installation.
type Config struct {
	ListenOn       string
	TLSCertificate string
	TLSPrivateKey  string
	AssetDir       string
	ResourceDir    string
	LogFormat      logging.Format
}

// ConfigFromEnvironment assembles and validates the server configuration.
// Directories are canonicalized so later path comparisons cannot be fooled
// by symlinked roots.
func ConfigFromEnvironment() (*Config, error) {
	format, err := logging.ParseFormat(os.Getenv(EnvLogFormat))
	if err != nil {
		return nil, err
	}

	config := &Config{
		ListenOn:       environmentOr(EnvListenOn, "127.0.0.1:443"),
		TLSCertificate: environmentOr(EnvTLSCertificate, "/etc/pullconfd/tls/server.crt"),
		TLSPrivateKey:  environmentOr(EnvTLSPrivateKey, "/etc/pullconfd/tls/server.key"),
		AssetDir:       environmentOr(EnvAssetDir, "/etc/pullconfd/assets"),
		ResourceDir:    environmentOr(EnvResourceDir, "/etc/pullconfd/resources"),
		LogFormat:      format,
	}

	for _, file := range []struct{ name, path string }{
		{EnvTLSCertificate, config.TLSCertificate},
		{EnvTLSPrivateKey, config.TLSPrivateKey},
	} {
		if err := checkRegularFile(file.path); err != nil {
			return nil, fmt.Errorf("%s: %w", file.name, err)
		}
	}

	if config.AssetDir, err = canonicalDirectory(EnvAssetDir, config.AssetDir); err != nil {
		return nil, err
	}
	if config.ResourceDir, err = canonicalDirectory(EnvResourceDir, config.ResourceDir); err != nil {
		return nil, err
	}

	return config, nil
}

func environmentOr(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func checkRegularFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}
	return nil
}

func canonicalDirectory(name, path string) (string, error) {
	if !filepath.IsAbs(path) {
		return "", fmt.Errorf("%s: %s is not an absolute path", name, path)
	}
	canonical, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	info, err := os.Stat(canonical)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: %s is not a directory", name, path)
	}
	return canonical, nil
}
