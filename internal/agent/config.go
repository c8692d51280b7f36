package agent

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"pullconf/internal/api"
	"pullconf/pkg/logging"
)

// Environment variables read by pullconf.
const (
	EnvServer    = "PULLCONF_SERVER"
	EnvAPIKey    = "PULLCONF_API_KEY"
	EnvCADir     = "PULLCONF_CA_DIR"
	EnvLogFormat = "PULLCONF_LOG_FORMAT"
)

// DefaultStateDir holds the cached catalog and its ETag between runs.
const DefaultStateDir = "/var/lib/pullconf"

// Config is the runtime configuration of one agent run.
type Config struct {
	// Server is the base URL of pullconfd, always https.
	Server string
	// APIKey is the raw key; only its hash ever reaches the wire
	// comparison on the server.
	APIKey string
	// CADir optionally names a directory with extra PEM trust roots.
	CADir string
	// StateDir is where catalog and ETag are cached.
	StateDir string
	// Hostname is this host's fully qualified name, which selects the
	// catalog to fetch.
	Hostname  api.Hostname
	LogFormat logging.Format
}

// ConfigFromEnvironment assembles the agent configuration. The server
// address and API key are mandatory; the hostname comes from the system.
func ConfigFromEnvironment() (*Config, error) {
	format, err := logging.ParseFormat(os.Getenv(EnvLogFormat))
	if err != nil {
		return nil, err
	}

	server := os.Getenv(EnvServer)
	if server == "" {
		return nil, fmt.Errorf("environment variable %s must name the pullconf server", EnvServer)
	}
	key := os.Getenv(EnvAPIKey)
	if key == "" {
		return nil, fmt.Errorf("environment variable %s must contain the API key", EnvAPIKey)
	}

	hostname, err := fullyQualifiedHostname()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    "https://" + server,
		APIKey:    key,
		CADir:     os.Getenv(EnvCADir),
		StateDir:  DefaultStateDir,
		Hostname:  hostname,
		LogFormat: format,
	}, nil
}

// fullyQualifiedHostname asks the system for the FQDN. The kernel hostname
// alone is not enough, catalogs are keyed by the fully qualified name.
func fullyQualifiedHostname() (api.Hostname, error) {
	output, err := exec.Command("hostname", "--fqdn").Output()
	if err != nil {
		return "", fmt.Errorf("looking up the fully qualified hostname: %w", err)
	}
	hostname, err := api.NewHostname(strings.TrimSpace(string(output)))
	if err != nil {
		return "", fmt.Errorf("looking up the fully qualified hostname: %w", err)
	}
	return hostname, nil
}
