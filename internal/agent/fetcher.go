package agent

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"pullconf/internal/api"
	"pullconf/pkg/logging"
)

// Client fetches catalogs and assets from pullconfd, maintaining the on-disk
// cache of the last received catalog and its ETag.
type Client struct {
	http     *http.Client
	server   string
	apiKey   string
	hostname api.Hostname
	stateDir string
}

// NewClient builds the HTTPS client. Extra trust roots from the CA directory
// join the system pool, which covers both public and internal issuers.
func NewClient(config *Config) (*Client, error) {
	pool, err := x509.SystemCertPool()
	if err != nil {
		return nil, fmt.Errorf("loading system trust store: %w", err)
	}
	if config.CADir != "" {
		entries, err := os.ReadDir(config.CADir)
		if err != nil {
			return nil, fmt.Errorf("loading trust store from %s: %w", config.CADir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			pem, err := os.ReadFile(filepath.Join(config.CADir, entry.Name()))
			if err != nil {
				return nil, fmt.Errorf("loading trust store from %s: %w", config.CADir, err)
			}
			if !pool.AppendCertsFromPEM(pem) {
				logging.Warn("http", "no certificates found in %s", filepath.Join(config.CADir, entry.Name()))
			}
		}
	}

	return &Client{
		http: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12},
			},
		},
		server:   config.Server,
		apiKey:   config.APIKey,
		hostname: config.Hostname,
		stateDir: config.StateDir,
	}, nil
}

func (c *Client) etagPath() string {
	return filepath.Join(c.stateDir, "etag")
}

func (c *Client) catalogPath() string {
	return filepath.Join(c.stateDir, "catalog")
}

// FetchCatalog retrieves this host's catalog. A cached ETag turns the
// request conditional; on 304 the catalog loads from the disk cache, on 200
// both cache files are rewritten together.
func (c *Client) FetchCatalog() (*api.Catalog, error) {
	request, err := http.NewRequest(http.MethodGet, c.server+api.ClientPath(c.hostname)+"/resources", nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("X-API-KEY", c.apiKey)

	etag, err := os.ReadFile(c.etagPath())
	if err == nil && len(etag) > 0 {
		request.Header.Set("If-None-Match", strings.TrimSpace(string(etag)))
	}

	response, err := c.http.Do(request)
	if err != nil {
		return nil, fmt.Errorf("requesting catalog: %w", err)
	}
	defer response.Body.Close()

	switch response.StatusCode {
	case http.StatusNotModified:
		logging.Debug("http", "catalog is unchanged, loading the cached copy")
		return c.cachedCatalog()

	case http.StatusOK:
		if kind := response.Header.Get("Content-Type"); !strings.HasPrefix(kind, "application/json") {
			return nil, fmt.Errorf("pullconfd returned an unexpected content type %q", kind)
		}
		body, err := io.ReadAll(response.Body)
		if err != nil {
			return nil, fmt.Errorf("reading catalog: %w", err)
		}
		var catalog api.Catalog
		if err := json.Unmarshal(body, &catalog); err != nil {
			return nil, fmt.Errorf("decoding catalog: %w", err)
		}
		if etag := response.Header.Get("ETag"); etag != "" {
			if err := c.persist(body, etag); err != nil {
				return nil, err
			}
		}
		return &catalog, nil

	default:
		return nil, c.serverError(response)
	}
}

// cachedCatalog loads the catalog file written by the previous run.
func (c *Client) cachedCatalog() (*api.Catalog, error) {
	body, err := os.ReadFile(c.catalogPath())
	if err != nil {
		return nil, fmt.Errorf("reading the cached catalog: %w", err)
	}
	var catalog api.Catalog
	if err := json.Unmarshal(body, &catalog); err != nil {
		return nil, fmt.Errorf("decoding the cached catalog: %w", err)
	}
	return &catalog, nil
}

// persist atomically rewrites catalog and ETag cache files.
func (c *Client) persist(body []byte, etag string) error {
	if err := os.MkdirAll(c.stateDir, 0o700); err != nil {
		return fmt.Errorf("persisting the catalog cache: %w", err)
	}
	for _, file := range []struct {
		path    string
		content []byte
	}{
		{c.catalogPath(), body},
		{c.etagPath(), []byte(etag)},
	} {
		replacement := file.path + ".new"
		if err := os.WriteFile(replacement, file.content, 0o600); err != nil {
			return fmt.Errorf("persisting the catalog cache: %w", err)
		}
		if err := os.Rename(replacement, file.path); err != nil {
			return fmt.Errorf("persisting the catalog cache: %w", err)
		}
	}
	return nil
}

// Fetch retrieves one file asset. When etag carries the checksum of the
// current local content the request is conditional and notModified reports a
// 304, meaning the local copy is already current.
func (c *Client) Fetch(source api.SafePath, etag string) (content []byte, notModified bool, err error) {
	request, err := http.NewRequest(http.MethodGet, c.server+"/assets"+source.String(), nil)
	if err != nil {
		return nil, false, err
	}
	request.Header.Set("Accept", "text/plain")
	request.Header.Set("X-API-KEY", c.apiKey)
	if etag != "" {
		request.Header.Set("If-None-Match", etag)
	}

	response, err := c.http.Do(request)
	if err != nil {
		return nil, false, fmt.Errorf("requesting asset %s: %w", source, err)
	}
	defer response.Body.Close()

	switch response.StatusCode {
	case http.StatusNotModified:
		return nil, true, nil
	case http.StatusOK:
		content, err := io.ReadAll(response.Body)
		if err != nil {
			return nil, false, fmt.Errorf("reading asset %s: %w", source, err)
		}
		return content, false, nil
	default:
		return nil, false, c.serverError(response)
	}
}

// serverError decodes the typed error envelope of a failed request.
func (c *Client) serverError(response *http.Response) error {
	body, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("pullconfd returned status %d", response.StatusCode)
	}
	var document api.ErrorDocument
	if err := json.Unmarshal(body, &document); err != nil || document.Status == "" {
		return fmt.Errorf("pullconfd returned status %d without an error document", response.StatusCode)
	}
	logging.Error("http", &document, "pullconfd failed to process the request")
	return fmt.Errorf("pullconfd failed to process the request: %w", &document)
}

// contentChecksum is the hex-encoded SHA-256 appliers compare file content
// with, matching the ETag computation on the server.
func contentChecksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
