package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pullconf/internal/api"
	"pullconf/internal/catalog"
)

// testState compiles one client owning a file sourced from configs/app.conf.
func testState(t *testing.T) *catalog.State {
	t.Helper()
	state, err := catalog.Compile(&catalog.Declarations{
		Hosts: map[api.Hostname]*catalog.HostDeclaration{
			"web-1.example.com": {
				Name:   "web-1.example.com",
				APIKey: api.HashKey("secret"),
				Resources: []map[string]any{
					{"type": "file", "path": "/etc/app.conf", "source": "/configs/app.conf"},
				},
			},
			"web-2.example.com": {
				Name:   "web-2.example.com",
				APIKey: api.HashKey("other"),
			},
		},
		Groups: map[string]*catalog.GroupDeclaration{},
	})
	require.NoError(t, err)
	return state
}

func testHandler(t *testing.T) (http.Handler, string) {
	t.Helper()
	assetDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(assetDir, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(assetDir, "configs", "app.conf"), []byte("payload"), 0o644))

	canonical, err := filepath.EvalSymlinks(assetDir)
	require.NoError(t, err)

	store := NewStore()
	require.NoError(t, store.Swap(testState(t)))
	return NewHandler(store, canonical), canonical
}

func get(handler http.Handler, path, key, ifNoneMatch string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodGet, path, nil)
	if key != "" {
		request.Header.Set("X-API-KEY", key)
	}
	if ifNoneMatch != "" {
		request.Header.Set("If-None-Match", ifNoneMatch)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func TestCatalogRoute(t *testing.T) {
	handler, _ := testHandler(t)

	t.Run("missing key", func(t *testing.T) {
		response := get(handler, "/api/clients/web-1.example.com/resources", "", "")
		assert.Equal(t, http.StatusUnauthorized, response.Code)

		var document api.ErrorDocument
		require.NoError(t, json.Unmarshal(response.Body.Bytes(), &document))
		assert.Equal(t, "missing authorization", document.Title)
	})

	t.Run("unknown key", func(t *testing.T) {
		response := get(handler, "/api/clients/web-1.example.com/resources", "wrong", "")
		assert.Equal(t, http.StatusUnauthorized, response.Code)

		var document api.ErrorDocument
		require.NoError(t, json.Unmarshal(response.Body.Bytes(), &document))
		assert.Equal(t, "failed authorization", document.Title)
	})

	t.Run("foreign catalog", func(t *testing.T) {
		response := get(handler, "/api/clients/web-2.example.com/resources", "secret", "")
		assert.Equal(t, http.StatusForbidden, response.Code)
	})

	t.Run("success", func(t *testing.T) {
		response := get(handler, "/api/clients/web-1.example.com/resources", "secret", "")
		require.Equal(t, http.StatusOK, response.Code)
		assert.Equal(t, "application/json", response.Header().Get("Content-Type"))
		assert.NotEmpty(t, response.Header().Get("ETag"))

		var served api.Catalog
		require.NoError(t, json.Unmarshal(response.Body.Bytes(), &served))
		assert.Equal(t, "/api/clients/web-1.example.com", served.Links.Self)
		require.Len(t, served.Data, 1)
		assert.Equal(t, api.KindFile, served.Data[0].Kind())
	})

	t.Run("empty catalog", func(t *testing.T) {
		response := get(handler, "/api/clients/web-2.example.com/resources", "other", "")
		require.Equal(t, http.StatusOK, response.Code)

		var served api.Catalog
		require.NoError(t, json.Unmarshal(response.Body.Bytes(), &served))
		assert.Empty(t, served.Data)
	})

	t.Run("conditional request", func(t *testing.T) {
		first := get(handler, "/api/clients/web-1.example.com/resources", "secret", "")
		require.Equal(t, http.StatusOK, first.Code)

		second := get(handler, "/api/clients/web-1.example.com/resources", "secret", first.Header().Get("ETag"))
		assert.Equal(t, http.StatusNotModified, second.Code)
		assert.Empty(t, second.Body.Bytes())
	})
}

func TestAssetRoute(t *testing.T) {
	handler, assetDir := testHandler(t)

	t.Run("unclaimed source is forbidden", func(t *testing.T) {
		response := get(handler, "/assets/configs/app.conf", "other", "")
		assert.Equal(t, http.StatusForbidden, response.Code)
	})

	t.Run("claimed source is served", func(t *testing.T) {
		response := get(handler, "/assets/configs/app.conf", "secret", "")
		require.Equal(t, http.StatusOK, response.Code)
		assert.Equal(t, "application/octet-stream", response.Header().Get("Content-Type"))
		assert.Equal(t, "payload", response.Body.String())
		assert.NotEmpty(t, response.Header().Get("ETag"))
	})

	t.Run("conditional request", func(t *testing.T) {
		first := get(handler, "/assets/configs/app.conf", "secret", "")
		second := get(handler, "/assets/configs/app.conf", "secret", first.Header().Get("ETag"))
		assert.Equal(t, http.StatusNotModified, second.Code)
	})

	t.Run("query strings do not break the match", func(t *testing.T) {
		response := get(handler, "/assets/configs/app.conf?cache=no", "secret", "")
		assert.Equal(t, http.StatusOK, response.Code)
	})

	t.Run("missing asset", func(t *testing.T) {
		require.NoError(t, os.Remove(filepath.Join(assetDir, "configs", "app.conf")))
		response := get(handler, "/assets/configs/app.conf", "secret", "")
		assert.Equal(t, http.StatusNotFound, response.Code)
		require.NoError(t, os.WriteFile(filepath.Join(assetDir, "configs", "app.conf"), []byte("payload"), 0o644))
	})

	t.Run("traversal is rejected", func(t *testing.T) {
		response := get(handler, "/assets/../../etc/passwd", "secret", "")
		assert.NotEqual(t, http.StatusOK, response.Code)
	})
}

func TestUnknownRoute(t *testing.T) {
	handler, _ := testHandler(t)
	response := get(handler, "/metrics", "secret", "")
	assert.Equal(t, http.StatusNotFound, response.Code)
	assert.Empty(t, response.Body.Bytes())
}

func TestStoreSwapReplacesGeneration(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Swap(testState(t)))

	name, ok := store.Authenticate(api.HashKey("secret"))
	require.True(t, ok)
	assert.Equal(t, api.Hostname("web-1.example.com"), name)
	assert.True(t, store.HasSource(name, "/configs/app.conf"))

	_, firstETag, ok := store.Document(name)
	require.True(t, ok)

	// A new generation mints new resource ids, so the ETag moves.
	require.NoError(t, store.Swap(testState(t)))
	_, secondETag, ok := store.Document(name)
	require.True(t, ok)
	assert.NotEqual(t, firstETag, secondETag)

	require.NoError(t, store.Swap(&catalog.State{
		Clients: map[api.Hostname]*api.Catalog{},
		APIKeys: map[api.APIKey]api.Hostname{},
	}))
	_, ok = store.Authenticate(api.HashKey("secret"))
	assert.False(t, ok)
}
