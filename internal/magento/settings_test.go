package magento

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestVarnishSettings_Defaults tests the rows produced for the default backend
func TestVarnishSettings_Defaults(t *testing.T) {
	rows := VarnishSettings(Backend{Host: "web", Port: 80})
	require.Len(t, rows, 4)

	got := map[string]string{}
	for _, r := range rows {
		assert.Equal(t, ScopeDefault, r.Scope)
		assert.Equal(t, 0, r.ScopeID)
		got[r.Path] = r.Value
	}

	assert.Equal(t, map[string]string{
		"system/full_page_cache/caching_application":  "2",
		"system/full_page_cache/varnish/access_list":  "web",
		"system/full_page_cache/varnish/backend_host": "web",
		"system/full_page_cache/varnish/backend_port": "80",
	}, got)
}

// TestVarnishSettings_CustomBackend tests that host and port are written verbatim
func TestVarnishSettings_CustomBackend(t *testing.T) {
	rows := VarnishSettings(Backend{Host: "10.0.0.5", Port: 8080})

	for _, r := range rows {
		switch r.Path {
		case PathVarnishAccessList, PathVarnishBackendHost:
			assert.Equal(t, "10.0.0.5", r.Value)
		case PathVarnishBackendPort:
			assert.Equal(t, "8080", r.Value)
		}
	}
}

// TestVarnishPaths_MatchSettings tests that the path set and the rows agree
func TestVarnishPaths_MatchSettings(t *testing.T) {
	paths := VarnishPaths()
	rows := VarnishSettings(Backend{Host: "web", Port: 80})

	assert.Equal(t, len(rows), paths.Cardinality())
	for _, r := range rows {
		assert.True(t, paths.Contains(r.Path), r.Path)
	}
}

// TestVarnishFilter tests that the filter covers every written path
func TestVarnishFilter(t *testing.T) {
	filter := VarnishFilter()
	assert.Equal(t, []string{PathCachingApplication}, filter.Exact)
	assert.Equal(t, []string{"system/full_page_cache/varnish/"}, filter.Prefixes)
}
