// Package magento describes the pieces of a Magento installation that devbox
// talks to: its configuration paths and its bin/magento command line.
package magento

import (
	"strconv"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/dorcha-inc/devbox/internal/store"
)

// Full page cache configuration paths
const (
	PathCachingApplication = "system/full_page_cache/caching_application"
	PrefixVarnish          = "system/full_page_cache/varnish/"
	PathVarnishAccessList  = PrefixVarnish + "access_list"
	PathVarnishBackendHost = PrefixVarnish + "backend_host"
	PathVarnishBackendPort = PrefixVarnish + "backend_port"
)

// CachingApplicationVarnish selects Varnish as the full page cache
// (1 is Magento's built-in cache).
const CachingApplicationVarnish = 2

// ScopeDefault is the global configuration scope
const ScopeDefault = "default"

// VarnishFilter matches every row the Varnish setup owns
func VarnishFilter() store.PathFilter {
	return store.PathFilter{
		Exact:    []string{PathCachingApplication},
		Prefixes: []string{PrefixVarnish},
	}
}

// VarnishSettings returns the rows that route the full page cache through Varnish
func VarnishSettings(backend Backend) []store.ConfigRow {
	return []store.ConfigRow{
		defaultRow(PathCachingApplication, strconv.Itoa(CachingApplicationVarnish)),
		defaultRow(PathVarnishAccessList, backend.Host),
		defaultRow(PathVarnishBackendHost, backend.Host),
		defaultRow(PathVarnishBackendPort, strconv.Itoa(backend.Port)),
	}
}

// VarnishPaths is the set of paths written by VarnishSettings
func VarnishPaths() mapset.Set[string] {
	return mapset.NewSet(
		PathCachingApplication,
		PathVarnishAccessList,
		PathVarnishBackendHost,
		PathVarnishBackendPort,
	)
}

func defaultRow(path, value string) store.ConfigRow {
	return store.ConfigRow{
		Scope:   ScopeDefault,
		ScopeID: 0,
		Path:    path,
		Value:   value,
	}
}

// Backend is the web server Varnish forwards to
type Backend struct {
	Host string
	Port int
}
