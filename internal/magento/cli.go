package magento

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/mod/semver"

	"github.com/dorcha-inc/devbox/internal/core"
)

const (
	// BinPath is the Magento CLI entry point relative to the installation root
	BinPath = "bin/magento"
	// BootstrapPath is the application bootstrap script relative to the installation root
	BootstrapPath = "app/bootstrap.php"
	// MinVersion is the first release shipping varnish:vcl:generate
	MinVersion = "2.2.0"
)

// CacheTypeConfig is the configuration cache type
const CacheTypeConfig = "config"

var versionPattern = regexp.MustCompile(`\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?`)

// CLI runs bin/magento inside a Magento installation
type CLI struct {
	root     string
	php      string
	executor *core.Executor
}

// NewCLI creates a CLI for the installation at root, run through the php interpreter
func NewCLI(root, php string, executor *core.Executor) *CLI {
	return &CLI{
		root:     root,
		php:      php,
		executor: executor,
	}
}

// Root returns the installation directory
func (c *CLI) Root() string {
	return c.root
}

func (c *CLI) run(ctx context.Context, args ...string) (*core.ExecutionResult, error) {
	argv := append([]string{BinPath}, args...)
	zap.L().Debug("Running magento command", zap.String("dir", c.root), zap.Strings("args", argv))
	return c.executor.Run(ctx, c.root, c.php, argv...)
}

// CheckInstallation verifies root looks like a Magento installation whose CLI can
// render VCL for profile
func (c *CLI) CheckInstallation(ctx context.Context, profile Profile) error {
	minVersion, err := profile.MinMagentoVersion()
	if err != nil {
		return err
	}

	for _, rel := range []string{BootstrapPath, BinPath} {
		if !core.FileExists(filepath.Join(c.root, rel)) {
			return fmt.Errorf("%s not found in %s: not a Magento installation", rel, c.root)
		}
	}

	version, err := c.Version(ctx)
	if err != nil {
		return err
	}

	if semver.Compare("v"+version, "v"+minVersion) < 0 {
		return fmt.Errorf("magento %s cannot generate the %s VCL, at least %s is required", version, profile, minVersion)
	}

	zap.L().Debug("Magento installation found",
		zap.String("root", c.root),
		zap.String("version", version),
		zap.String("vcl_profile", string(profile)))
	return nil
}

// Version returns the Magento version reported by bin/magento --version
func (c *CLI) Version(ctx context.Context) (string, error) {
	result, err := c.run(ctx, "--version")
	if err != nil {
		return "", fmt.Errorf("failed to query magento version: %w", err)
	}
	return ParseVersion(result.Stdout)
}

// ParseVersion extracts the version from bin/magento --version output
func ParseVersion(output string) (string, error) {
	version := versionPattern.FindString(output)
	if version == "" || !semver.IsValid("v"+version) {
		return "", fmt.Errorf("could not parse magento version from %q", strings.TrimSpace(output))
	}
	return version, nil
}

// CleanCache cleans the given cache types so new configuration rows take effect
func (c *CLI) CleanCache(ctx context.Context, types ...string) error {
	args := append([]string{"cache:clean"}, types...)
	if _, err := c.run(ctx, args...); err != nil {
		return fmt.Errorf("failed to clean magento cache: %w", err)
	}
	return nil
}

// RenderVCL asks Magento to generate the VCL for profile, pointing at backend
func (c *CLI) RenderVCL(ctx context.Context, profile Profile, backend Backend) ([]byte, error) {
	exportVersion, err := profile.ExportVersion()
	if err != nil {
		return nil, err
	}

	result, err := c.run(ctx,
		"varnish:vcl:generate",
		"--export-version="+exportVersion,
		"--access-list="+backend.Host,
		"--backend-host="+backend.Host,
		"--backend-port="+strconv.Itoa(backend.Port),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate VCL: %w", err)
	}

	if strings.TrimSpace(result.Stdout) == "" {
		return nil, fmt.Errorf("magento returned an empty VCL for profile '%s'", profile)
	}

	return []byte(result.Stdout), nil
}
