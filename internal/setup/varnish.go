// Package setup implements the magento:setup:varnish workflow: write the full
// page cache settings, clean Magento's config cache, render the VCL and write it out.
package setup

import (
	"context"
	"errors"
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"

	"github.com/dorcha-inc/devbox/internal/config"
	"github.com/dorcha-inc/devbox/internal/core"
	"github.com/dorcha-inc/devbox/internal/magento"
	"github.com/dorcha-inc/devbox/internal/store"
)

// Step identifies one stage of the workflow
type Step string

// Workflow steps, in order
const (
	StepConnect    Step = "connect"
	StepSaveConfig Step = "save-config"
	StepVerify     Step = "verify-config"
	StepCleanCache Step = "clean-cache"
	StepRenderVCL  Step = "render-vcl"
	StepWriteVCL   Step = "write-vcl"
)

// StepError reports the step a run failed at
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// FailedStep returns the step err failed at, or "" if err is not a StepError
func FailedStep(err error) Step {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Step
	}
	return ""
}

// Magento is what the workflow needs from the Magento installation
type Magento interface {
	CleanCache(ctx context.Context, types ...string) error
	CheckInstallation(ctx context.Context, profile magento.Profile) error
	RenderVCL(ctx context.Context, profile magento.Profile, backend magento.Backend) ([]byte, error)
}

// Interface guard
var _ Magento = &magento.CLI{}

// Settings is what the workflow needs from the configuration store
type Settings interface {
	ReplaceSettings(ctx context.Context, filter store.PathFilter, rows []store.ConfigRow) (int64, error)
	Settings(ctx context.Context, filter store.PathFilter) ([]store.ConfigRow, error)
}

// Interface guard
var _ Settings = &store.Store{}

// VCLFileMode is the permission of the written VCL file
const VCLFileMode = 0o644

// Result summarizes a successful run
type Result struct {
	DeletedRows  int64
	InsertedRows int
	VCLPath      string
	VCLBytes     int
}

// VarnishSetup runs the Varnish setup against one store connection and one Magento installation
type VarnishSetup struct {
	cfg      *config.SetupConfig
	settings Settings
	magento  Magento
}

// NewVarnishSetup creates a workflow for cfg. settings is owned by the caller.
func NewVarnishSetup(cfg *config.SetupConfig, settings Settings, m Magento) *VarnishSetup {
	return &VarnishSetup{
		cfg:      cfg,
		settings: settings,
		magento:  m,
	}
}

// step runs fn, logs its outcome and wraps any error with the step name
func step(name Step, fn func() error) error {
	start := time.Now()
	err := fn()
	core.LogStep(string(name), time.Since(start), err)
	if err != nil {
		return &StepError{Step: name, Err: err}
	}
	return nil
}

// Run executes every step after connecting, in order, and stops at the first failure.
// The database rows are committed before the VCL is rendered, so a later
// failure leaves them in place.
func (s *VarnishSetup) Run(ctx context.Context) (*Result, error) {
	result := &Result{VCLPath: s.cfg.VarnishConfigPath}
	backend := s.cfg.Backend()
	rows := magento.VarnishSettings(backend)

	if err := step(StepSaveConfig, func() error {
		deleted, err := s.settings.ReplaceSettings(ctx, magento.VarnishFilter(), rows)
		if err != nil {
			return err
		}
		result.DeletedRows = deleted
		result.InsertedRows = len(rows)
		zap.L().Info("Saved varnish configuration",
			zap.Int64("deleted_rows", deleted),
			zap.Int("inserted_rows", len(rows)),
			zap.String("backend_host", backend.Host),
			zap.Int("backend_port", backend.Port))
		return nil
	}); err != nil {
		return nil, err
	}

	if err := step(StepVerify, func() error {
		return s.verify(ctx, rows)
	}); err != nil {
		return nil, err
	}

	if err := step(StepCleanCache, func() error {
		return s.magento.CleanCache(ctx, magento.CacheTypeConfig)
	}); err != nil {
		return nil, err
	}

	var vcl []byte
	if err := step(StepRenderVCL, func() error {
		profile := s.cfg.Profile()
		if err := s.magento.CheckInstallation(ctx, profile); err != nil {
			return err
		}
		out, err := s.magento.RenderVCL(ctx, profile, backend)
		if err != nil {
			return err
		}
		vcl = out
		return nil
	}); err != nil {
		return nil, err
	}

	if err := step(StepWriteVCL, func() error {
		return core.WriteFileAtomic(s.cfg.VarnishConfigPath, vcl, VCLFileMode)
	}); err != nil {
		return nil, err
	}

	result.VCLBytes = len(vcl)
	return result, nil
}

// verify reads the rows back and checks exactly the expected ones exist
func (s *VarnishSetup) verify(ctx context.Context, want []store.ConfigRow) error {
	got, err := s.settings.Settings(ctx, magento.VarnishFilter())
	if err != nil {
		return err
	}

	if len(got) != len(want) {
		return fmt.Errorf("expected %d varnish config rows, found %d%s", len(want), len(got), core.BugReportMessage())
	}

	expected := make(map[string]string, len(want))
	for _, r := range want {
		expected[r.Path] = r.Value
	}

	seen := mapset.NewSet[string]()
	for _, r := range got {
		value, ok := expected[r.Path]
		if !ok || value != r.Value || r.Scope != magento.ScopeDefault || r.ScopeID != 0 {
			return fmt.Errorf("unexpected config row %s=%q in scope %s/%d", r.Path, r.Value, r.Scope, r.ScopeID)
		}
		seen.Add(r.Path)
	}

	if missing := magento.VarnishPaths().Difference(seen); missing.Cardinality() > 0 {
		return fmt.Errorf("missing varnish config rows: %v", missing.ToSlice())
	}

	return nil
}

// Opener opens the configuration store for one invocation
type Opener func(cfg *config.SetupConfig) (*store.Store, error)

// OpenMySQL connects to the database named by cfg.
// db-port is not part of the connection; see config.Load.
func OpenMySQL(cfg *config.SetupConfig) (*store.Store, error) {
	return store.OpenMySQL(store.MySQLOptions{
		Host:     cfg.DBHost,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
	})
}

// Run connects with open, runs the Varnish setup and closes the connection on every path
func Run(ctx context.Context, cfg *config.SetupConfig, open Opener, m Magento) (*Result, error) {
	var st *store.Store
	if err := step(StepConnect, func() error {
		opened, err := open(cfg)
		if err != nil {
			return err
		}
		st = opened
		return st.Ping(ctx)
	}); err != nil {
		if st != nil {
			core.LogDeferredError(st.Close)
		}
		return nil, err
	}
	defer core.LogDeferredError(st.Close)

	return NewVarnishSetup(cfg, st, m).Run(ctx)
}
