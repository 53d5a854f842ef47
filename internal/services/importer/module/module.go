// Package module wires the importer service and exposes its ports
package module

import (
	"context"

	"forgeport/internal/adapters/provider/github"
	"forgeport/internal/modkit"
	"forgeport/internal/modkit/httpkit"
	"forgeport/internal/services/importer/domain"
	"forgeport/internal/services/importer/service"
)

// Module defines the importer module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the importer module with its ports. Service options
// (sign/publish callbacks, event fetcher, progress) come from the host
func New(deps modkit.Deps, overrides Options, svcOpts ...service.Option) *Module {
	opts := FromConfig(deps.Cfg)

	if overrides.PageSize != 0 {
		opts.PageSize = overrides.PageSize
	}
	if overrides.BatchSize != 0 {
		opts.BatchSize = overrides.BatchSize
	}
	if overrides.BatchDelay != 0 {
		opts.BatchDelay = overrides.BatchDelay
	}
	if overrides.MaxAttempts != 0 {
		opts.MaxAttempts = overrides.MaxAttempts
	}
	if overrides.RetryBase != 0 {
		opts.RetryBase = overrides.RetryBase
	}
	if overrides.MinSpacing != 0 {
		opts.MinSpacing = overrides.MinSpacing
	}
	if overrides.ProgressEvery != 0 {
		opts.ProgressEvery = overrides.ProgressEvery
	}

	svcOpts = append([]service.Option{
		service.WithProviderFactory(func(ctx context.Context, token string) domain.Provider {
			return github.New(ctx, token)
		}),
	}, svcOpts...)

	svc := service.New(deps, service.Config{
		PageSize:      opts.PageSize,
		BatchSize:     opts.BatchSize,
		BatchDelay:    opts.BatchDelay,
		MaxAttempts:   opts.MaxAttempts,
		RetryBase:     opts.RetryBase,
		MinSpacing:    opts.MinSpacing,
		ProgressEvery: opts.ProgressEvery,
	}, svcOpts...)

	m := &Module{deps: deps}
	m.ports = Ports{Importer: svc}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return "importer" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Prefix returns the module config prefix
func (m *Module) Prefix() string { return "IMPORTER_" }

// MountRoutes returns no HTTP routes for importer (the api service fronts it)
func (m *Module) MountRoutes(_ httpkit.Router) {}
