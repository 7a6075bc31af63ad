package engine

import (
	"context"
	"fmt"

	"github.com/lethang507/crmdev/internal/hooks"
)

// registryFromConfig maps the project config onto a hook registry.
func (e *Engine) registryFromConfig() *hooks.Registry {
	reg := &hooks.Registry{
		App: hooks.AppInfo{
			Name:        e.cfg.App.Name,
			Title:       e.cfg.App.Title,
			Publisher:   e.cfg.App.Publisher,
			Description: e.cfg.App.Description,
			Email:       e.cfg.App.Email,
			License:     e.cfg.App.License,
		},
		ClassOverrides:  e.cfg.Hooks.ClassOverrides,
		MethodOverrides: e.cfg.Hooks.MethodOverrides,
	}
	for _, rule := range e.cfg.Hooks.RouteRules {
		reg.RouteRules = append(reg.RouteRules, hooks.RouteRule{
			From: rule.From,
			To:   rule.To,
		})
	}
	return reg
}

// RenderHooks generates the declarative hook registry file inside the
// override app directory. The registry is validated before anything is
// written; an invalid registry leaves the previous file untouched.
func (e *Engine) RenderHooks(ctx context.Context) (*RenderHooksResult, error) {
	reg := e.registryFromConfig()

	data, err := hooks.Render(reg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := e.fs.MkdirAll(e.paths.AppDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create app directory: %w", err)
	}
	if err := e.fs.AtomicWrite(e.paths.HooksFile, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write hook registry: %w", err)
	}

	e.logger.Info("rendered hook registry", "path", e.paths.HooksFile, "bytes", len(data))

	return &RenderHooksResult{
		Path: e.paths.HooksFile,
		Size: len(data),
	}, nil
}

// CheckHooks verifies that every override target the registry names resolves
// to a module and symbol in this project. Targets in other apps are skipped.
func (e *Engine) CheckHooks(ctx context.Context) (*CheckHooksResult, error) {
	reg := e.registryFromConfig()

	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	report := hooks.Check(e.fs, e.root, reg)

	return &CheckHooksResult{Report: report}, nil
}
