// Package hooks models the declarative hook registry of an override app.
//
// The registry maps CRM entity names to fully-qualified override class
// paths, server method paths to override function paths, and website URL
// patterns to rewrite targets. Crmdev validates the registry and renders
// it into the hooks.py file the framework reads at app load time; how the
// framework then resolves overrides across installed apps is its own
// business and is not modeled here.
package hooks

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// identPattern matches one segment of a dotted override path.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Registry is the complete hook registry of one override app.
type Registry struct {
	// App is the metadata rendered at the top of hooks.py.
	App AppInfo

	// ClassOverrides maps entity names (e.g. "CRM Lead") to the dotted
	// path of the class that replaces the stock controller.
	ClassOverrides map[string]string

	// MethodOverrides maps dotted server method paths to the dotted path
	// of the function that replaces them.
	MethodOverrides map[string]string

	// RouteRules rewrites website URL patterns to target routes.
	RouteRules []RouteRule
}

// AppInfo is the app metadata block.
type AppInfo struct {
	Name        string
	Title       string
	Publisher   string
	Description string
	Email       string
	License     string
}

// RouteRule rewrites one URL pattern to a target route.
type RouteRule struct {
	// From is the URL pattern, starting with "/". It may carry framework
	// placeholders such as "/crm/<path:app_path>".
	From string

	// To is the target route.
	To string
}

// Validate checks the whole registry and returns all problems joined
// into one error.
func (r *Registry) Validate() error {
	var errs []error

	if r.App.Name == "" {
		errs = append(errs, fmt.Errorf("app name is required"))
	}

	for entity, target := range r.ClassOverrides {
		if strings.TrimSpace(entity) == "" {
			errs = append(errs, fmt.Errorf("class override has an empty entity name"))
		} else if entity != strings.TrimSpace(entity) {
			errs = append(errs, fmt.Errorf("entity name %q has surrounding whitespace", entity))
		}
		if err := validateDottedPath(target); err != nil {
			errs = append(errs, fmt.Errorf("class override for %q: %w", entity, err))
		}
	}

	for method, target := range r.MethodOverrides {
		if err := validateDottedPath(method); err != nil {
			errs = append(errs, fmt.Errorf("method override key %q: %w", method, err))
		}
		if err := validateDottedPath(target); err != nil {
			errs = append(errs, fmt.Errorf("method override for %q: %w", method, err))
		}
	}

	seen := make(map[string]bool, len(r.RouteRules))
	for i, rule := range r.RouteRules {
		if !strings.HasPrefix(rule.From, "/") {
			errs = append(errs, fmt.Errorf("route rule %d: from %q must start with /", i, rule.From))
		}
		if rule.To == "" {
			errs = append(errs, fmt.Errorf("route rule %d: to is required", i))
		}
		if seen[rule.From] {
			errs = append(errs, fmt.Errorf("duplicate route rule for %q", rule.From))
		}
		seen[rule.From] = true
	}

	return errors.Join(errs...)
}

// validateDottedPath checks a fully-qualified override path such as
// "crm_overrides.overrides.crm_lead.CustomCRMLead": at least a module and
// an attribute, each segment an identifier.
func validateDottedPath(path string) error {
	if path == "" {
		return fmt.Errorf("dotted path is required")
	}

	segments := strings.Split(path, ".")
	if len(segments) < 2 {
		return fmt.Errorf("dotted path %q needs at least a module and an attribute", path)
	}
	for _, segment := range segments {
		if !identPattern.MatchString(segment) {
			return fmt.Errorf("dotted path %q has an invalid segment %q", path, segment)
		}
	}
	return nil
}

// splitDottedPath splits a dotted path into the module part (everything
// before the final attribute) and the attribute itself.
func splitDottedPath(path string) (module string, attr string) {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return "", path
	}
	return path[:idx], path[idx+1:]
}
