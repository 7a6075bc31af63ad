package hooks

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lethang507/crmdev/internal/fsops"
)

// Issue is one problem found while checking override targets.
type Issue struct {
	// Target is the dotted path the issue is about.
	Target string

	// Problem describes what is wrong.
	Problem string
}

// CheckReport summarizes the static checks of a registry against the
// project tree.
type CheckReport struct {
	// Checked counts the targets whose module file was inspected.
	Checked int

	// Skipped lists targets in other apps that cannot be checked here.
	Skipped []string

	// Issues lists the problems found.
	Issues []Issue
}

// OK reports whether the check found no issues.
func (r *CheckReport) OK() bool {
	return len(r.Issues) == 0
}

// Check runs best-effort static checks on the registry's override
// targets. For targets inside this app (first dotted segment equals the
// app name) the module file must exist under the project root and should
// contain a class or def with the target's attribute name. The scan is
// plain text, not parsing; it catches renames and typos, not semantics.
// Targets in other apps are recorded as skipped.
func Check(fs fsops.FS, projectRoot string, reg *Registry) *CheckReport {
	report := &CheckReport{}

	for _, target := range sortedTargets(reg) {
		segments := strings.Split(target, ".")
		if len(segments) < 2 || segments[0] != reg.App.Name {
			report.Skipped = append(report.Skipped, target)
			continue
		}

		module, attr := splitDottedPath(target)
		modulePath := filepath.Join(projectRoot, filepath.FromSlash(strings.ReplaceAll(module, ".", "/"))+".py")

		exists, err := fs.Exists(modulePath)
		if err != nil {
			report.Issues = append(report.Issues, Issue{
				Target:  target,
				Problem: fmt.Sprintf("cannot check module file: %v", err),
			})
			continue
		}
		if !exists {
			report.Issues = append(report.Issues, Issue{
				Target:  target,
				Problem: fmt.Sprintf("module file %s does not exist", modulePath),
			})
			continue
		}

		report.Checked++

		content, err := fs.ReadFile(modulePath)
		if err != nil {
			report.Issues = append(report.Issues, Issue{
				Target:  target,
				Problem: fmt.Sprintf("cannot read module file: %v", err),
			})
			continue
		}
		if !definesAttr(string(content), attr) {
			report.Issues = append(report.Issues, Issue{
				Target:  target,
				Problem: fmt.Sprintf("%s defines no class or def named %s", modulePath, attr),
			})
		}
	}

	return report
}

// sortedTargets collects all override targets of a registry in a stable
// order.
func sortedTargets(reg *Registry) []string {
	var targets []string
	for _, target := range reg.ClassOverrides {
		targets = append(targets, target)
	}
	for _, target := range reg.MethodOverrides {
		targets = append(targets, target)
	}
	sort.Strings(targets)
	return targets
}

// definesAttr scans python source text for a top-level looking
// "class name" or "def name" definition.
func definesAttr(content, attr string) bool {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		for _, prefix := range []string{"class ", "def "} {
			if !strings.HasPrefix(trimmed, prefix) {
				continue
			}
			rest := strings.TrimPrefix(trimmed, prefix)
			name := rest
			for i, r := range rest {
				if !isIdentRune(r) {
					name = rest[:i]
					break
				}
			}
			if name == attr {
				return true
			}
		}
	}
	return false
}

func isIdentRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
