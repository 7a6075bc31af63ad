package hooks

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// hooksTemplate renders the framework-readable hooks.py. Map entries are
// pre-sorted so the output is byte-stable across runs.
const hooksTemplate = `# Generated by crmdev from crmdev.yaml. Do not edit by hand.
app_name = "{{ .AppName }}"
app_title = "{{ .AppTitle }}"
app_publisher = "{{ .AppPublisher }}"
app_description = "{{ .AppDescription }}"
app_email = "{{ .AppEmail }}"
app_license = "{{ .AppLicense }}"
{{ if .ClassOverrides }}
# Replace stock document controllers.
override_doctype_class = {
{{- range .ClassOverrides }}
    "{{ .Key }}": "{{ .Target }}",
{{- end }}
}
{{ end }}{{ if .MethodOverrides }}
# Replace whitelisted server methods.
override_whitelisted_methods = {
{{- range .MethodOverrides }}
    "{{ .Key }}": "{{ .Target }}",
{{- end }}
}
{{ end }}{{ if .RouteRules }}
website_route_rules = [
{{- range .RouteRules }}
    {"from_route": "{{ .From }}", "to_route": "{{ .To }}"},
{{- end }}
]
{{ end }}`

// mapping is one sorted key/target pair of a registry map.
type mapping struct {
	Key    string
	Target string
}

// templateData is the pre-escaped, pre-sorted view of a Registry.
type templateData struct {
	AppName         string
	AppTitle        string
	AppPublisher    string
	AppDescription  string
	AppEmail        string
	AppLicense      string
	ClassOverrides  []mapping
	MethodOverrides []mapping
	RouteRules      []RouteRule
}

// Render produces the hooks.py content for a validated registry. The
// output is deterministic: registry maps are emitted in key order.
func Render(reg *Registry) ([]byte, error) {
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid hook registry: %w", err)
	}

	data := templateData{
		AppName:         escapePy(reg.App.Name),
		AppTitle:        escapePy(reg.App.Title),
		AppPublisher:    escapePy(reg.App.Publisher),
		AppDescription:  escapePy(reg.App.Description),
		AppEmail:        escapePy(reg.App.Email),
		AppLicense:      escapePy(reg.App.License),
		ClassOverrides:  sortedMappings(reg.ClassOverrides),
		MethodOverrides: sortedMappings(reg.MethodOverrides),
	}
	for _, rule := range reg.RouteRules {
		data.RouteRules = append(data.RouteRules, RouteRule{
			From: escapePy(rule.From),
			To:   escapePy(rule.To),
		})
	}

	tmpl, err := template.New("hooks").Parse(hooksTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse hooks template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render hooks: %w", err)
	}
	return buf.Bytes(), nil
}

// sortedMappings returns the map entries sorted by key.
func sortedMappings(m map[string]string) []mapping {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	mappings := make([]mapping, 0, len(keys))
	for _, key := range keys {
		mappings = append(mappings, mapping{
			Key:    escapePy(key),
			Target: escapePy(m[key]),
		})
	}
	return mappings
}

// escapePy escapes a value for use inside a double-quoted Python string.
func escapePy(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
