// Package routes holds the named URL patterns of the service. The same table
// registers handlers on the mux and reverses names into paths, so links handed
// to the UI always point at a route that exists.
package routes

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Route names
const (
	GitLabSearch   = "extensions-gitlab-search"
	GroupIssue     = "group-integration-issue"
	GroupExternals = "group-external-issues"
)

var placeholder = regexp.MustCompile(`\{[a-z_]+\}`)

// Reverser resolves a named route to a URL path
type Reverser interface {
	Reverse(name string, args ...string) (string, error)
}

// Table maps route names to path patterns such as /a/{org_slug}/b/
type Table map[string]string

// Default returns the routes served by the HTTP layer
func Default() Table {
	return Table{
		GitLabSearch:   "/extensions/gitlab/search/{org_slug}/{integration_id}/",
		GroupIssue:     "/organizations/{org_slug}/groups/{group_id}/integrations/{integration_id}/",
		GroupExternals: "/organizations/{org_slug}/groups/{group_id}/external-issues",
	}
}

// Reverse substitutes args positionally into the named pattern
func (t Table) Reverse(name string, args ...string) (string, error) {
	pattern, ok := t[name]
	if !ok {
		return "", fmt.Errorf("no route named %q", name)
	}

	holes := placeholder.FindAllString(pattern, -1)
	if len(holes) != len(args) {
		return "", fmt.Errorf("route %q takes %d arguments, got %d", name, len(holes), len(args))
	}

	i := 0
	return placeholder.ReplaceAllStringFunc(pattern, func(string) string {
		arg := url.PathEscape(args[i])
		i++
		return arg
	}), nil
}

// Pattern returns the net/http ServeMux pattern for the named route, with the
// method prefix (e.g. "GET /a/{org_slug}/"). Trailing-slash patterns are
// anchored with {$} so they do not swallow sub-paths.
func (t Table) Pattern(method, name string) string {
	pattern := t[name]
	if strings.HasSuffix(pattern, "/") {
		pattern += "{$}"
	}
	if method == "" {
		return pattern
	}
	return method + " " + pattern
}
