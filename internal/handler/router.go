package handler

import (
	"net/http"

	"gitlab-issue-bridge/internal/routes"
)

// Middleware wraps a handler
type Middleware func(http.Handler) http.Handler

// chain applies middleware so that the first one is outermost
func chain(h http.HandlerFunc, middleware []Middleware) http.Handler {
	var handler http.Handler = h
	for i := len(middleware) - 1; i >= 0; i-- {
		handler = middleware[i](handler)
	}
	return handler
}

// RegisterIssueRoutes mounts the issue endpoints on mux using the named
// route table
func RegisterIssueRoutes(mux *http.ServeMux, table routes.Table, issues IssueHandler, middleware ...Middleware) {
	mux.Handle(table.Pattern("", routes.GroupIssue), chain(issues.HandleGroupIntegration, middleware))
	mux.Handle(table.Pattern("", routes.GitLabSearch), chain(issues.HandleSearch, middleware))
	mux.Handle(table.Pattern("", routes.GroupExternals), chain(issues.HandleExternalIssues, middleware))
}

// RegisterHealthRoutes mounts the liveness and readiness probes
func RegisterHealthRoutes(mux *http.ServeMux, health *HealthHandler, middleware ...Middleware) {
	mux.Handle("/health", chain(health.HandleHealth, middleware))
	mux.Handle("/ready", chain(health.HandleReady, middleware))
}
