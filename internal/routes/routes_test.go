//go:build unit

package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_Reverse(t *testing.T) {
	table := Default()

	tests := []struct {
		name          string
		route         string
		args          []string
		expected      string
		expectedError string
	}{
		{
			name:     "search route",
			route:    GitLabSearch,
			args:     []string{"acme", "12"},
			expected: "/extensions/gitlab/search/acme/12/",
		},
		{
			name:     "arguments are path escaped",
			route:    GroupExternals,
			args:     []string{"a b", "7"},
			expected: "/organizations/a%20b/groups/7/external-issues",
		},
		{
			name:          "unknown route",
			route:         "nope",
			expectedError: `no route named "nope"`,
		},
		{
			name:          "wrong arity",
			route:         GitLabSearch,
			args:          []string{"acme"},
			expectedError: "takes 2 arguments, got 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.Reverse(tt.route, tt.args...)
			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestTable_Pattern(t *testing.T) {
	table := Default()

	assert.Equal(t, "GET /extensions/gitlab/search/{org_slug}/{integration_id}/{$}", table.Pattern("GET", GitLabSearch))
	assert.Equal(t, "/organizations/{org_slug}/groups/{group_id}/external-issues", table.Pattern("", GroupExternals))
}
