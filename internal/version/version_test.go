package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNormalize tests version string cleanup.
func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain version", input: "1.2.3", want: "1.2.3"},
		{name: "v prefix stripped", input: "v1.2.3", want: "1.2.3"},
		{name: "pre-release suffix stripped", input: "1.2.3-rc1", want: "1.2.3"},
		{name: "build metadata stripped", input: "1.2.3+build5", want: "1.2.3"},
		{name: "whitespace trimmed", input: " v1.0.0 ", want: "1.0.0"},
		{name: "dev stays dev", input: "dev", want: "dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

// TestUserAgent tests the outbound request identity.
func TestUserAgent(t *testing.T) {
	t.Parallel()

	ua := UserAgent()
	assert.Contains(t, ua, "tonpocket/")
	assert.Contains(t, ua, "/")
}
