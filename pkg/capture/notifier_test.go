package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummary(t *testing.T) {
	status := 200
	assert.Equal(t, "200 GET /users?x=1", Summary("GET", "https://api.example.com/users?x=1", &status))
	assert.Equal(t, "200 GET /users", Summary("GET", "https://api.example.com/users", &status))
	assert.Equal(t, "GET /users", Summary("GET", "https://api.example.com/users", nil))
	assert.Equal(t, "200", Summary("", "https://api.example.com", &status))

	// Nothing to summarize: fall back to the raw URL.
	assert.Equal(t, "https://api.example.com", Summary("", "https://api.example.com", nil))
}
