package migrate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{
		"0001_contact_messages.sql",
		"0002_content_items.sql",
		"0003_seed_content.sql",
	}, names)

	seed, err := migrationsFS.ReadFile("migrations/0003_seed_content.sql")
	require.NoError(t, err)
	assert.Equal(t, 10, strings.Count(string(seed), "('0"))
}
