package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsAreEmbeddedInOrder(t *testing.T) {
	names, err := migrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "0001_init.sql", names[0])
	assert.IsIncreasing(t, names)
}

func TestInitMigrationEnforcesWriteOnceTerms(t *testing.T) {
	content, err := migrationFiles.ReadFile("migrations/0001_init.sql")
	require.NoError(t, err)
	assert.Contains(t, string(content), "CONSTRAINT terms_agreements_match_key UNIQUE (match_id)")
	assert.Contains(t, string(content), "CONSTRAINT matches_user_seller_key UNIQUE (user_id, seller_id)")
}
