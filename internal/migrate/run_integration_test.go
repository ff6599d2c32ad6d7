package migrate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShageeshanT/kalyanijewellers/internal/migrate"
	"github.com/ShageeshanT/kalyanijewellers/internal/testutil"
)

func TestRun_IsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	ctx := context.Background()

	res, err := migrate.Run(ctx, db, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Applied, "SetupTestDB already migrated")

	embedded, err := migrate.Embedded()
	require.NoError(t, err)
	assert.Equal(t, embedded[len(embedded)-1].Version, res.Current)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT count(*) FROM credential_schema_versions`).Scan(&n))
	assert.Equal(t, len(embedded), n)
}
