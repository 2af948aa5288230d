package stores

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/marisol-apps/pantrylog-backend/pkg/db/models"
	pkgerrors "github.com/marisol-apps/pantrylog-backend/pkg/errors"
	"github.com/marisol-apps/pantrylog-backend/pkg/observe"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Store{}))
	return NewRepository(db, observe.NewBus())
}

func TestGetOrCreateByNameReusesExisting(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.GetOrCreateByName(ctx, "user-1", "Mercado Central")
	require.NoError(t, err)

	second, err := repo.GetOrCreateByName(ctx, "user-1", "mercado central")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	all, err := repo.ListForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestGetOrCreateByNameScopedPerUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mine, err := repo.GetOrCreateByName(ctx, "user-1", "Mercado Central")
	require.NoError(t, err)
	theirs, err := repo.GetOrCreateByName(ctx, "user-2", "Mercado Central")
	require.NoError(t, err)
	require.NotEqual(t, mine.ID, theirs.ID)
}

func TestGetOrCreateByNameRejectsBlank(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.GetOrCreateByName(ctx, "user-1", "   ")
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestFindByNameReturnsNilWhenAbsent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	store, err := repo.FindByName(ctx, "user-1", "Nowhere")
	require.NoError(t, err)
	require.Nil(t, store)
}
