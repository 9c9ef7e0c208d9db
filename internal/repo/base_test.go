package repo

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/florezcook/orders-backend/pkg/pagination"
)

type row struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "repo.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&row{}))
	return conn
}

func TestBaseDB_BindsContext(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "value")
	withCtx := base.DB(ctx)
	require.NotNil(t, withCtx.Statement)
	assert.Equal(t, ctx, withCtx.Statement.Context)

	assert.Same(t, db, base.DB(nil))
}

func TestBaseWithTx(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	assert.Same(t, db, base.WithTx(nil).db)

	tx := db.Begin()
	defer tx.Rollback()
	assert.Same(t, tx, base.WithTx(tx).db)
}

func TestPaginateScope(t *testing.T) {
	db := newTestDB(t)
	for i := 1; i <= 7; i++ {
		require.NoError(t, db.Create(&row{Name: "r"}).Error)
	}

	var rows []row
	params := pagination.Params{Page: 2, PerPage: 3}.Normalize(3)
	require.NoError(t, db.Scopes(Paginate(params)).Order("id").Find(&rows).Error)
	require.Len(t, rows, 3)
	assert.Equal(t, 4, rows[0].ID)

	params = pagination.Params{Page: 3, PerPage: 3}.Normalize(3)
	require.NoError(t, db.Scopes(Paginate(params)).Order("id").Find(&rows).Error)
	assert.Len(t, rows, 1)
}
