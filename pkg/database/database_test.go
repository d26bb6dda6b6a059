package database

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-bookstore-ws/internal/model"
)

func TestConnectSQLiteAndMigrate(t *testing.T) {
	db, err := ConnectSQLite("file:migrate_test?mode=memory&cache=shared", logrus.New())
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, table := range []any{&model.Book{}, &model.StockLog{}, &model.Invoice{}, &model.InvoiceItem{}, &model.InvoicePayment{}, &model.LedgerEntry{}, &model.Customer{}, &model.User{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}
}
