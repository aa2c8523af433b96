package db

import (
	"testing"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed_Idempotent(t *testing.T) {
	testDB, err := SetupTestDB()
	require.NoError(t, err)
	defer CleanupTestDB(testDB)

	require.NoError(t, Seed(testDB))
	require.NoError(t, Seed(testDB))

	var count int64
	testDB.Model(&model.Store{}).Count(&count)
	assert.Equal(t, int64(1), count)

	var store model.Store
	require.NoError(t, testDB.First(&store, "id = ?", DemoStoreID).Error)
	assert.True(t, store.CashOnDeliveryEnabled)
	assert.True(t, store.WalletTransferAEnabled)
	assert.False(t, store.WalletTransferBEnabled)
}
