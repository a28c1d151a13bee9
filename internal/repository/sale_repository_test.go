package repository

import (
	"math/big"
	"testing"

	"github.com/TeaSui/whitelist-contracts/internal/model"
	"github.com/TeaSui/whitelist-contracts/internal/sale"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.SaleConfigModel{},
		&model.PurchaseModel{},
		&model.WhitelistEntryModel{},
		&model.SaleEventModel{},
	))
	return db
}

func testConfig() sale.Config {
	return sale.Config{
		TokenPrice:        big.NewInt(2),
		MinPurchase:       big.NewInt(10),
		MaxPurchase:       big.NewInt(50),
		MaxSupply:         big.NewInt(100),
		StartTime:         1000,
		EndTime:           2000,
		WhitelistRequired: true,
	}
}

func TestLoadSnapshotEmpty(t *testing.T) {
	repo := NewSaleRepository(newTestDB(t))

	_, ok, err := repo.LoadSnapshot()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveConfigDeactivatesOldRow(t *testing.T) {
	db := newTestDB(t)
	repo := NewSaleRepository(db)

	require.NoError(t, repo.SaveConfig(testConfig(), false, 0, common.Hash{}))

	updated := testConfig()
	updated.MaxSupply = big.NewInt(200)
	require.NoError(t, repo.SaveConfig(updated, true, 1500, common.HexToHash("0xabcd")))

	var rows []model.SaleConfigModel
	require.NoError(t, db.Order("id ASC").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.False(t, rows[0].Active)
	assert.True(t, rows[1].Active)
	assert.Equal(t, "200", rows[1].MaxSupply)
	assert.True(t, rows[1].ClaimEnabled)
	assert.Equal(t, int64(1500), rows[1].ClaimStartTime)
}

func TestSnapshotRoundTrip(t *testing.T) {
	repo := NewSaleRepository(newTestDB(t))

	require.NoError(t, repo.SaveConfig(testConfig(), true, 1800, common.HexToHash("0x01")))

	alice := common.HexToAddress("0xa1ce")
	bob := common.HexToAddress("0xb0b0")
	require.NoError(t, repo.UpsertPurchase(alice, sale.Purchase{
		Amount:           big.NewInt(30),
		PaidAmount:       big.NewInt(60),
		LastPurchaseTime: 1500,
	}))
	require.NoError(t, repo.UpsertPurchase(bob, sale.Purchase{
		Amount:           big.NewInt(20),
		PaidAmount:       big.NewInt(40),
		LastPurchaseTime: 1600,
		Claimed:          true,
	}))
	require.NoError(t, repo.SetWhitelisted(alice, true, "test"))

	snap, ok, err := repo.LoadSnapshot()
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "100", snap.Config.MaxSupply.String())
	assert.Equal(t, int64(1000), snap.Config.StartTime)
	assert.True(t, snap.Config.WhitelistRequired)
	assert.True(t, snap.ClaimEnabled)
	assert.Equal(t, int64(1800), snap.ClaimStartTime)
	assert.Equal(t, common.HexToHash("0x01"), snap.MerkleRoot)

	assert.Equal(t, "50", snap.TotalSold.String())
	assert.Equal(t, "100", snap.TotalRaised.String())
	require.Len(t, snap.Purchases, 2)
	assert.Equal(t, "30", snap.Purchases[alice].Amount.String())
	assert.True(t, snap.Purchases[bob].Claimed)

	require.Len(t, snap.Whitelist, 1)
	assert.Equal(t, alice, snap.Whitelist[0])
}

func TestUpsertPurchaseUpdatesExistingRow(t *testing.T) {
	db := newTestDB(t)
	repo := NewSaleRepository(db)

	addr := common.HexToAddress("0x01")
	require.NoError(t, repo.UpsertPurchase(addr, sale.Purchase{
		Amount:     big.NewInt(10),
		PaidAmount: big.NewInt(20),
	}))
	require.NoError(t, repo.UpsertPurchase(addr, sale.Purchase{
		Amount:           big.NewInt(25),
		PaidAmount:       big.NewInt(50),
		LastPurchaseTime: 1700,
	}))

	var rows []model.PurchaseModel
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "25", rows[0].Amount)
	assert.Equal(t, "50", rows[0].PaidAmount)
	assert.Equal(t, int64(1700), rows[0].LastPurchaseTime)
}

func TestMarkClaimed(t *testing.T) {
	db := newTestDB(t)
	repo := NewSaleRepository(db)

	addr := common.HexToAddress("0x02")
	require.NoError(t, repo.UpsertPurchase(addr, sale.Purchase{
		Amount:     big.NewInt(10),
		PaidAmount: big.NewInt(20),
	}))
	require.NoError(t, repo.MarkClaimed(addr, "0xdeadbeef"))

	var row model.PurchaseModel
	require.NoError(t, db.Where("address = ?", addr.Hex()).First(&row).Error)
	assert.True(t, row.Claimed)
	assert.Equal(t, "0xdeadbeef", row.ClaimTxHash)
}

func TestSetWhitelistedAddAndRemove(t *testing.T) {
	db := newTestDB(t)
	repo := NewSaleRepository(db)

	addr := common.HexToAddress("0x03")
	require.NoError(t, repo.SetWhitelisted(addr, true, "admin"))
	// 重复添加不产生第二行
	require.NoError(t, repo.SetWhitelisted(addr, true, "admin"))

	var count int64
	require.NoError(t, db.Model(&model.WhitelistEntryModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.SetWhitelisted(addr, false, "admin"))
	require.NoError(t, db.Model(&model.WhitelistEntryModel{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestSetWhitelistedBatch(t *testing.T) {
	db := newTestDB(t)
	repo := NewSaleRepository(db)

	addrs := []common.Address{
		common.HexToAddress("0x04"),
		common.HexToAddress("0x05"),
		common.HexToAddress("0x06"),
	}
	require.NoError(t, repo.SetWhitelistedBatch(addrs, true, "batch"))

	var count int64
	require.NoError(t, db.Model(&model.WhitelistEntryModel{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	require.NoError(t, repo.SetWhitelistedBatch(addrs[:2], false, "batch"))
	require.NoError(t, db.Model(&model.WhitelistEntryModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUpdateClaimSettingsAndMerkleRoot(t *testing.T) {
	db := newTestDB(t)
	repo := NewSaleRepository(db)

	require.NoError(t, repo.SaveConfig(testConfig(), false, 0, common.Hash{}))
	require.NoError(t, repo.UpdateClaimSettings(true, 1900))
	require.NoError(t, repo.UpdateMerkleRoot(common.HexToHash("0xff")))

	var row model.SaleConfigModel
	require.NoError(t, db.Where("active = ?", true).First(&row).Error)
	assert.True(t, row.ClaimEnabled)
	assert.Equal(t, int64(1900), row.ClaimStartTime)
	assert.Equal(t, common.HexToHash("0xff").Hex(), row.MerkleRoot)
}
