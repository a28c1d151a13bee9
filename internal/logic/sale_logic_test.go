package logic

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/TeaSui/whitelist-contracts/internal/config"
	"github.com/TeaSui/whitelist-contracts/internal/model"
	"github.com/TeaSui/whitelist-contracts/internal/repository"
	"github.com/TeaSui/whitelist-contracts/internal/sale"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeTransferor struct {
	tokenCalls  int
	nativeCalls int
}

func (f *fakeTransferor) TransferToken(ctx context.Context, token, to common.Address, amount *big.Int) error {
	f.tokenCalls++
	return nil
}

func (f *fakeTransferor) SendNative(ctx context.Context, to common.Address, amount *big.Int) error {
	f.nativeCalls++
	return nil
}

var (
	testOwner    = common.HexToAddress("0x0000000000000000000000000000000000000aa1")
	testTreasury = common.HexToAddress("0x0000000000000000000000000000000000000bb2")
	testToken    = common.HexToAddress("0x0000000000000000000000000000000000000cc3")
	testBuyer    = common.HexToAddress("0x0000000000000000000000000000000000000dd4")
)

func testSaleConfig() *config.SaleConfig {
	return &config.SaleConfig{
		OwnerAddress:      testOwner.Hex(),
		TreasuryAddress:   testTreasury.Hex(),
		TokenAddress:      testToken.Hex(),
		TokenDecimals:     0,
		TokenPrice:        "2",
		MinPurchase:       "10",
		MaxPurchase:       "50",
		MaxSupply:         "100",
		StartTime:         1000,
		EndTime:           2000,
		WhitelistRequired: false,
	}
}

func newTestSaleLogic(t *testing.T, db *gorm.DB) (*SaleLogic, *fakeTransferor) {
	t.Helper()
	fake := &fakeTransferor{}
	repo := repository.NewSaleRepository(db)
	events := NewEventLogic(db)
	engine, err := Bootstrap(testSaleConfig(), repo, sale.Dependencies{
		Tokens: fake,
		Native: fake,
		Events: events,
		Now:    func() time.Time { return time.Unix(1500, 0) },
	})
	require.NoError(t, err)
	return NewSaleLogic(engine, repo, events), fake
}

func TestBootstrapPersistsInitialConfig(t *testing.T) {
	db := newTestDB(t)
	newTestSaleLogic(t, db)

	var row model.SaleConfigModel
	require.NoError(t, db.Where("active = ?", true).First(&row).Error)
	assert.Equal(t, "100", row.MaxSupply)
	assert.Equal(t, int64(1000), row.StartTime)
	assert.False(t, row.ClaimEnabled)
}

func TestBootstrapRestoresFromSnapshot(t *testing.T) {
	db := newTestDB(t)
	logic, _ := newTestSaleLogic(t, db)

	_, err := logic.Buy(context.Background(), testBuyer, big.NewInt(30), big.NewInt(60), nil)
	require.NoError(t, err)

	// 二次引导应从台账恢复总量，而不是重新初始化
	restored, fake := newTestSaleLogic(t, db)
	assert.Equal(t, 0, fake.nativeCalls)

	status := restored.Status()
	assert.Equal(t, "30", status.TotalSold)
	assert.Equal(t, "60", status.TotalRaised)
	assert.Equal(t, "70", status.RemainingSupply)
}

func TestBuyPersistsLedger(t *testing.T) {
	db := newTestDB(t)
	logic, fake := newTestSaleLogic(t, db)

	receipt, err := logic.Buy(context.Background(), testBuyer, big.NewInt(20), big.NewInt(40), nil)
	require.NoError(t, err)
	assert.Equal(t, "20", receipt.Amount.String())
	assert.Equal(t, "40", receipt.Payment.String())
	assert.Equal(t, 1, fake.nativeCalls) // 无多余支付，仅转发金库

	var row model.PurchaseModel
	require.NoError(t, db.Where("address = ?", testBuyer.Hex()).First(&row).Error)
	assert.Equal(t, "20", row.Amount)
	assert.Equal(t, "40", row.PaidAmount)
	assert.False(t, row.Claimed)

	// 引擎购买事件同步落库
	var count int64
	require.NoError(t, db.Model(&model.SaleEventModel{}).
		Where("kind = ?", model.EventKindPurchase).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestBuyRejectionDoesNotTouchLedger(t *testing.T) {
	db := newTestDB(t)
	logic, _ := newTestSaleLogic(t, db)

	_, err := logic.Buy(context.Background(), testBuyer, big.NewInt(5), big.NewInt(10), nil)
	assert.ErrorIs(t, err, sale.ErrBelowMinimum)

	var count int64
	require.NoError(t, db.Model(&model.PurchaseModel{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestClaimPersistsLatch(t *testing.T) {
	db := newTestDB(t)
	logic, fake := newTestSaleLogic(t, db)

	_, err := logic.Buy(context.Background(), testBuyer, big.NewInt(20), big.NewInt(40), nil)
	require.NoError(t, err)
	require.NoError(t, logic.SetClaimEnabled(testOwner, true, 1400))

	amount, err := logic.Claim(context.Background(), testBuyer)
	require.NoError(t, err)
	assert.Equal(t, "20", amount.String())
	assert.Equal(t, 1, fake.tokenCalls)

	var row model.PurchaseModel
	require.NoError(t, db.Where("address = ?", testBuyer.Hex()).First(&row).Error)
	assert.True(t, row.Claimed)

	_, err = logic.Claim(context.Background(), testBuyer)
	assert.ErrorIs(t, err, sale.ErrAlreadyClaimed)
}

func TestUpdateSaleConfigPersistsNewVersion(t *testing.T) {
	db := newTestDB(t)
	logic, _ := newTestSaleLogic(t, db)

	cfg := sale.Config{
		TokenPrice:        big.NewInt(3),
		MinPurchase:       big.NewInt(5),
		MaxPurchase:       big.NewInt(60),
		MaxSupply:         big.NewInt(200),
		StartTime:         1000,
		EndTime:           3000,
		WhitelistRequired: true,
	}
	require.NoError(t, logic.UpdateSaleConfig(testOwner, cfg))

	var rows []model.SaleConfigModel
	require.NoError(t, db.Order("id ASC").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.False(t, rows[0].Active)
	assert.True(t, rows[1].Active)
	assert.Equal(t, "200", rows[1].MaxSupply)

	// 非所有者调用被拒绝，不产生新版本
	err := logic.UpdateSaleConfig(testBuyer, cfg)
	assert.ErrorIs(t, err, sale.ErrNotOwner)
}

func TestWhitelistChangesPersist(t *testing.T) {
	db := newTestDB(t)
	logic, _ := newTestSaleLogic(t, db)

	addr := common.HexToAddress("0x0000000000000000000000000000000000000ee5")
	require.NoError(t, logic.UpdateWhitelist(testOwner, addr, true))

	var count int64
	require.NoError(t, db.Model(&model.WhitelistEntryModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	whitelisted, eligible := logic.CheckEligibility(addr, nil)
	assert.True(t, whitelisted)
	assert.True(t, eligible)

	require.NoError(t, logic.UpdateWhitelist(testOwner, addr, false))
	require.NoError(t, db.Model(&model.WhitelistEntryModel{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestQuoteMatchesEnginePricing(t *testing.T) {
	db := newTestDB(t)
	logic, _ := newTestSaleLogic(t, db)

	assert.Equal(t, "40", logic.Quote(big.NewInt(20)).String())
}
