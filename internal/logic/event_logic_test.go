package logic

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

func TestCreateEventRequiresKind(t *testing.T) {
	logic := NewEventLogic(newTestDB(t))

	err := logic.CreateEvent(&model.SaleEventModel{})
	assert.Error(t, err)
}

func TestCreateEventDeduplicatesChainEvents(t *testing.T) {
	logic := NewEventLogic(newTestDB(t))

	event := &model.SaleEventModel{
		Kind:     model.EventKindTokensPurchased,
		TxHash:   "0xaaa",
		LogIndex: 3,
	}
	require.NoError(t, logic.CreateEvent(event))

	dup := &model.SaleEventModel{
		Kind:     model.EventKindTokensPurchased,
		TxHash:   "0xaaa",
		LogIndex: 3,
	}
	err := logic.CreateEvent(dup)
	require.Error(t, err)
	assert.Equal(t, "事件已存在", err.Error())

	// 同一交易的不同日志索引不算重复
	other := &model.SaleEventModel{
		Kind:     model.EventKindTokensPurchased,
		TxHash:   "0xaaa",
		LogIndex: 4,
	}
	assert.NoError(t, logic.CreateEvent(other))
}

func TestCreateEventAllowsEngineEventsWithoutTxHash(t *testing.T) {
	logic := NewEventLogic(newTestDB(t))

	// 引擎事件没有交易哈希，不参与去重
	require.NoError(t, logic.CreateEvent(&model.SaleEventModel{Kind: model.EventKindPurchase}))
	require.NoError(t, logic.CreateEvent(&model.SaleEventModel{Kind: model.EventKindPurchase}))

	_, total, err := logic.GetEvents("", "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestGetEventsFiltersByKindAndAddress(t *testing.T) {
	logic := NewEventLogic(newTestDB(t))

	addr := common.HexToAddress("0x01").Hex()
	require.NoError(t, logic.CreateEvent(&model.SaleEventModel{Kind: model.EventKindPurchase, Address: addr}))
	require.NoError(t, logic.CreateEvent(&model.SaleEventModel{Kind: model.EventKindClaim, Address: addr}))
	require.NoError(t, logic.CreateEvent(&model.SaleEventModel{Kind: model.EventKindPurchase, Address: common.HexToAddress("0x02").Hex()}))

	events, total, err := logic.GetEvents(model.EventKindPurchase, addr, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, events, 1)
	assert.Equal(t, addr, events[0].Address)
}

func TestGetLastProcessedBlock(t *testing.T) {
	logic := NewEventLogic(newTestDB(t))

	blockNum, err := logic.GetLastProcessedBlock()
	require.NoError(t, err)
	assert.Equal(t, int64(0), blockNum)

	require.NoError(t, logic.CreateEvent(&model.SaleEventModel{
		Kind: model.EventKindTokensPurchased, TxHash: "0x01", BlockNum: 100,
	}))
	require.NoError(t, logic.CreateEvent(&model.SaleEventModel{
		Kind: model.EventKindTokensClaimed, TxHash: "0x02", BlockNum: 250,
	}))
	// 引擎事件无交易哈希，不计入监控进度
	require.NoError(t, logic.CreateEvent(&model.SaleEventModel{
		Kind: model.EventKindPurchase, BlockNum: 999,
	}))

	blockNum, err = logic.GetLastProcessedBlock()
	require.NoError(t, err)
	assert.Equal(t, int64(250), blockNum)
}

func TestEventSinkPersistsEngineEvents(t *testing.T) {
	db := newTestDB(t)
	logic := NewEventLogic(db)

	buyer := common.HexToAddress("0x03")
	logic.OnPurchase(sale.PurchaseEvent{
		Buyer:     buyer,
		Amount:    big.NewInt(30),
		Payment:   big.NewInt(60),
		Timestamp: 1500,
	})
	logic.OnClaim(sale.ClaimEvent{
		Claimer:   buyer,
		Amount:    big.NewInt(30),
		Timestamp: 1900,
	})

	var events []model.SaleEventModel
	require.NoError(t, db.Order("id ASC").Find(&events).Error)
	require.Len(t, events, 2)
	assert.Equal(t, model.EventKindPurchase, events[0].Kind)
	assert.Equal(t, "30", events[0].Amount)
	assert.Equal(t, "60", events[0].Payment)
	assert.Equal(t, model.EventKindClaim, events[1].Kind)
	assert.Equal(t, int64(1900), events[1].Timestamp)
}
