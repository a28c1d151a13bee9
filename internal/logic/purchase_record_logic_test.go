package logic

import (
	"testing"

	"github.com/TeaSui/whitelist-contracts/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPurchases(t *testing.T, logic *PurchaseRecordLogic) {
	t.Helper()
	rows := []model.PurchaseModel{
		{Address: common.HexToAddress("0x01").Hex(), Amount: "30", PaidAmount: "60", Claimed: true},
		{Address: common.HexToAddress("0x02").Hex(), Amount: "20", PaidAmount: "40"},
		{Address: common.HexToAddress("0x03").Hex(), Amount: "50", PaidAmount: "100"},
	}
	for i := range rows {
		require.NoError(t, logic.db.Create(&rows[i]).Error)
	}
}

func TestGetPurchaseByAddress(t *testing.T) {
	logic := NewPurchaseRecordLogic(newTestDB(t))
	seedPurchases(t, logic)

	record, err := logic.GetPurchaseByAddress(common.HexToAddress("0x01").Hex())
	require.NoError(t, err)
	assert.Equal(t, "30", record.Amount)
	assert.True(t, record.Claimed)

	_, err = logic.GetPurchaseByAddress(common.HexToAddress("0xff").Hex())
	require.Error(t, err)
	assert.Equal(t, "购买记录不存在", err.Error())
}

func TestGetPurchasesPagination(t *testing.T) {
	logic := NewPurchaseRecordLogic(newTestDB(t))
	seedPurchases(t, logic)

	records, total, err := logic.GetPurchases(1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, records, 2)

	records, _, err = logic.GetPurchases(2, 2)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestGetPurchaseStats(t *testing.T) {
	logic := NewPurchaseRecordLogic(newTestDB(t))
	seedPurchases(t, logic)

	stats, err := logic.GetPurchaseStats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats["total_buyers"])
	assert.Equal(t, int64(1), stats["claimed_count"])
	assert.Equal(t, int64(2), stats["unclaimed_count"])
	assert.Equal(t, "100", stats["total_sold"])
	assert.Equal(t, "200", stats["total_raised"])
}
