package monitor

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/TeaSui/whitelist-contracts/internal/chain"
	"github.com/TeaSui/whitelist-contracts/internal/logic"
	"github.com/TeaSui/whitelist-contracts/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"gorm.io/gorm"
)

// EventProcessor 将解析后的链上事件转换为事件日志记录
type EventProcessor struct {
	events *logic.EventLogic
}

// NewEventProcessor 创建事件处理器
func NewEventProcessor(db *gorm.DB) *EventProcessor {
	return &EventProcessor{
		events: logic.NewEventLogic(db),
	}
}

// ProcessEvent 处理单条链上事件，按 tx_hash+log_index 幂等
func (p *EventProcessor) ProcessEvent(contract *chain.Contract, log types.Log, eventData map[string]interface{}) error {
	eventName, _ := eventData["eventName"].(string)
	if eventName == "" || eventName == "Unknown" {
		return nil
	}

	dataJSON, err := json.Marshal(eventData)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	event := &model.SaleEventModel{
		Kind:     kindForEvent(eventName),
		TxHash:   log.TxHash.Hex(),
		BlockNum: int64(log.BlockNumber),
		LogIndex: int64(log.Index),
		Contract: contract.GetName(),
		Data:     string(dataJSON),
	}

	// 提取常见字段
	if addr := extractAddress(eventData, "buyer", "claimer", "account", "to"); addr != (common.Address{}) {
		event.Address = addr.Hex()
	}
	if amount, ok := extractBig(eventData, "amount", "value"); ok {
		event.Amount = amount.String()
	}
	if payment, ok := extractBig(eventData, "payment"); ok {
		event.Payment = payment.String()
	}
	if ts, ok := extractBig(eventData, "timestamp"); ok {
		event.Timestamp = ts.Int64()
	}

	if err := p.events.CreateEvent(event); err != nil {
		// 重复事件在重放时属正常情况
		if err.Error() == "事件已存在" {
			return nil
		}
		return err
	}
	return nil
}

// kindForEvent 链上事件名到事件类型的映射
func kindForEvent(eventName string) string {
	switch eventName {
	case "TokensPurchased":
		return model.EventKindTokensPurchased
	case "TokensClaimed":
		return model.EventKindTokensClaimed
	case "WhitelistUpdated":
		return model.EventKindWhitelistUpdated
	default:
		return eventName
	}
}

// extractAddress 按候选键提取地址参数
func extractAddress(eventData map[string]interface{}, keys ...string) common.Address {
	for _, key := range keys {
		if v, ok := eventData[key]; ok {
			if addr, ok := v.(common.Address); ok {
				return addr
			}
		}
	}
	return common.Address{}
}

// extractBig 按候选键提取数值参数
func extractBig(eventData map[string]interface{}, keys ...string) (*big.Int, bool) {
	for _, key := range keys {
		if v, ok := eventData[key]; ok {
			if n, ok := v.(*big.Int); ok {
				return n, true
			}
		}
	}
	return nil, false
}
