package logic

import (
	"errors"
	"fmt"

	"github.com/TeaSui/whitelist-contracts/internal/logger"
	"github.com/TeaSui/whitelist-contracts/internal/model"
	"github.com/TeaSui/whitelist-contracts/internal/sale"
	"gorm.io/gorm"
)

// EventLogic 事件业务逻辑，同时实现 sale.EventSink 将引擎事件落库
type EventLogic struct {
	db *gorm.DB
}

// NewEventLogic 创建事件业务逻辑
func NewEventLogic(db *gorm.DB) *EventLogic {
	return &EventLogic{db: db}
}

// CreateEvent 创建事件记录，链上事件按 tx_hash+log_index 去重
func (e *EventLogic) CreateEvent(event *model.SaleEventModel) error {
	if event.Kind == "" {
		return errors.New("事件类型不能为空")
	}

	if event.TxHash != "" {
		var existing model.SaleEventModel
		if err := e.db.Where("tx_hash = ? AND log_index = ?", event.TxHash, event.LogIndex).
			First(&existing).Error; err == nil {
			return errors.New("事件已存在")
		}
	}

	if err := e.db.Create(event).Error; err != nil {
		return fmt.Errorf("创建事件记录失败: %w", err)
	}
	return nil
}

// GetEvents 获取事件列表
func (e *EventLogic) GetEvents(kind, address string, page, pageSize int) ([]model.SaleEventModel, int64, error) {
	var events []model.SaleEventModel
	var total int64

	query := e.db.Model(&model.SaleEventModel{})
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if address != "" {
		query = query.Where("address = ?", address)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取事件总数失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("获取事件列表失败: %w", err)
	}

	return events, total, nil
}

// GetLastProcessedBlock 获取已处理链上事件的最大区块号
func (e *EventLogic) GetLastProcessedBlock() (int64, error) {
	var blockNum int64
	err := e.db.Model(&model.SaleEventModel{}).
		Where("tx_hash <> ''").
		Select("COALESCE(MAX(block_num), 0)").
		Scan(&blockNum).Error
	if err != nil {
		return 0, fmt.Errorf("获取最后处理区块失败: %w", err)
	}
	return blockNum, nil
}

// UpdateEventProcessed 更新事件处理状态
func (e *EventLogic) UpdateEventProcessed(id int64, processed bool) error {
	if err := e.db.Model(&model.SaleEventModel{}).Where("id = ?", id).
		Update("processed", processed).Error; err != nil {
		return fmt.Errorf("更新事件处理状态失败: %w", err)
	}
	return nil
}

// OnPurchase 实现 sale.EventSink，持久化引擎购买事件
func (e *EventLogic) OnPurchase(ev sale.PurchaseEvent) {
	event := &model.SaleEventModel{
		Kind:      model.EventKindPurchase,
		Address:   ev.Buyer.Hex(),
		Amount:    ev.Amount.String(),
		Payment:   ev.Payment.String(),
		Timestamp: ev.Timestamp,
		Processed: true,
	}
	if err := e.db.Create(event).Error; err != nil {
		logger.Error("Failed to persist purchase event for %s: %v", ev.Buyer.Hex(), err)
	}
}

// OnClaim 实现 sale.EventSink，持久化引擎领取事件
func (e *EventLogic) OnClaim(ev sale.ClaimEvent) {
	event := &model.SaleEventModel{
		Kind:      model.EventKindClaim,
		Address:   ev.Claimer.Hex(),
		Amount:    ev.Amount.String(),
		Timestamp: ev.Timestamp,
		Processed: true,
	}
	if err := e.db.Create(event).Error; err != nil {
		logger.Error("Failed to persist claim event for %s: %v", ev.Claimer.Hex(), err)
	}
}
