package logic

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/TeaSui/whitelist-contracts/internal/model"
	"gorm.io/gorm"
)

// PurchaseRecordLogic 购买台账业务逻辑
type PurchaseRecordLogic struct {
	db *gorm.DB
}

// NewPurchaseRecordLogic 创建购买台账业务逻辑
func NewPurchaseRecordLogic(db *gorm.DB) *PurchaseRecordLogic {
	return &PurchaseRecordLogic{db: db}
}

// GetPurchaseByAddress 根据地址查询购买台账
func (p *PurchaseRecordLogic) GetPurchaseByAddress(address string) (*model.PurchaseModel, error) {
	var record model.PurchaseModel
	if err := p.db.Where("address = ?", address).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("购买记录不存在")
		}
		return nil, fmt.Errorf("查询购买记录失败: %w", err)
	}
	return &record, nil
}

// GetPurchases 分页获取购买台账
func (p *PurchaseRecordLogic) GetPurchases(page, pageSize int) ([]model.PurchaseModel, int64, error) {
	var records []model.PurchaseModel
	var total int64

	if err := p.db.Model(&model.PurchaseModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取购买记录总数失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := p.db.Offset(offset).Limit(pageSize).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("获取购买记录列表失败: %w", err)
	}

	return records, total, nil
}

// GetPurchaseStats 获取购买统计信息
func (p *PurchaseRecordLogic) GetPurchaseStats() (map[string]interface{}, error) {
	var totalBuyers int64
	if err := p.db.Model(&model.PurchaseModel{}).Count(&totalBuyers).Error; err != nil {
		return nil, fmt.Errorf("获取购买人数失败: %w", err)
	}

	var claimedCount int64
	if err := p.db.Model(&model.PurchaseModel{}).
		Where("claimed = ?", true).Count(&claimedCount).Error; err != nil {
		return nil, fmt.Errorf("获取已领取人数失败: %w", err)
	}

	// 金额以十进制字符串存储，汇总在Go侧完成
	var records []model.PurchaseModel
	if err := p.db.Select("amount", "paid_amount").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("获取购买金额失败: %w", err)
	}

	totalSold := big.NewInt(0)
	totalRaised := big.NewInt(0)
	for _, record := range records {
		if v, ok := new(big.Int).SetString(record.Amount, 10); ok {
			totalSold.Add(totalSold, v)
		}
		if v, ok := new(big.Int).SetString(record.PaidAmount, 10); ok {
			totalRaised.Add(totalRaised, v)
		}
	}

	return map[string]interface{}{
		"total_buyers":    totalBuyers,
		"claimed_count":   claimedCount,
		"unclaimed_count": totalBuyers - claimedCount,
		"total_sold":      totalSold.String(),
		"total_raised":    totalRaised.String(),
	}, nil
}
