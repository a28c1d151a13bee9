package repository

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/TeaSui/whitelist-contracts/internal/model"
	"github.com/TeaSui/whitelist-contracts/internal/sale"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// SaleRepository 引擎状态持久化。配置整体替换时写入新行并激活，
// 购买台账与白名单逐条落库，重启时从数据库恢复引擎状态
type SaleRepository struct {
	db *gorm.DB
}

// NewSaleRepository 创建销售状态仓储
func NewSaleRepository(db *gorm.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

// parseBig 解析十进制字符串金额
func parseBig(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("无效的金额: %q", s)
	}
	return v, nil
}

// LoadSnapshot 从数据库加载引擎快照，无激活配置时返回 ok=false
func (r *SaleRepository) LoadSnapshot() (sale.Snapshot, bool, error) {
	var cfgRow model.SaleConfigModel
	err := r.db.Where("active = ?", true).Order("id DESC").First(&cfgRow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sale.Snapshot{}, false, nil
	}
	if err != nil {
		return sale.Snapshot{}, false, fmt.Errorf("加载销售配置失败: %w", err)
	}

	cfg, err := configFromModel(cfgRow)
	if err != nil {
		return sale.Snapshot{}, false, err
	}

	var purchaseRows []model.PurchaseModel
	if err := r.db.Find(&purchaseRows).Error; err != nil {
		return sale.Snapshot{}, false, fmt.Errorf("加载购买台账失败: %w", err)
	}

	purchases := make(map[common.Address]sale.Purchase, len(purchaseRows))
	totalSold := big.NewInt(0)
	totalRaised := big.NewInt(0)
	for _, row := range purchaseRows {
		amount, err := parseBig(row.Amount)
		if err != nil {
			return sale.Snapshot{}, false, err
		}
		paid, err := parseBig(row.PaidAmount)
		if err != nil {
			return sale.Snapshot{}, false, err
		}
		purchases[common.HexToAddress(row.Address)] = sale.Purchase{
			Amount:           amount,
			PaidAmount:       paid,
			LastPurchaseTime: row.LastPurchaseTime,
			Claimed:          row.Claimed,
		}
		totalSold.Add(totalSold, amount)
		totalRaised.Add(totalRaised, paid)
	}

	var entries []model.WhitelistEntryModel
	if err := r.db.Find(&entries).Error; err != nil {
		return sale.Snapshot{}, false, fmt.Errorf("加载白名单失败: %w", err)
	}
	whitelist := make([]common.Address, 0, len(entries))
	for _, entry := range entries {
		whitelist = append(whitelist, common.HexToAddress(entry.Address))
	}

	return sale.Snapshot{
		Config:         cfg,
		Purchases:      purchases,
		Whitelist:      whitelist,
		MerkleRoot:     common.HexToHash(cfgRow.MerkleRoot),
		TotalSold:      totalSold,
		TotalRaised:    totalRaised,
		ClaimEnabled:   cfgRow.ClaimEnabled,
		ClaimStartTime: cfgRow.ClaimStartTime,
	}, true, nil
}

// SaveConfig 持久化一次配置整体替换：旧行取消激活，插入新的激活行
func (r *SaleRepository) SaveConfig(cfg sale.Config, claimEnabled bool, claimStart int64, root common.Hash) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.SaleConfigModel{}).
			Where("active = ?", true).
			Update("active", false).Error; err != nil {
			return err
		}
		row := model.SaleConfigModel{
			TokenPrice:        cfg.TokenPrice.String(),
			MinPurchase:       cfg.MinPurchase.String(),
			MaxPurchase:       cfg.MaxPurchase.String(),
			MaxSupply:         cfg.MaxSupply.String(),
			StartTime:         cfg.StartTime,
			EndTime:           cfg.EndTime,
			WhitelistRequired: cfg.WhitelistRequired,
			ClaimEnabled:      claimEnabled,
			ClaimStartTime:    claimStart,
			MerkleRoot:        root.Hex(),
			Active:            true,
		}
		return tx.Create(&row).Error
	})
}

// UpdateClaimSettings 更新当前激活配置行的领取设置
func (r *SaleRepository) UpdateClaimSettings(enabled bool, claimStart int64) error {
	return r.db.Model(&model.SaleConfigModel{}).
		Where("active = ?", true).
		Updates(map[string]interface{}{
			"claim_enabled":    enabled,
			"claim_start_time": claimStart,
		}).Error
}

// UpdateMerkleRoot 更新当前激活配置行的默克尔根
func (r *SaleRepository) UpdateMerkleRoot(root common.Hash) error {
	return r.db.Model(&model.SaleConfigModel{}).
		Where("active = ?", true).
		Update("merkle_root", root.Hex()).Error
}

// UpsertPurchase 插入或更新一个地址的购买台账
func (r *SaleRepository) UpsertPurchase(addr common.Address, p sale.Purchase) error {
	var row model.PurchaseModel
	err := r.db.Where("address = ?", addr.Hex()).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = model.PurchaseModel{
			Address:          addr.Hex(),
			Amount:           p.Amount.String(),
			PaidAmount:       p.PaidAmount.String(),
			LastPurchaseTime: p.LastPurchaseTime,
			Claimed:          p.Claimed,
		}
		return r.db.Create(&row).Error
	}
	if err != nil {
		return err
	}

	return r.db.Model(&row).Updates(map[string]interface{}{
		"amount":             p.Amount.String(),
		"paid_amount":        p.PaidAmount.String(),
		"last_purchase_time": p.LastPurchaseTime,
		"claimed":            p.Claimed,
	}).Error
}

// MarkClaimed 锁存领取状态并记录结算交易哈希
func (r *SaleRepository) MarkClaimed(addr common.Address, txHash string) error {
	return r.db.Model(&model.PurchaseModel{}).
		Where("address = ?", addr.Hex()).
		Updates(map[string]interface{}{
			"claimed":       true,
			"claim_tx_hash": txHash,
		}).Error
}

// SetWhitelisted 持久化单个白名单变更
func (r *SaleRepository) SetWhitelisted(addr common.Address, flag bool, note string) error {
	if !flag {
		return r.db.Where("address = ?", addr.Hex()).
			Delete(&model.WhitelistEntryModel{}).Error
	}

	var existing model.WhitelistEntryModel
	err := r.db.Where("address = ?", addr.Hex()).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(&model.WhitelistEntryModel{Address: addr.Hex(), Note: note}).Error
	}
	return err
}

// SetWhitelistedBatch 批量持久化白名单变更
func (r *SaleRepository) SetWhitelistedBatch(addrs []common.Address, flag bool, note string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		batch := NewSaleRepository(tx)
		for _, addr := range addrs {
			if err := batch.SetWhitelisted(addr, flag, note); err != nil {
				return err
			}
		}
		return nil
	})
}

// configFromModel 将配置行转换为引擎配置
func configFromModel(row model.SaleConfigModel) (sale.Config, error) {
	price, err := parseBig(row.TokenPrice)
	if err != nil {
		return sale.Config{}, err
	}
	min, err := parseBig(row.MinPurchase)
	if err != nil {
		return sale.Config{}, err
	}
	max, err := parseBig(row.MaxPurchase)
	if err != nil {
		return sale.Config{}, err
	}
	supply, err := parseBig(row.MaxSupply)
	if err != nil {
		return sale.Config{}, err
	}
	return sale.Config{
		TokenPrice:        price,
		MinPurchase:       min,
		MaxPurchase:       max,
		MaxSupply:         supply,
		StartTime:         row.StartTime,
		EndTime:           row.EndTime,
		WhitelistRequired: row.WhitelistRequired,
	}, nil
}
