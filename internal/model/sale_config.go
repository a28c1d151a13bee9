package model

import (
	"time"
)

// SaleConfigModel 销售配置。引擎的配置快照，整体替换时写入新的一行并激活，
// 历史配置保留用于审计
type SaleConfigModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TokenPrice        string `json:"token_price" gorm:"not null"`  // 定点缩放价格，十进制字符串
	MinPurchase       string `json:"min_purchase" gorm:"not null"` // 单次最小购买量
	MaxPurchase       string `json:"max_purchase" gorm:"not null"` // 单次及累计最大购买量
	MaxSupply         string `json:"max_supply" gorm:"not null"`   // 销售总供应量
	StartTime         int64  `json:"start_time" gorm:"not null"`
	EndTime           int64  `json:"end_time" gorm:"not null"`
	WhitelistRequired bool   `json:"whitelist_required" gorm:"default:true"`

	// 领取设置与默克尔根随配置行一起持久化
	ClaimEnabled   bool   `json:"claim_enabled" gorm:"default:false"`
	ClaimStartTime int64  `json:"claim_start_time" gorm:"default:0"`
	MerkleRoot     string `json:"merkle_root"`

	Active bool `json:"active" gorm:"index"` // 当前生效的配置行
}

// TableName 自定义表名
func (SaleConfigModel) TableName() string {
	return "sale_config"
}
