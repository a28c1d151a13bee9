package model

import (
	"time"
)

// 事件类型
const (
	EventKindPurchase         = "Purchase"         // 引擎内购买
	EventKindClaim            = "Claim"            // 引擎内领取
	EventKindConfigUpdated    = "ConfigUpdated"    // 配置整体替换
	EventKindWhitelistUpdated = "WhitelistUpdated" // 白名单变更
	EventKindTokensPurchased  = "TokensPurchased"  // 链上购买事件（监控回灌）
	EventKindTokensClaimed    = "TokensClaimed"    // 链上领取事件（监控回灌）
)

// SaleEventModel 销售事件日志，含引擎事件与链上监控回灌的合约事件
type SaleEventModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Kind      string `json:"kind" gorm:"index;not null"`
	Address   string `json:"address" gorm:"index"`
	Amount    string `json:"amount"`
	Payment   string `json:"payment"`
	Timestamp int64  `json:"timestamp"`

	// 链上事件的定位信息，引擎事件为空
	TxHash   string `json:"tx_hash" gorm:"index"`
	BlockNum int64  `json:"block_num"`
	LogIndex int64  `json:"log_index"`
	Contract string `json:"contract"` // 事件来源合约名称

	Processed bool   `json:"processed" gorm:"default:false"`
	Data      string `json:"data" gorm:"type:text"` // 原始事件参数（JSON）
}

// TableName 自定义表名
func (SaleEventModel) TableName() string {
	return "sale_event"
}
