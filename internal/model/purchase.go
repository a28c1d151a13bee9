package model

import (
	"time"
)

// PurchaseModel 购买台账，每个参与地址一行，首次购买时创建
type PurchaseModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Address          string `json:"address" gorm:"uniqueIndex;not null"`
	Amount           string `json:"amount" gorm:"not null"`      // 累计购买数量，单调不减
	PaidAmount       string `json:"paid_amount" gorm:"not null"` // 累计支付金额，单调不减
	LastPurchaseTime int64  `json:"last_purchase_time"`
	Claimed          bool   `json:"claimed" gorm:"default:false"` // 单向锁存
	ClaimTxHash      string `json:"claim_tx_hash"`                // 领取结算的链上交易哈希
}

// TableName 自定义表名
func (PurchaseModel) TableName() string {
	return "purchase"
}
