package sale

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Config 销售配置，由所有者整体替换
type Config struct {
	TokenPrice        *big.Int `json:"token_price"`        // 每单位代币的支付货币价格（定点缩放）
	MinPurchase       *big.Int `json:"min_purchase"`       // 单次最小购买数量
	MaxPurchase       *big.Int `json:"max_purchase"`       // 单次及累计最大购买数量
	MaxSupply         *big.Int `json:"max_supply"`         // 销售总供应量
	StartTime         int64    `json:"start_time"`         // 销售开始时间（Unix秒）
	EndTime           int64    `json:"end_time"`           // 销售结束时间（Unix秒，含）
	WhitelistRequired bool     `json:"whitelist_required"` // 是否要求白名单
}

// Validate 校验配置合法性
func (c Config) Validate() error {
	if c.TokenPrice == nil || c.TokenPrice.Sign() <= 0 {
		return ErrInvalidPricing
	}
	if c.MinPurchase == nil || c.MinPurchase.Sign() <= 0 ||
		c.MaxPurchase == nil || c.MaxPurchase.Cmp(c.MinPurchase) < 0 {
		return ErrInvalidPricing
	}
	if c.EndTime <= c.StartTime {
		return ErrInvalidWindow
	}
	return nil
}

// clone 深拷贝配置，避免外部修改内部状态
func (c Config) clone() Config {
	out := c
	out.TokenPrice = new(big.Int).Set(c.TokenPrice)
	out.MinPurchase = new(big.Int).Set(c.MinPurchase)
	out.MaxPurchase = new(big.Int).Set(c.MaxPurchase)
	out.MaxSupply = new(big.Int).Set(c.MaxSupply)
	return out
}

// Purchase 单个地址的购买台账
type Purchase struct {
	Amount           *big.Int `json:"amount"`             // 累计购买数量，单调不减
	PaidAmount       *big.Int `json:"paid_amount"`        // 累计支付金额，单调不减
	LastPurchaseTime int64    `json:"last_purchase_time"` // 最近一次购买时间
	Claimed          bool     `json:"claimed"`            // 是否已领取，单向锁存
}

func (p Purchase) clone() Purchase {
	out := p
	out.Amount = new(big.Int).Set(p.Amount)
	out.PaidAmount = new(big.Int).Set(p.PaidAmount)
	return out
}

// Receipt 购买回执
type Receipt struct {
	Buyer     common.Address `json:"buyer"`
	Amount    *big.Int       `json:"amount"`
	Payment   *big.Int       `json:"payment"` // 实际收取的支付金额
	Refund    *big.Int       `json:"refund"`  // 退回的多余支付
	Timestamp int64          `json:"timestamp"`
}

// PurchaseEvent 购买事件
type PurchaseEvent struct {
	Buyer     common.Address
	Amount    *big.Int
	Payment   *big.Int
	Timestamp int64
}

// ClaimEvent 领取事件
type ClaimEvent struct {
	Claimer   common.Address
	Amount    *big.Int
	Timestamp int64
}

// TokenTransferor 代币转账接口，由以太坊客户端实现
type TokenTransferor interface {
	TransferToken(ctx context.Context, token common.Address, to common.Address, amount *big.Int) error
}

// NativeTransferor 原生货币转账接口，用于退款、转发和紧急提取
type NativeTransferor interface {
	SendNative(ctx context.Context, to common.Address, amount *big.Int) error
}

// EventSink 事件接收器，引擎在状态提交后发出事件
type EventSink interface {
	OnPurchase(event PurchaseEvent)
	OnClaim(event ClaimEvent)
}

// Snapshot 引擎状态快照，用于持久化与重启恢复
type Snapshot struct {
	Config         Config
	Purchases      map[common.Address]Purchase
	Whitelist      []common.Address
	MerkleRoot     common.Hash
	TotalSold      *big.Int
	TotalRaised    *big.Int
	ClaimEnabled   bool
	ClaimStartTime int64
}
