package handler

import (
	"time"

	"github.com/TeaSui/whitelist-contracts/internal/model"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// 购买相关请求模型

// BuyRequest 购买请求
type BuyRequest struct {
	Buyer   string   `json:"buyer" binding:"required"`
	Amount  string   `json:"amount" binding:"required"`
	Payment string   `json:"payment" binding:"required"`
	Proof   []string `json:"proof"`
}

// ClaimRequest 领取请求
type ClaimRequest struct {
	Claimer string `json:"claimer" binding:"required"`
}

// QuoteRequest 询价请求
type QuoteRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// 管理相关请求模型

// UpdateSaleConfigRequest 更新销售配置请求
type UpdateSaleConfigRequest struct {
	TokenPrice        string `json:"token_price" binding:"required"`
	MinPurchase       string `json:"min_purchase" binding:"required"`
	MaxPurchase       string `json:"max_purchase" binding:"required"`
	MaxSupply         string `json:"max_supply" binding:"required"`
	StartTime         int64  `json:"start_time" binding:"required"`
	EndTime           int64  `json:"end_time" binding:"required"`
	WhitelistRequired bool   `json:"whitelist_required"`
}

// SetClaimEnabledRequest 设置领取开关请求
type SetClaimEnabledRequest struct {
	Enabled        bool  `json:"enabled"`
	ClaimStartTime int64 `json:"claim_start_time"`
}

// UpdateWhitelistRequest 更新单个白名单请求
type UpdateWhitelistRequest struct {
	Address string `json:"address" binding:"required"`
	Flag    bool   `json:"flag"`
}

// UpdateWhitelistBatchRequest 批量更新白名单请求
type UpdateWhitelistBatchRequest struct {
	Addresses []string `json:"addresses" binding:"required"`
	Flag      bool     `json:"flag"`
}

// SetMerkleRootRequest 设置默克尔根请求
type SetMerkleRootRequest struct {
	Root string `json:"root" binding:"required"`
}

// WithdrawTokenRequest 紧急提取代币请求
type WithdrawTokenRequest struct {
	Token  string `json:"token" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

// WithdrawNativeRequest 紧急提取原生货币请求
type WithdrawNativeRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// 购买相关响应模型

// BuyResponse 购买响应
type BuyResponse struct {
	Buyer     string `json:"buyer"`
	Amount    string `json:"amount"`
	Payment   string `json:"payment"`
	Refund    string `json:"refund"`
	Timestamp int64  `json:"timestamp"`
}

// ClaimResponse 领取响应
type ClaimResponse struct {
	Claimer string `json:"claimer"`
	Amount  string `json:"amount"`
}

// QuoteResponse 询价响应
type QuoteResponse struct {
	Amount          string `json:"amount"`
	RequiredPayment string `json:"requiredPayment"`
}

// EligibilityResponse 购买资格响应
type EligibilityResponse struct {
	Address     string `json:"address"`
	Whitelisted bool   `json:"whitelisted"`
	Eligible    bool   `json:"eligible"`
}

// PurchaseResponse 购买台账响应模型
type PurchaseResponse struct {
	ID               uint      `json:"id"`
	Address          string    `json:"address"`
	Amount           string    `json:"amount"`
	PaidAmount       string    `json:"paidAmount"`
	LastPurchaseTime int64     `json:"lastPurchaseTime"`
	Claimed          bool      `json:"claimed"`
	ClaimTxHash      string    `json:"claimTxHash"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// GetPurchasesResponse 获取购买台账列表响应
type GetPurchasesResponse struct {
	Purchases  []PurchaseResponse `json:"purchases"`
	Pagination Pagination         `json:"pagination"`
}

// GetPurchaseResponse 获取购买台账详情响应
type GetPurchaseResponse struct {
	Purchase PurchaseResponse `json:"purchase"`
}

// GetPurchaseStatsResponse 获取购买统计响应
type GetPurchaseStatsResponse struct {
	Stats map[string]interface{} `json:"stats"`
}

// 事件相关响应模型

// SaleEventResponse 销售事件响应模型
type SaleEventResponse struct {
	ID        uint      `json:"id"`
	Kind      string    `json:"kind"`
	Address   string    `json:"address"`
	Amount    string    `json:"amount"`
	Payment   string    `json:"payment"`
	Timestamp int64     `json:"timestamp"`
	TxHash    string    `json:"txHash"`
	BlockNum  int64     `json:"blockNum"`
	Contract  string    `json:"contract"`
	CreatedAt time.Time `json:"createdAt"`
}

// GetSaleEventsResponse 获取销售事件列表响应
type GetSaleEventsResponse struct {
	Events     []SaleEventResponse `json:"events"`
	Pagination Pagination          `json:"pagination"`
}

// 转换函数

// ToPurchaseResponse 将数据库模型转换为响应模型
func ToPurchaseResponse(record *model.PurchaseModel) PurchaseResponse {
	return PurchaseResponse{
		ID:               uint(record.Id),
		Address:          record.Address,
		Amount:           record.Amount,
		PaidAmount:       record.PaidAmount,
		LastPurchaseTime: record.LastPurchaseTime,
		Claimed:          record.Claimed,
		ClaimTxHash:      record.ClaimTxHash,
		CreatedAt:        record.CreatedAt,
		UpdatedAt:        record.UpdatedAt,
	}
}

// ToPurchaseResponseList 将数据库模型列表转换为响应模型列表
func ToPurchaseResponseList(records []model.PurchaseModel) []PurchaseResponse {
	result := make([]PurchaseResponse, len(records))
	for i, record := range records {
		result[i] = ToPurchaseResponse(&record)
	}
	return result
}

// ToSaleEventResponse 将事件数据库模型转换为响应模型
func ToSaleEventResponse(event *model.SaleEventModel) SaleEventResponse {
	return SaleEventResponse{
		ID:        uint(event.Id),
		Kind:      event.Kind,
		Address:   event.Address,
		Amount:    event.Amount,
		Payment:   event.Payment,
		Timestamp: event.Timestamp,
		TxHash:    event.TxHash,
		BlockNum:  event.BlockNum,
		Contract:  event.Contract,
		CreatedAt: event.CreatedAt,
	}
}

// ToSaleEventResponseList 将事件数据库模型列表转换为响应模型列表
func ToSaleEventResponseList(events []model.SaleEventModel) []SaleEventResponse {
	result := make([]SaleEventResponse, len(events))
	for i, event := range events {
		result[i] = ToSaleEventResponse(&event)
	}
	return result
}
