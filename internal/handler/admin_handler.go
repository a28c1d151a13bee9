package handler

import (
	"math/big"
	"net/http"

	"github.com/TeaSui/whitelist-contracts/internal/logic"
	"github.com/TeaSui/whitelist-contracts/internal/sale"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// AdminHandler 管理接口处理器，所有操作以配置的所有者地址为调用方
type AdminHandler struct {
	saleLogic *logic.SaleLogic
}

// NewAdminHandler 创建管理接口处理器
func NewAdminHandler(saleLogic *logic.SaleLogic) *AdminHandler {
	return &AdminHandler{
		saleLogic: saleLogic,
	}
}

// UpdateSaleConfig 整体替换销售配置
func (h *AdminHandler) UpdateSaleConfig(c *gin.Context) {
	var req UpdateSaleConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	price, ok1 := new(big.Int).SetString(req.TokenPrice, 10)
	min, ok2 := new(big.Int).SetString(req.MinPurchase, 10)
	max, ok3 := new(big.Int).SetString(req.MaxPurchase, 10)
	supply, ok4 := new(big.Int).SetString(req.MaxSupply, 10)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		ErrorResponse(c, http.StatusBadRequest, "无效的金额参数")
		return
	}

	cfg := sale.Config{
		TokenPrice:        price,
		MinPurchase:       min,
		MaxPurchase:       max,
		MaxSupply:         supply,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		WhitelistRequired: req.WhitelistRequired,
	}

	if err := h.saleLogic.UpdateSaleConfig(h.saleLogic.Owner(), cfg); err != nil {
		ErrorResponse(c, statusForSaleError(err), err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "销售配置更新成功", h.saleLogic.Status())
}

// SetClaimEnabled 设置领取开关
func (h *AdminHandler) SetClaimEnabled(c *gin.Context) {
	var req SetClaimEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.saleLogic.SetClaimEnabled(h.saleLogic.Owner(), req.Enabled, req.ClaimStartTime); err != nil {
		ErrorResponse(c, statusForSaleError(err), err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "领取开关设置成功", h.saleLogic.Status())
}

// UpdateWhitelist 更新单个白名单地址
func (h *AdminHandler) UpdateWhitelist(c *gin.Context) {
	var req UpdateWhitelistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if !common.IsHexAddress(req.Address) {
		ErrorResponse(c, http.StatusBadRequest, "无效的地址")
		return
	}

	if err := h.saleLogic.UpdateWhitelist(h.saleLogic.Owner(), common.HexToAddress(req.Address), req.Flag); err != nil {
		ErrorResponse(c, statusForSaleError(err), err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "白名单更新成功", nil)
}

// UpdateWhitelistBatch 批量更新白名单
func (h *AdminHandler) UpdateWhitelistBatch(c *gin.Context) {
	var req UpdateWhitelistBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	addrs := make([]common.Address, len(req.Addresses))
	for i, item := range req.Addresses {
		if !common.IsHexAddress(item) {
			ErrorResponse(c, http.StatusBadRequest, "无效的地址: "+item)
			return
		}
		addrs[i] = common.HexToAddress(item)
	}

	if err := h.saleLogic.UpdateWhitelistBatch(h.saleLogic.Owner(), addrs, req.Flag); err != nil {
		ErrorResponse(c, statusForSaleError(err), err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "白名单批量更新成功", gin.H{"count": len(addrs)})
}

// SetMerkleRoot 整体替换默克尔根
func (h *AdminHandler) SetMerkleRoot(c *gin.Context) {
	var req SetMerkleRootRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	b := common.FromHex(req.Root)
	if len(b) != common.HashLength {
		ErrorResponse(c, http.StatusBadRequest, "无效的默克尔根")
		return
	}

	if err := h.saleLogic.SetMerkleRoot(h.saleLogic.Owner(), common.BytesToHash(b)); err != nil {
		ErrorResponse(c, statusForSaleError(err), err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "默克尔根设置成功", nil)
}

// WithdrawToken 紧急提取代币
func (h *AdminHandler) WithdrawToken(c *gin.Context) {
	var req WithdrawTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if !common.IsHexAddress(req.Token) {
		ErrorResponse(c, http.StatusBadRequest, "无效的代币地址")
		return
	}
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "无效的提取金额")
		return
	}

	if err := h.saleLogic.EmergencyWithdrawToken(c.Request.Context(), h.saleLogic.Owner(),
		common.HexToAddress(req.Token), amount); err != nil {
		ErrorResponse(c, statusForSaleError(err), err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "代币提取成功", gin.H{"token": req.Token, "amount": req.Amount})
}

// WithdrawNative 紧急提取原生货币
func (h *AdminHandler) WithdrawNative(c *gin.Context) {
	var req WithdrawNativeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "无效的提取金额")
		return
	}

	if err := h.saleLogic.EmergencyWithdrawNative(c.Request.Context(), h.saleLogic.Owner(), amount); err != nil {
		ErrorResponse(c, statusForSaleError(err), err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "原生货币提取成功", gin.H{"amount": req.Amount})
}
