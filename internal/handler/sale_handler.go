package handler

import (
	"errors"
	"math/big"
	"net/http"

	"github.com/TeaSui/whitelist-contracts/internal/logic"
	"github.com/TeaSui/whitelist-contracts/internal/sale"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// SaleHandler 销售处理器
type SaleHandler struct {
	saleLogic *logic.SaleLogic
}

// NewSaleHandler 创建销售处理器
func NewSaleHandler(saleLogic *logic.SaleLogic) *SaleHandler {
	return &SaleHandler{
		saleLogic: saleLogic,
	}
}

// Buy 购买代币
func (h *SaleHandler) Buy(c *gin.Context) {
	var req BuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if !common.IsHexAddress(req.Buyer) {
		ErrorResponse(c, http.StatusBadRequest, "无效的买家地址")
		return
	}
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "无效的购买数量")
		return
	}
	payment, ok := new(big.Int).SetString(req.Payment, 10)
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "无效的支付金额")
		return
	}
	proof, err := parseProof(req.Proof)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	// 调用logic层执行购买
	receipt, err := h.saleLogic.Buy(c.Request.Context(), common.HexToAddress(req.Buyer), amount, payment, proof)
	if err != nil {
		ErrorResponse(c, statusForSaleError(err), err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "购买成功", BuyResponse{
		Buyer:     receipt.Buyer.Hex(),
		Amount:    receipt.Amount.String(),
		Payment:   receipt.Payment.String(),
		Refund:    receipt.Refund.String(),
		Timestamp: receipt.Timestamp,
	})
}

// Claim 领取代币
func (h *SaleHandler) Claim(c *gin.Context) {
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if !common.IsHexAddress(req.Claimer) {
		ErrorResponse(c, http.StatusBadRequest, "无效的领取地址")
		return
	}

	// 调用logic层执行领取
	amount, err := h.saleLogic.Claim(c.Request.Context(), common.HexToAddress(req.Claimer))
	if err != nil {
		ErrorResponse(c, statusForSaleError(err), err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "领取成功", ClaimResponse{
		Claimer: req.Claimer,
		Amount:  amount.String(),
	})
}

// GetStatus 获取销售状态
func (h *SaleHandler) GetStatus(c *gin.Context) {
	status := h.saleLogic.Status()
	SuccessResponse(c, http.StatusOK, "获取销售状态成功", status)
}

// CheckEligibility 查询地址购买资格
func (h *SaleHandler) CheckEligibility(c *gin.Context) {
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		ErrorResponse(c, http.StatusBadRequest, "无效的地址")
		return
	}

	proof, err := parseProof(c.QueryArray("proof"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	whitelisted, eligible := h.saleLogic.CheckEligibility(common.HexToAddress(address), proof)
	SuccessResponse(c, http.StatusOK, "查询购买资格成功", EligibilityResponse{
		Address:     address,
		Whitelisted: whitelisted,
		Eligible:    eligible,
	})
}

// Quote 计算购买所需支付金额
func (h *SaleHandler) Quote(c *gin.Context) {
	amountStr := c.Query("amount")
	amount, ok := new(big.Int).SetString(amountStr, 10)
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "无效的购买数量")
		return
	}

	required := h.saleLogic.Quote(amount)
	SuccessResponse(c, http.StatusOK, "询价成功", QuoteResponse{
		Amount:          amount.String(),
		RequiredPayment: required.String(),
	})
}

// parseProof 解析十六进制默克尔证明
func parseProof(items []string) ([]common.Hash, error) {
	if len(items) == 0 {
		return nil, nil
	}
	proof := make([]common.Hash, len(items))
	for i, item := range items {
		b := common.FromHex(item)
		if len(b) != common.HashLength {
			return nil, errors.New("无效的默克尔证明节点")
		}
		proof[i] = common.BytesToHash(b)
	}
	return proof, nil
}

// statusForSaleError 将引擎错误映射为HTTP状态码
func statusForSaleError(err error) int {
	switch {
	case errors.Is(err, sale.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, sale.ErrSaleNotActive),
		errors.Is(err, sale.ErrBelowMinimum),
		errors.Is(err, sale.ErrAboveMaximum),
		errors.Is(err, sale.ErrSupplyExceeded),
		errors.Is(err, sale.ErrNotWhitelisted),
		errors.Is(err, sale.ErrIndividualLimitExceeded),
		errors.Is(err, sale.ErrInsufficientPayment),
		errors.Is(err, sale.ErrClaimingDisabled),
		errors.Is(err, sale.ErrClaimingNotStarted),
		errors.Is(err, sale.ErrNothingToClaim),
		errors.Is(err, sale.ErrAlreadyClaimed),
		errors.Is(err, sale.ErrInvalidPricing),
		errors.Is(err, sale.ErrInvalidWindow),
		errors.Is(err, sale.ErrSupplyBelowSold),
		errors.Is(err, sale.ErrZeroAddress),
		errors.Is(err, sale.ErrEmptyBatch),
		errors.Is(err, sale.ErrBatchTooLarge),
		errors.Is(err, sale.ErrExceedsWithdrawable),
		errors.Is(err, sale.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, sale.ErrReentrantCall):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
