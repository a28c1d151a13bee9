package handler

import (
	"net/http"
	"strconv"

	"github.com/TeaSui/whitelist-contracts/internal/logic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// PurchaseRecordHandler 购买台账处理器
type PurchaseRecordHandler struct {
	purchaseLogic *logic.PurchaseRecordLogic
	eventLogic    *logic.EventLogic
}

// NewPurchaseRecordHandler 创建购买台账处理器
func NewPurchaseRecordHandler(purchaseLogic *logic.PurchaseRecordLogic, eventLogic *logic.EventLogic) *PurchaseRecordHandler {
	return &PurchaseRecordHandler{
		purchaseLogic: purchaseLogic,
		eventLogic:    eventLogic,
	}
}

// GetPurchases 分页获取购买台账列表
func (h *PurchaseRecordHandler) GetPurchases(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	// 调用logic层获取购买台账
	records, total, err := h.purchaseLogic.GetPurchases(page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	pagination := Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}

	SuccessResponse(c, http.StatusOK, "获取购买记录成功", GetPurchasesResponse{
		Purchases:  ToPurchaseResponseList(records),
		Pagination: pagination,
	})
}

// GetPurchaseByAddress 根据地址获取购买台账
func (h *PurchaseRecordHandler) GetPurchaseByAddress(c *gin.Context) {
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		ErrorResponse(c, http.StatusBadRequest, "无效的地址")
		return
	}

	record, err := h.purchaseLogic.GetPurchaseByAddress(common.HexToAddress(address).Hex())
	if err != nil {
		ErrorResponse(c, http.StatusNotFound, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取购买记录成功", GetPurchaseResponse{
		Purchase: ToPurchaseResponse(record),
	})
}

// GetPurchaseStats 获取购买统计信息
func (h *PurchaseRecordHandler) GetPurchaseStats(c *gin.Context) {
	// 调用logic层获取统计信息
	stats, err := h.purchaseLogic.GetPurchaseStats()
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取购买统计信息成功", GetPurchaseStatsResponse{Stats: stats})
}

// GetEvents 分页获取销售事件列表
func (h *PurchaseRecordHandler) GetEvents(c *gin.Context) {
	kind := c.Query("kind")
	address := c.Query("address")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	events, total, err := h.eventLogic.GetEvents(kind, address, page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	pagination := Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}

	SuccessResponse(c, http.StatusOK, "获取事件列表成功", GetSaleEventsResponse{
		Events:     ToSaleEventResponseList(events),
		Pagination: pagination,
	})
}
