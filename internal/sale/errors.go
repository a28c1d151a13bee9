package sale

import "errors"

// 销售引擎错误定义，所有前置条件失败都返回具名错误
var (
	// 购买相关错误
	ErrSaleNotActive           = errors.New("销售未激活")
	ErrBelowMinimum            = errors.New("购买数量低于最小限制")
	ErrAboveMaximum            = errors.New("购买数量超过单次最大限制")
	ErrSupplyExceeded          = errors.New("购买数量超过剩余供应量")
	ErrNotWhitelisted          = errors.New("地址不在白名单中")
	ErrIndividualLimitExceeded = errors.New("累计购买数量超过个人限制")
	ErrInsufficientPayment     = errors.New("支付金额不足")

	// 领取相关错误
	ErrClaimingDisabled   = errors.New("领取未开启")
	ErrClaimingNotStarted = errors.New("领取尚未开始")
	ErrNothingToClaim     = errors.New("没有可领取的代币")
	ErrAlreadyClaimed     = errors.New("代币已领取")

	// 配置相关错误
	ErrInvalidPricing  = errors.New("无效的价格配置")
	ErrInvalidWindow   = errors.New("无效的时间窗口")
	ErrSupplyBelowSold = errors.New("最大供应量低于已售数量")

	// 白名单相关错误
	ErrZeroAddress   = errors.New("零地址无效")
	ErrEmptyBatch    = errors.New("批量地址列表为空")
	ErrBatchTooLarge = errors.New("批量地址数量超过上限")

	// 访问控制与保护
	ErrNotOwner            = errors.New("仅所有者可调用")
	ErrReentrantCall       = errors.New("检测到重入调用")
	ErrExceedsWithdrawable = errors.New("提取金额超过可提取余额")
	ErrInvalidAmount       = errors.New("金额必须大于0")
)
