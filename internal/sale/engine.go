package sale

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Engine 销售引擎，维护销售配置、购买台账和两套准入机制（时间窗口、白名单）
// 所有状态由引擎独占持有，调用方通过方法进行受保护的状态转换
type Engine struct {
	mu   sync.Mutex
	busy bool // 重入保护标志，最外层调用期间置位

	owner     common.Address
	treasury  common.Address
	saleToken common.Address
	scale     *big.Int // 定点缩放单位，等于代币精度（如10^18）

	config Config

	purchases   map[common.Address]*Purchase
	totalSold   *big.Int
	totalRaised *big.Int

	whitelist  map[common.Address]bool
	merkleRoot common.Hash

	claimEnabled   bool
	claimStartTime int64

	tokens TokenTransferor
	native NativeTransferor
	events EventSink

	now func() time.Time
}

// Dependencies 引擎的外部协作者
type Dependencies struct {
	Tokens TokenTransferor
	Native NativeTransferor
	Events EventSink        // 可为nil
	Now    func() time.Time // 可为nil，默认time.Now
}

// New 创建销售引擎
func New(owner, treasury, saleToken common.Address, scale *big.Int, cfg Config, deps Dependencies) (*Engine, error) {
	if owner == (common.Address{}) || treasury == (common.Address{}) || saleToken == (common.Address{}) {
		return nil, ErrZeroAddress
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxSupply == nil || cfg.MaxSupply.Sign() <= 0 {
		return nil, ErrSupplyBelowSold
	}
	nowFn := deps.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	return &Engine{
		owner:       owner,
		treasury:    treasury,
		saleToken:   saleToken,
		scale:       new(big.Int).Set(scale),
		config:      cfg.clone(),
		purchases:   make(map[common.Address]*Purchase),
		totalSold:   big.NewInt(0),
		totalRaised: big.NewInt(0),
		whitelist:   make(map[common.Address]bool),
		tokens:      deps.Tokens,
		native:      deps.Native,
		events:      deps.Events,
		now:         nowFn,
	}, nil
}

// Restore 从快照恢复引擎状态
func Restore(owner, treasury, saleToken common.Address, scale *big.Int, snap Snapshot, deps Dependencies) (*Engine, error) {
	e, err := New(owner, treasury, saleToken, scale, snap.Config, deps)
	if err != nil {
		return nil, err
	}
	for addr, p := range snap.Purchases {
		cp := p.clone()
		e.purchases[addr] = &cp
	}
	for _, addr := range snap.Whitelist {
		e.whitelist[addr] = true
	}
	e.merkleRoot = snap.MerkleRoot
	if snap.TotalSold != nil {
		e.totalSold = new(big.Int).Set(snap.TotalSold)
	}
	if snap.TotalRaised != nil {
		e.totalRaised = new(big.Int).Set(snap.TotalRaised)
	}
	e.claimEnabled = snap.ClaimEnabled
	e.claimStartTime = snap.ClaimStartTime
	return e, nil
}

// enter 进入受保护调用，重入时返回错误
func (e *Engine) enter() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy {
		return ErrReentrantCall
	}
	e.busy = true
	return nil
}

// leave 退出受保护调用，无条件释放（含失败路径）
func (e *Engine) leave() {
	e.mu.Lock()
	e.busy = false
	e.mu.Unlock()
}

// RequiredPayment 计算购买指定数量所需的支付金额
// requiredPayment = floor(amount × tokenPrice / scale)
func (e *Engine) RequiredPayment(amount *big.Int) *big.Int {
	required := new(big.Int).Mul(amount, e.config.TokenPrice)
	return required.Div(required, e.scale)
}

// Buy 购买代币。前置条件按固定顺序检查，首个失败的检查决定返回的错误
// 效果原子生效：台账与计数器先提交，再执行退款与转发；外部转账失败时整体回滚
func (e *Engine) Buy(ctx context.Context, caller common.Address, requested, payment *big.Int, proof []common.Hash) (*Receipt, error) {
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.leave()

	now := e.now().Unix()

	// 1. 销售激活：时间在窗口内且未售罄
	if !e.saleActiveAt(now) {
		return nil, ErrSaleNotActive
	}
	// 2. 不低于单次最小购买量
	if requested.Cmp(e.config.MinPurchase) < 0 {
		return nil, ErrBelowMinimum
	}
	// 3. 不超过单次最大购买量
	if requested.Cmp(e.config.MaxPurchase) > 0 {
		return nil, ErrAboveMaximum
	}
	// 4. 不超过剩余供应量
	newSold := new(big.Int).Add(e.totalSold, requested)
	if newSold.Cmp(e.config.MaxSupply) > 0 {
		return nil, ErrSupplyExceeded
	}
	// 5. 白名单检查
	if e.config.WhitelistRequired && !e.isEligible(caller, proof) {
		return nil, ErrNotWhitelisted
	}
	// 6. 累计购买量不超过maxPurchase（单次上限与累计上限共用同一配置值）
	record, exists := e.purchases[caller]
	if exists {
		cumulative := new(big.Int).Add(record.Amount, requested)
		if cumulative.Cmp(e.config.MaxPurchase) > 0 {
			return nil, ErrIndividualLimitExceeded
		}
	}
	// 7. 支付金额充足
	required := e.RequiredPayment(requested)
	if payment.Cmp(required) < 0 {
		return nil, ErrInsufficientPayment
	}

	// 提交状态，外部转账之前完成
	var prev Purchase
	if exists {
		prev = record.clone()
	} else {
		record = &Purchase{Amount: big.NewInt(0), PaidAmount: big.NewInt(0)}
		e.purchases[caller] = record
	}
	record.Amount.Add(record.Amount, requested)
	record.PaidAmount.Add(record.PaidAmount, required)
	record.LastPurchaseTime = now
	e.totalSold.Add(e.totalSold, requested)
	e.totalRaised.Add(e.totalRaised, required)

	rollback := func() {
		if exists {
			*record = prev
		} else {
			delete(e.purchases, caller)
		}
		e.totalSold.Sub(e.totalSold, requested)
		e.totalRaised.Sub(e.totalRaised, required)
	}

	// 退回多余支付
	refund := new(big.Int).Sub(payment, required)
	if refund.Sign() > 0 {
		if err := e.native.SendNative(ctx, caller, refund); err != nil {
			rollback()
			return nil, err
		}
	}
	// 转发实收款项至金库
	if required.Sign() > 0 {
		if err := e.native.SendNative(ctx, e.treasury, required); err != nil {
			rollback()
			return nil, err
		}
	}

	if e.events != nil {
		e.events.OnPurchase(PurchaseEvent{
			Buyer:     caller,
			Amount:    new(big.Int).Set(requested),
			Payment:   new(big.Int).Set(required),
			Timestamp: now,
		})
	}

	return &Receipt{
		Buyer:     caller,
		Amount:    new(big.Int).Set(requested),
		Payment:   required,
		Refund:    refund,
		Timestamp: now,
	}, nil
}

// Claim 领取已购代币。claimed标志在转账前锁存以阻止重入双领
func (e *Engine) Claim(ctx context.Context, caller common.Address) (*big.Int, error) {
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.leave()

	if !e.claimEnabled {
		return nil, ErrClaimingDisabled
	}
	now := e.now().Unix()
	if now < e.claimStartTime {
		return nil, ErrClaimingNotStarted
	}
	record, ok := e.purchases[caller]
	if !ok || record.Amount.Sign() == 0 {
		return nil, ErrNothingToClaim
	}
	if record.Claimed {
		return nil, ErrAlreadyClaimed
	}

	// 先锁存，再转账
	record.Claimed = true
	amount := new(big.Int).Set(record.Amount)
	if err := e.tokens.TransferToken(ctx, e.saleToken, caller, amount); err != nil {
		record.Claimed = false
		return nil, err
	}

	if e.events != nil {
		e.events.OnClaim(ClaimEvent{Claimer: caller, Amount: amount, Timestamp: now})
	}
	return amount, nil
}

// UpdateSaleConfig 整体替换销售配置，仅所有者可调用
// 不对既有购买记录做追溯校验：已超过新上限的地址只是无法继续购买
func (e *Engine) UpdateSaleConfig(caller common.Address, cfg Config) error {
	if caller != e.owner {
		return ErrNotOwner
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.MaxSupply == nil || cfg.MaxSupply.Cmp(e.totalSold) < 0 {
		return ErrSupplyBelowSold
	}
	e.config = cfg.clone()
	return nil
}

// SetClaimEnabled 设置领取开关。仅在开启且传入正时间戳时更新领取开始时间，
// 关闭时保留原值（单向更新，兼容性保留）
func (e *Engine) SetClaimEnabled(caller common.Address, enabled bool, claimStart int64) error {
	if caller != e.owner {
		return ErrNotOwner
	}
	e.claimEnabled = enabled
	if enabled && claimStart > 0 {
		e.claimStartTime = claimStart
	}
	return nil
}

// maxWhitelistBatch 单次批量白名单操作的地址数量上限
const maxWhitelistBatch = 100

// UpdateWhitelist 更新单个地址的白名单状态，仅所有者可调用
func (e *Engine) UpdateWhitelist(caller common.Address, addr common.Address, flag bool) error {
	if caller != e.owner {
		return ErrNotOwner
	}
	if addr == (common.Address{}) {
		return ErrZeroAddress
	}
	if flag {
		e.whitelist[addr] = true
	} else {
		delete(e.whitelist, addr)
	}
	return nil
}

// UpdateWhitelistBatch 批量更新白名单，空列表与零地址拒绝，数量受上限约束
func (e *Engine) UpdateWhitelistBatch(caller common.Address, addrs []common.Address, flag bool) error {
	if caller != e.owner {
		return ErrNotOwner
	}
	if len(addrs) == 0 {
		return ErrEmptyBatch
	}
	if len(addrs) > maxWhitelistBatch {
		return ErrBatchTooLarge
	}
	for _, addr := range addrs {
		if addr == (common.Address{}) {
			return ErrZeroAddress
		}
	}
	for _, addr := range addrs {
		if flag {
			e.whitelist[addr] = true
		} else {
			delete(e.whitelist, addr)
		}
	}
	return nil
}

// SetMerkleRoot 整体替换默克尔根，旧根生成的证明立即失效
func (e *Engine) SetMerkleRoot(caller common.Address, root common.Hash) error {
	if caller != e.owner {
		return ErrNotOwner
	}
	e.merkleRoot = root
	return nil
}

// isEligible 白名单资格判定：先查显式集合并短路，
// 仅在集合未命中且根与证明均非空时才验证默克尔证明
func (e *Engine) isEligible(addr common.Address, proof []common.Hash) bool {
	if e.whitelist[addr] {
		return true
	}
	if e.merkleRoot == (common.Hash{}) || len(proof) == 0 {
		return false
	}
	return VerifyProof(proof, e.merkleRoot, LeafHash(addr))
}

// IsEligible 对外暴露的资格查询
func (e *Engine) IsEligible(addr common.Address, proof []common.Hash) bool {
	return e.isEligible(addr, proof)
}

// saleActiveAt 判断指定时刻销售是否激活
func (e *Engine) saleActiveAt(now int64) bool {
	return now >= e.config.StartTime &&
		now <= e.config.EndTime &&
		e.totalSold.Cmp(e.config.MaxSupply) < 0
}

// IsSaleActive 当前时间与已售量的纯函数，每次调用重新计算，不缓存
func (e *Engine) IsSaleActive() bool {
	return e.saleActiveAt(e.now().Unix())
}

// EmergencyWithdrawToken 紧急提取代币至所有者
// 提取销售代币时上限为 maxSupply − totalSold，已售未领的代币永远不可提取
func (e *Engine) EmergencyWithdrawToken(ctx context.Context, caller common.Address, token common.Address, amount *big.Int) error {
	if caller != e.owner {
		return ErrNotOwner
	}
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if token == e.saleToken {
		withdrawable := new(big.Int).Sub(e.config.MaxSupply, e.totalSold)
		if amount.Cmp(withdrawable) > 0 {
			return ErrExceedsWithdrawable
		}
	}
	return e.tokens.TransferToken(ctx, token, e.owner, amount)
}

// EmergencyWithdrawNative 紧急提取原生货币至所有者
// 没有已售保护：款项在购买时即时转发，原生余额预期接近零
func (e *Engine) EmergencyWithdrawNative(ctx context.Context, caller common.Address, amount *big.Int) error {
	if caller != e.owner {
		return ErrNotOwner
	}
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return e.native.SendNative(ctx, e.owner, amount)
}

// GetPurchase 查询地址的购买台账，未购买过的地址返回false
func (e *Engine) GetPurchase(addr common.Address) (Purchase, bool) {
	record, ok := e.purchases[addr]
	if !ok {
		return Purchase{}, false
	}
	return record.clone(), true
}

// GetConfig 返回当前销售配置的副本
func (e *Engine) GetConfig() Config {
	return e.config.clone()
}

// TotalSold 累计已售数量
func (e *Engine) TotalSold() *big.Int {
	return new(big.Int).Set(e.totalSold)
}

// TotalRaised 累计募集金额
func (e *Engine) TotalRaised() *big.Int {
	return new(big.Int).Set(e.totalRaised)
}

// RemainingSupply 剩余可售数量
func (e *Engine) RemainingSupply() *big.Int {
	return new(big.Int).Sub(e.config.MaxSupply, e.totalSold)
}

// ClaimSettings 返回领取开关与开始时间
func (e *Engine) ClaimSettings() (bool, int64) {
	return e.claimEnabled, e.claimStartTime
}

// MerkleRoot 当前默克尔根
func (e *Engine) MerkleRoot() common.Hash {
	return e.merkleRoot
}

// IsWhitelisted 地址是否在显式白名单中
func (e *Engine) IsWhitelisted(addr common.Address) bool {
	return e.whitelist[addr]
}

// Owner 所有者地址
func (e *Engine) Owner() common.Address {
	return e.owner
}

// Snapshot 导出引擎状态快照
func (e *Engine) Snapshot() Snapshot {
	purchases := make(map[common.Address]Purchase, len(e.purchases))
	for addr, p := range e.purchases {
		purchases[addr] = p.clone()
	}
	whitelist := make([]common.Address, 0, len(e.whitelist))
	for addr := range e.whitelist {
		whitelist = append(whitelist, addr)
	}
	return Snapshot{
		Config:         e.config.clone(),
		Purchases:      purchases,
		Whitelist:      whitelist,
		MerkleRoot:     e.merkleRoot,
		TotalSold:      new(big.Int).Set(e.totalSold),
		TotalRaised:    new(big.Int).Set(e.totalRaised),
		ClaimEnabled:   e.claimEnabled,
		ClaimStartTime: e.claimStartTime,
	}
}
