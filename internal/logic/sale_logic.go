package logic

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/TeaSui/whitelist-contracts/internal/config"
	"github.com/TeaSui/whitelist-contracts/internal/logger"
	"github.com/TeaSui/whitelist-contracts/internal/model"
	"github.com/TeaSui/whitelist-contracts/internal/repository"
	"github.com/TeaSui/whitelist-contracts/internal/sale"
	"github.com/ethereum/go-ethereum/common"
)

// SaleLogic 销售业务逻辑。引擎是权威状态机，数据库是其持久化镜像：
// 引擎操作成功后同步落库，落库失败只记录日志，不回滚引擎状态
type SaleLogic struct {
	mu     sync.Mutex // 串行化引擎调用
	engine *sale.Engine
	repo   *repository.SaleRepository
	events *EventLogic
}

// NewSaleLogic 创建销售业务逻辑
func NewSaleLogic(engine *sale.Engine, repo *repository.SaleRepository, events *EventLogic) *SaleLogic {
	return &SaleLogic{
		engine: engine,
		repo:   repo,
		events: events,
	}
}

// Bootstrap 构建销售引擎：数据库有快照则恢复，否则按配置文件初始化并落库
func Bootstrap(cfg *config.SaleConfig, repo *repository.SaleRepository, deps sale.Dependencies) (*sale.Engine, error) {
	owner := common.HexToAddress(cfg.OwnerAddress)
	treasury := common.HexToAddress(cfg.TreasuryAddress)
	token := common.HexToAddress(cfg.TokenAddress)
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(cfg.TokenDecimals)), nil)

	snap, ok, err := repo.LoadSnapshot()
	if err != nil {
		return nil, err
	}
	if ok {
		logger.Info("Restoring sale engine from database: %d purchases, total sold %s",
			len(snap.Purchases), snap.TotalSold.String())
		return sale.Restore(owner, treasury, token, scale, snap, deps)
	}

	initial, err := parseSaleConfig(cfg)
	if err != nil {
		return nil, err
	}
	engine, err := sale.New(owner, treasury, token, scale, initial, deps)
	if err != nil {
		return nil, err
	}
	if err := repo.SaveConfig(initial, false, 0, common.Hash{}); err != nil {
		return nil, err
	}
	logger.Info("Initialized sale engine from config: supply %s, window [%d, %d]",
		initial.MaxSupply.String(), initial.StartTime, initial.EndTime)
	return engine, nil
}

// parseSaleConfig 将配置文件中的十进制字符串解析为引擎配置
func parseSaleConfig(cfg *config.SaleConfig) (sale.Config, error) {
	parse := func(name, s string) (*big.Int, error) {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("无效的配置 sale.%s: %q", name, s)
		}
		return v, nil
	}

	price, err := parse("token_price", cfg.TokenPrice)
	if err != nil {
		return sale.Config{}, err
	}
	min, err := parse("min_purchase", cfg.MinPurchase)
	if err != nil {
		return sale.Config{}, err
	}
	max, err := parse("max_purchase", cfg.MaxPurchase)
	if err != nil {
		return sale.Config{}, err
	}
	supply, err := parse("max_supply", cfg.MaxSupply)
	if err != nil {
		return sale.Config{}, err
	}

	return sale.Config{
		TokenPrice:        price,
		MinPurchase:       min,
		MaxPurchase:       max,
		MaxSupply:         supply,
		StartTime:         cfg.StartTime,
		EndTime:           cfg.EndTime,
		WhitelistRequired: cfg.WhitelistRequired,
	}, nil
}

// Buy 购买代币并持久化台账变更
func (s *SaleLogic) Buy(ctx context.Context, buyer common.Address, amount, payment *big.Int, proof []common.Hash) (*sale.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	receipt, err := s.engine.Buy(ctx, buyer, amount, payment, proof)
	if err != nil {
		return nil, err
	}

	if record, ok := s.engine.GetPurchase(buyer); ok {
		if err := s.repo.UpsertPurchase(buyer, record); err != nil {
			logger.Error("Failed to persist purchase for %s: %v", buyer.Hex(), err)
		}
	}
	return receipt, nil
}

// Claim 领取已购代币并持久化领取状态
func (s *SaleLogic) Claim(ctx context.Context, claimer common.Address) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	amount, err := s.engine.Claim(ctx, claimer)
	if err != nil {
		return nil, err
	}

	if err := s.repo.MarkClaimed(claimer, ""); err != nil {
		logger.Error("Failed to persist claim for %s: %v", claimer.Hex(), err)
	}
	return amount, nil
}

// UpdateSaleConfig 整体替换销售配置
func (s *SaleLogic) UpdateSaleConfig(caller common.Address, cfg sale.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.UpdateSaleConfig(caller, cfg); err != nil {
		return err
	}

	enabled, claimStart := s.engine.ClaimSettings()
	if err := s.repo.SaveConfig(s.engine.GetConfig(), enabled, claimStart, s.engine.MerkleRoot()); err != nil {
		logger.Error("Failed to persist sale config: %v", err)
	}
	s.recordAdminEvent(model.EventKindConfigUpdated, caller, "")
	return nil
}

// SetClaimEnabled 设置领取开关
func (s *SaleLogic) SetClaimEnabled(caller common.Address, enabled bool, claimStart int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.SetClaimEnabled(caller, enabled, claimStart); err != nil {
		return err
	}

	actualEnabled, actualStart := s.engine.ClaimSettings()
	if err := s.repo.UpdateClaimSettings(actualEnabled, actualStart); err != nil {
		logger.Error("Failed to persist claim settings: %v", err)
	}
	return nil
}

// UpdateWhitelist 更新单个白名单地址
func (s *SaleLogic) UpdateWhitelist(caller common.Address, addr common.Address, flag bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.UpdateWhitelist(caller, addr, flag); err != nil {
		return err
	}

	if err := s.repo.SetWhitelisted(addr, flag, "admin"); err != nil {
		logger.Error("Failed to persist whitelist change for %s: %v", addr.Hex(), err)
	}
	s.recordAdminEvent(model.EventKindWhitelistUpdated, addr, fmt.Sprintf(`{"flag":%t}`, flag))
	return nil
}

// UpdateWhitelistBatch 批量更新白名单
func (s *SaleLogic) UpdateWhitelistBatch(caller common.Address, addrs []common.Address, flag bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.UpdateWhitelistBatch(caller, addrs, flag); err != nil {
		return err
	}

	if err := s.repo.SetWhitelistedBatch(addrs, flag, "admin_batch"); err != nil {
		logger.Error("Failed to persist whitelist batch: %v", err)
	}
	s.recordAdminEvent(model.EventKindWhitelistUpdated, common.Address{},
		fmt.Sprintf(`{"count":%d,"flag":%t}`, len(addrs), flag))
	return nil
}

// SetMerkleRoot 整体替换默克尔根
func (s *SaleLogic) SetMerkleRoot(caller common.Address, root common.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.SetMerkleRoot(caller, root); err != nil {
		return err
	}

	if err := s.repo.UpdateMerkleRoot(root); err != nil {
		logger.Error("Failed to persist merkle root: %v", err)
	}
	return nil
}

// EmergencyWithdrawToken 紧急提取代币
func (s *SaleLogic) EmergencyWithdrawToken(ctx context.Context, caller common.Address, token common.Address, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.EmergencyWithdrawToken(ctx, caller, token, amount)
}

// EmergencyWithdrawNative 紧急提取原生货币
func (s *SaleLogic) EmergencyWithdrawNative(ctx context.Context, caller common.Address, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.EmergencyWithdrawNative(ctx, caller, amount)
}

// SaleStatus 销售状态快照，供查询接口使用
type SaleStatus struct {
	Active            bool   `json:"active"`
	TotalSold         string `json:"total_sold"`
	TotalRaised       string `json:"total_raised"`
	RemainingSupply   string `json:"remaining_supply"`
	TokenPrice        string `json:"token_price"`
	MinPurchase       string `json:"min_purchase"`
	MaxPurchase       string `json:"max_purchase"`
	MaxSupply         string `json:"max_supply"`
	StartTime         int64  `json:"start_time"`
	EndTime           int64  `json:"end_time"`
	WhitelistRequired bool   `json:"whitelist_required"`
	ClaimEnabled      bool   `json:"claim_enabled"`
	ClaimStartTime    int64  `json:"claim_start_time"`
	MerkleRoot        string `json:"merkle_root"`
}

// Status 获取销售状态，激活判定每次重新计算
func (s *SaleLogic) Status() SaleStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.engine.GetConfig()
	enabled, claimStart := s.engine.ClaimSettings()
	return SaleStatus{
		Active:            s.engine.IsSaleActive(),
		TotalSold:         s.engine.TotalSold().String(),
		TotalRaised:       s.engine.TotalRaised().String(),
		RemainingSupply:   s.engine.RemainingSupply().String(),
		TokenPrice:        cfg.TokenPrice.String(),
		MinPurchase:       cfg.MinPurchase.String(),
		MaxPurchase:       cfg.MaxPurchase.String(),
		MaxSupply:         cfg.MaxSupply.String(),
		StartTime:         cfg.StartTime,
		EndTime:           cfg.EndTime,
		WhitelistRequired: cfg.WhitelistRequired,
		ClaimEnabled:      enabled,
		ClaimStartTime:    claimStart,
		MerkleRoot:        s.engine.MerkleRoot().Hex(),
	}
}

// CheckEligibility 查询地址的购买资格
func (s *SaleLogic) CheckEligibility(addr common.Address, proof []common.Hash) (whitelisted, eligible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.IsWhitelisted(addr), s.engine.IsEligible(addr, proof)
}

// Quote 计算购买指定数量所需的支付金额
func (s *SaleLogic) Quote(amount *big.Int) *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.RequiredPayment(amount)
}

// Owner 引擎所有者地址
func (s *SaleLogic) Owner() common.Address {
	return s.engine.Owner()
}

// recordAdminEvent 记录管理操作事件
func (s *SaleLogic) recordAdminEvent(kind string, addr common.Address, data string) {
	event := &model.SaleEventModel{
		Kind:      kind,
		Address:   addr.Hex(),
		Data:      data,
		Processed: true,
	}
	if err := s.events.CreateEvent(event); err != nil {
		logger.Error("Failed to record %s event: %v", kind, err)
	}
}
