package monitor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/TeaSui/whitelist-contracts/internal/chain"
	"github.com/TeaSui/whitelist-contracts/internal/logger"
	"github.com/TeaSui/whitelist-contracts/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// EventMonitor 区块链事件监控器，将代币与销售合约的链上事件回灌到事件日志
type EventMonitor struct {
	chainManager   *chain.Manager
	db             *gorm.DB
	eventProcessor *EventProcessor
	startBlockNum  int64
	ctx            context.Context
	cancel         context.CancelFunc
	retryCount     int          // 重试次数
	mu             sync.RWMutex // 保护 startBlockNum 的并发访问
}

// NewEventMonitor 创建事件监控器
func NewEventMonitor(chainManager *chain.Manager, db *gorm.DB) *EventMonitor {
	ctx, cancel := context.WithCancel(context.Background())

	return &EventMonitor{
		chainManager:   chainManager,
		db:             db,
		eventProcessor: NewEventProcessor(db),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Start 启动监控
func (m *EventMonitor) Start() error {
	logger.Info("Starting blockchain event monitor")

	contracts := m.chainManager.GetContracts()
	if len(contracts) == 0 {
		logger.Warn("No contracts configured, event monitor disabled")
		return nil
	}
	logger.Info("Found %d contracts to monitor", len(contracts))

	// 测试 RPC 连接
	currentBlock, err := m.chainManager.GetCurrentBlockNumber()
	if err != nil {
		return err
	}
	logger.Info("Connected to blockchain, current block: %d", currentBlock)

	startBlock := m.getStartBlockNum()
	m.mu.Lock()
	m.startBlockNum = startBlock
	m.mu.Unlock()

	logger.Info("Starting monitor from block %d", startBlock)

	go m.loop()
	return nil
}

// Stop 停止监控
func (m *EventMonitor) Stop() {
	logger.Info("Stopping blockchain event monitor")
	m.cancel()
}

// loop 监控循环
func (m *EventMonitor) loop() {
	ticker := time.NewTicker(time.Second * 60)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			logger.Info("Monitor stopped")
			return
		case <-ticker.C:
			currentBlock, err := m.chainManager.GetCurrentBlockNumber()
			if err != nil {
				m.handleError(err)
				continue
			}

			from := m.getStartBlockNum()
			if from > currentBlock {
				continue
			}

			if err := m.processBlocksInBatches(from, currentBlock); err != nil {
				m.handleError(err)
			}
		}
	}
}

// processBlocksInBatches 分批处理区块
func (m *EventMonitor) processBlocksInBatches(fromBlock, toBlock int64) error {
	batchSize := int64(500) // 控制单次日志查询范围，避免API限制

	for currentFrom := fromBlock; currentFrom <= toBlock; currentFrom += batchSize {
		currentTo := currentFrom + batchSize - 1
		if currentTo > toBlock {
			currentTo = toBlock
		}

		if err := m.processBatchBlocks(currentFrom, currentTo); err != nil {
			if m.isAPIRateLimitError(err) {
				logger.Error("API rate limit hit while processing blocks %d-%d: %v", currentFrom, currentTo, err)
				return err
			}
			logger.Error("Error processing blocks %d-%d: %v", currentFrom, currentTo, err)
			continue
		}

		m.updateStartBlockNum(currentTo + 1)
		time.Sleep(time.Millisecond * 500)
	}

	return nil
}

// processBatchBlocks 批量处理区块：抓取日志，按合约分组后用协程池并发处理
func (m *EventMonitor) processBatchBlocks(fromBlock, toBlock int64) error {
	logs, err := m.chainManager.GetBatchBlockLogs(fromBlock, toBlock)
	if err != nil {
		return err
	}
	if len(logs) == 0 {
		return nil
	}

	logger.Debug("Found %d logs for blocks %d-%d", len(logs), fromBlock, toBlock)

	logsByContract := m.groupLogsByContract(logs)
	if len(logsByContract) == 0 {
		return nil
	}

	pool, err := ants.NewPool(len(logsByContract))
	if err != nil {
		return err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for address, contractLogs := range logsByContract {
		contract, ok := m.chainManager.FindContractByAddress(address)
		if !ok {
			logger.Warn("Unknown contract address: %s", address.Hex())
			continue
		}

		contractLogs := contractLogs
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			m.processContractLogs(contract, contractLogs)
		}); err != nil {
			wg.Done()
			logger.Error("Failed to submit task to pool: %v", err)
		}
	}
	wg.Wait()

	return nil
}

// processContractLogs 处理单个合约的所有日志
func (m *EventMonitor) processContractLogs(contract *chain.Contract, logs []types.Log) {
	for _, log := range logs {
		eventData, err := contract.ParseEvent(log)
		if err != nil {
			logger.Error("Error parsing event for contract %s: %v", contract.GetName(), err)
			continue
		}

		if err := m.eventProcessor.ProcessEvent(contract, log, eventData); err != nil {
			logger.Error("Error processing event for contract %s: %v", contract.GetName(), err)
			continue
		}

		logger.Debug("Processed event for contract %s at block %d", contract.GetName(), log.BlockNumber)
	}
}

// getStartBlockNum 确定起始区块号：配置的最小部署区块与数据库已处理最大区块取较大者
func (m *EventMonitor) getStartBlockNum() int64 {
	m.mu.RLock()
	startBlock := m.startBlockNum
	m.mu.RUnlock()

	if startBlock > 0 {
		return startBlock
	}

	contracts := m.chainManager.GetContracts()
	minDeployBlock := int64(0)
	first := true
	for _, contract := range contracts {
		if first || contract.GetBlockNum() < minDeployBlock {
			minDeployBlock = contract.GetBlockNum()
			first = false
		}
	}

	var maxProcessedBlock int64
	err := m.db.Model(&model.SaleEventModel{}).
		Where("tx_hash <> ''").
		Select("COALESCE(MAX(block_num), 0)").
		Scan(&maxProcessedBlock).Error
	if err != nil {
		logger.Error("Failed to get max processed block number from database: %v", err)
		return minDeployBlock
	}

	if maxProcessedBlock > minDeployBlock {
		return maxProcessedBlock + 1
	}
	return minDeployBlock
}

// updateStartBlockNum 更新起始区块号
func (m *EventMonitor) updateStartBlockNum(blockNum int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startBlockNum = blockNum
}

// handleError 处理错误
func (m *EventMonitor) handleError(err error) {
	m.retryCount++
	logger.Error("Monitor encountered error (retry %d): %v", m.retryCount, err)
}

// isAPIRateLimitError 检查是否为API限制错误
func (m *EventMonitor) isAPIRateLimitError(err error) bool {
	return strings.Contains(err.Error(), "Too Many Requests")
}

// groupLogsByContract 按合约地址分组日志
func (m *EventMonitor) groupLogsByContract(logs []types.Log) map[common.Address][]types.Log {
	logsByContract := make(map[common.Address][]types.Log)
	for _, log := range logs {
		logsByContract[log.Address] = append(logsByContract[log.Address], log)
	}
	return logsByContract
}
