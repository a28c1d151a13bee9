package scheduler

import (
	"time"

	"github.com/TeaSui/whitelist-contracts/internal/config"
	"github.com/TeaSui/whitelist-contracts/internal/logger"
	"github.com/TeaSui/whitelist-contracts/internal/logic"
	"github.com/go-co-op/gocron/v2"
)

// 销售阶段
const (
	phasePending = "pending"
	phaseActive  = "active"
	phaseEnded   = "ended"
	phaseSoldOut = "sold_out"
)

// SaleStatusJob 销售状态监控任务
type SaleStatusJob struct {
	saleLogic *logic.SaleLogic
	config    *config.Config
	lastPhase string
}

// NewSaleStatusJob 创建销售状态监控任务
func NewSaleStatusJob(saleLogic *logic.SaleLogic, cfg *config.Config) *SaleStatusJob {
	return &SaleStatusJob{
		saleLogic: saleLogic,
		config:    cfg,
	}
}

// GetName 获取任务名称
func (j *SaleStatusJob) GetName() string {
	return "sale_status_job"
}

// GetSchedule 获取任务调度配置
func (j *SaleStatusJob) GetSchedule() gocron.JobDefinition {
	interval := j.config.Task.Interval
	if interval <= 0 {
		interval = 60
	}
	return gocron.DurationJob(time.Duration(interval) * time.Second)
}

// Execute 执行任务
func (j *SaleStatusJob) Execute() {
	status := j.saleLogic.Status()
	phase := j.currentPhase(status)

	if j.lastPhase == "" {
		j.lastPhase = phase
		logger.Info("Sale status job started, current phase: %s, totalSold: %s, totalRaised: %s",
			phase, status.TotalSold, status.TotalRaised)
		return
	}

	if phase != j.lastPhase {
		logger.Info("Sale phase changed: %s -> %s, totalSold: %s, totalRaised: %s, remaining: %s",
			j.lastPhase, phase, status.TotalSold, status.TotalRaised, status.RemainingSupply)
		j.lastPhase = phase
		return
	}

	logger.Debug("Sale status check: phase %s, totalSold: %s, totalRaised: %s",
		phase, status.TotalSold, status.TotalRaised)
}

// currentPhase 根据销售状态计算当前阶段
func (j *SaleStatusJob) currentPhase(status logic.SaleStatus) string {
	now := time.Now().Unix()

	switch {
	case status.RemainingSupply == "0":
		return phaseSoldOut
	case now < status.StartTime:
		return phasePending
	case now > status.EndTime:
		return phaseEnded
	default:
		return phaseActive
	}
}
