package service

import (
	"context"
	"log"
	"time"

	"corebank/internal/model"
	"corebank/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WeeklyReport 周报：最近 7 天已完成交易的笔数和总金额
type WeeklyReport struct {
	PeriodStart      time.Time       `json:"period_start"`
	PeriodEnd        time.Time       `json:"period_end"`
	TransactionCount int             `json:"transaction_count"`
	TotalVolume      decimal.Decimal `json:"total_volume"`
}

// MonthlyReport 月报：最近 30 天的汇总、分类型笔数和日均值
type MonthlyReport struct {
	PeriodStart      time.Time       `json:"period_start"`
	PeriodEnd        time.Time       `json:"period_end"`
	TransactionCount int             `json:"transaction_count"`
	TotalVolume      decimal.Decimal `json:"total_volume"`
	CountByType      map[string]int  `json:"count_by_type"`
	DailyAvgCount    decimal.Decimal `json:"daily_avg_count"`  // 日均笔数
	DailyAvgVolume   decimal.Decimal `json:"daily_avg_volume"` // 日均金额
}

// ReportService 报表统计
// 只读聚合，统计口径：已完成（COMPLETED）的交易；REVERSED 的原交易
// 已离开 COMPLETED 态，不再计入
type ReportService struct {
	transactionRepo *repository.TransactionRepository
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{
		transactionRepo: repository.NewTransactionRepository(db),
	}
}

const (
	weeklyReportDays  = 7
	monthlyReportDays = 30
)

// GenerateWeeklyReport 生成最近 7 天的交易汇总
func (s *ReportService) GenerateWeeklyReport(ctx context.Context, now time.Time) (*WeeklyReport, error) {
	since := now.AddDate(0, 0, -weeklyReportDays)
	transactions, err := s.transactionRepo.ListCompletedSince(ctx, since)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, txn := range transactions {
		total = total.Add(txn.Amount)
	}

	report := &WeeklyReport{
		PeriodStart:      since,
		PeriodEnd:        now,
		TransactionCount: len(transactions),
		TotalVolume:      total,
	}

	log.Printf("周报生成完成: count=%d, volume=%s", report.TransactionCount, report.TotalVolume)
	return report, nil
}

// GenerateMonthlyReport 生成最近 30 天的交易汇总
// 日均值按 30 天固定分母计算，保留 2 位小数四舍五入
func (s *ReportService) GenerateMonthlyReport(ctx context.Context, now time.Time) (*MonthlyReport, error) {
	since := now.AddDate(0, 0, -monthlyReportDays)
	transactions, err := s.transactionRepo.ListCompletedSince(ctx, since)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	countByType := make(map[string]int)
	for _, txn := range transactions {
		total = total.Add(txn.Amount)
		countByType[txn.Type]++
	}

	days := decimal.NewFromInt(monthlyReportDays)
	report := &MonthlyReport{
		PeriodStart:      since,
		PeriodEnd:        now,
		TransactionCount: len(transactions),
		TotalVolume:      total,
		CountByType:      countByType,
		DailyAvgCount:    decimal.NewFromInt(int64(len(transactions))).DivRound(days, 2),
		DailyAvgVolume:   total.DivRound(days, 2),
	}

	log.Printf("月报生成完成: count=%d, volume=%s, types=%d",
		report.TransactionCount, report.TotalVolume, len(countByType))
	return report, nil
}

// CountPendingOlderThan 统计滞留超过给定时长的处理中交易，供巡检告警
func (s *ReportService) CountPendingOlderThan(ctx context.Context, now time.Time, age time.Duration) (int, error) {
	transactions, err := s.transactionRepo.ListPending(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := now.Add(-age)
	stale := 0
	for _, txn := range transactions {
		if txn.Status == model.TransactionStatusProcessing && txn.TransactionDate.Before(cutoff) {
			stale++
		}
	}
	return stale, nil
}
