package job

import (
	"context"
	"log"
	"time"

	"corebank/internal/service"
)

// ReportJob 定期报表任务
// 每天固定时刻检查日历：周一生成周报，每月 1 号生成月报
type ReportJob struct {
	reportSvc *service.ReportService
	runHour   int
	stopCh    chan struct{}
}

func NewReportJob(reportSvc *service.ReportService, runHour int) *ReportJob {
	return &ReportJob{
		reportSvc: reportSvc,
		runHour:   runHour,
		stopCh:    make(chan struct{}),
	}
}

func (j *ReportJob) Start(ctx context.Context) {
	log.Printf("[Job] 报表任务启动, runHour=%d", j.runHour)

	go func() {
		for {
			wait := time.Until(nextRun(time.Now(), j.runHour))
			timer := time.NewTimer(wait)

			select {
			case <-timer.C:
				j.RunOnce(ctx, time.Now())
			case <-j.stopCh:
				timer.Stop()
				log.Println("[Job] 报表任务停止")
				return
			case <-ctx.Done():
				timer.Stop()
				log.Println("[Job] 报表任务退出")
				return
			}
		}
	}()
}

func (j *ReportJob) Stop() {
	close(j.stopCh)
}

// RunOnce 按日历决定本次要生成哪些报表
func (j *ReportJob) RunOnce(ctx context.Context, now time.Time) {
	if now.Weekday() == time.Monday {
		if _, err := j.reportSvc.GenerateWeeklyReport(ctx, now); err != nil {
			log.Printf("[Job] 周报生成失败: %v", err)
		}
	}

	if now.Day() == 1 {
		if _, err := j.reportSvc.GenerateMonthlyReport(ctx, now); err != nil {
			log.Printf("[Job] 月报生成失败: %v", err)
		}
	}
}
