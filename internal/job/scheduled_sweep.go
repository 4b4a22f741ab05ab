package job

import (
	"context"
	"errors"
	"log"
	"time"

	"corebank/internal/repository"
	"corebank/internal/service"
)

// ScheduledSweepJob 预约交易扫描任务
// 周期性拾取已到期的 SCHEDULED 流水并逐笔执行；每笔独立处理，
// 单笔失败不影响本批其余的执行
type ScheduledSweepJob struct {
	transactionSvc *service.TransactionService
	interval       time.Duration
	batchSize      int
	stopCh         chan struct{}
}

func NewScheduledSweepJob(transactionSvc *service.TransactionService, interval time.Duration, batchSize int) *ScheduledSweepJob {
	return &ScheduledSweepJob{
		transactionSvc: transactionSvc,
		interval:       interval,
		batchSize:      batchSize,
		stopCh:         make(chan struct{}),
	}
}

func (j *ScheduledSweepJob) Start(ctx context.Context) {
	log.Printf("[Job] 预约交易扫描任务启动, interval=%s, batchSize=%d", j.interval, j.batchSize)

	go func() {
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				j.RunOnce(ctx)
			case <-j.stopCh:
				log.Println("[Job] 预约交易扫描任务停止")
				return
			case <-ctx.Done():
				log.Println("[Job] 预约交易扫描任务退出")
				return
			}
		}
	}()
}

func (j *ScheduledSweepJob) Stop() {
	close(j.stopCh)
}

// RunOnce 执行一轮扫描，返回 处理成功/失败/跳过 的笔数
// 跳过 = 被其他执行者抢先领取或版本冲突重试耗尽，留给下一轮
func (j *ScheduledSweepJob) RunOnce(ctx context.Context) (processed, failed, skipped int) {
	due, err := j.transactionSvc.ListScheduledDue(ctx, time.Now(), j.batchSize)
	if err != nil {
		log.Printf("[Job] 查询到期预约交易失败: %v", err)
		return
	}

	if len(due) == 0 {
		return
	}

	log.Printf("[Job] 发现 %d 笔到期预约交易", len(due))

	for _, txn := range due {
		err := j.transactionSvc.ExecuteScheduled(ctx, txn.TransactionID)
		switch {
		case err == nil:
			processed++
		case errors.Is(err, repository.ErrTransactionStatusInvalid),
			errors.Is(err, repository.ErrOptimisticLock):
			skipped++
		default:
			failed++
		}
	}

	log.Printf("[Job] 预约交易扫描完成: processed=%d, failed=%d, skipped=%d", processed, failed, skipped)
	return
}
