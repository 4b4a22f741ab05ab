package job

import (
	"context"
	"fmt"
	"log"
	"time"

	"corebank/internal/service"
)

// InterestJob 每日计息任务
// 在每天固定时刻遍历活跃账户，对符合计息条件的储蓄账户按日利率
// 入账一笔 AUTOMATED_INTEREST 流水
type InterestJob struct {
	transactionSvc *service.TransactionService
	accountSvc     *service.AccountService
	runHour        int
	stopCh         chan struct{}
}

func NewInterestJob(transactionSvc *service.TransactionService, runHour int) *InterestJob {
	return &InterestJob{
		transactionSvc: transactionSvc,
		accountSvc:     transactionSvc.AccountService(),
		runHour:        runHour,
		stopCh:         make(chan struct{}),
	}
}

func (j *InterestJob) Start(ctx context.Context) {
	log.Printf("[Job] 每日计息任务启动, runHour=%d", j.runHour)

	go func() {
		for {
			wait := time.Until(nextRun(time.Now(), j.runHour))
			timer := time.NewTimer(wait)

			select {
			case <-timer.C:
				j.RunOnce(ctx)
			case <-j.stopCh:
				timer.Stop()
				log.Println("[Job] 每日计息任务停止")
				return
			case <-ctx.Done():
				timer.Stop()
				log.Println("[Job] 每日计息任务退出")
				return
			}
		}
	}()
}

func (j *InterestJob) Stop() {
	close(j.stopCh)
}

// RunOnce 执行一轮计息，返回入账笔数
// 单个账户失败只记日志，不中断整轮
func (j *InterestJob) RunOnce(ctx context.Context) int {
	accounts, err := j.accountSvc.ListActiveAccounts(ctx)
	if err != nil {
		log.Printf("[Job] 查询活跃账户失败: %v", err)
		return 0
	}

	posted := 0
	memo := fmt.Sprintf("每日利息 %s", time.Now().Format("2006-01-02"))

	for _, account := range accounts {
		if !j.accountSvc.EligibleForInterest(account) {
			continue
		}

		interest := j.accountSvc.DailyInterest(account)
		if !interest.IsPositive() {
			continue
		}

		if _, err := j.transactionSvc.PostInterest(ctx, account.AccountNumber, interest, memo); err != nil {
			log.Printf("[Job] 计息入账失败: accountNumber=%s, interest=%s, err=%v",
				account.AccountNumber, interest, err)
			continue
		}
		posted++
	}

	log.Printf("[Job] 每日计息完成: accounts=%d, posted=%d", len(accounts), posted)
	return posted
}
