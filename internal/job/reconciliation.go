package job

import (
	"context"
	"fmt"
	"log"
	"time"

	"corebank/internal/model"
	"corebank/internal/service"

	"github.com/shopspring/decimal"
)

// 活期账户低余额管理费参数
var (
	maintenanceFeeThreshold = decimal.NewFromInt(500)
	maintenanceFeeAmount    = decimal.RequireFromString("1.00")
)

// ReconciliationJob 每日对账任务
// 两件事：
//  1. 修正可用余额与账面余额之间的漂移
//  2. 对余额低于门槛的活期账户收取账户管理费
type ReconciliationJob struct {
	transactionSvc *service.TransactionService
	accountSvc     *service.AccountService
	runHour        int
	stopCh         chan struct{}
}

func NewReconciliationJob(transactionSvc *service.TransactionService, runHour int) *ReconciliationJob {
	return &ReconciliationJob{
		transactionSvc: transactionSvc,
		accountSvc:     transactionSvc.AccountService(),
		runHour:        runHour,
		stopCh:         make(chan struct{}),
	}
}

func (j *ReconciliationJob) Start(ctx context.Context) {
	log.Printf("[Job] 每日对账任务启动, runHour=%d", j.runHour)

	go func() {
		for {
			wait := time.Until(nextRun(time.Now(), j.runHour))
			timer := time.NewTimer(wait)

			select {
			case <-timer.C:
				j.RunOnce(ctx)
			case <-j.stopCh:
				timer.Stop()
				log.Println("[Job] 每日对账任务停止")
				return
			case <-ctx.Done():
				timer.Stop()
				log.Println("[Job] 每日对账任务退出")
				return
			}
		}
	}()
}

func (j *ReconciliationJob) Stop() {
	close(j.stopCh)
}

// RunOnce 执行一轮对账，返回 修正漂移笔数/收费笔数
func (j *ReconciliationJob) RunOnce(ctx context.Context) (corrected, charged int) {
	accounts, err := j.accountSvc.ListActiveAccounts(ctx)
	if err != nil {
		log.Printf("[Job] 查询活跃账户失败: %v", err)
		return
	}

	memo := fmt.Sprintf("账户管理费 %s", time.Now().Format("2006-01-02"))

	for _, account := range accounts {
		changed, err := j.accountSvc.RecalculateAvailable(ctx, account)
		if err != nil {
			log.Printf("[Job] 修正可用余额失败: accountNumber=%s, err=%v", account.AccountNumber, err)
			continue
		}
		if changed {
			log.Printf("[Job] 可用余额漂移已修正: accountNumber=%s, balance=%s",
				account.AccountNumber, account.Balance)
			corrected++
		}

		if !j.shouldChargeMaintenanceFee(account) {
			continue
		}

		if _, err := j.transactionSvc.AssessFee(ctx, account.AccountNumber, maintenanceFeeAmount, memo); err != nil {
			// 余额不足以扣费时跳过，下个对账日再试
			log.Printf("[Job] 管理费扣款失败: accountNumber=%s, err=%v", account.AccountNumber, err)
			continue
		}
		charged++
	}

	log.Printf("[Job] 每日对账完成: accounts=%d, corrected=%d, charged=%d", len(accounts), corrected, charged)
	return
}

// shouldChargeMaintenanceFee 活期账户余额低于门槛时收取管理费
func (j *ReconciliationJob) shouldChargeMaintenanceFee(account *model.Account) bool {
	return account.AccountType == model.AccountTypeChecking &&
		account.IsActive() &&
		account.Balance.LessThan(maintenanceFeeThreshold) &&
		account.Balance.GreaterThanOrEqual(maintenanceFeeAmount)
}
