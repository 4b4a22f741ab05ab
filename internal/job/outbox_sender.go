package job

import (
	"context"
	"log"
	"time"

	"corebank/internal/model"
	"corebank/internal/repository"

	"gorm.io/gorm"
)

// Sender 审计事件发送接口，生产实现为 Kafka 生产者
type Sender func(topic, key, value string) error

// OutboxSenderJob 发件箱投递任务
// 审计事件先与账务变更同事务落库，再由本任务异步投递到 Kafka，
// 保证"账务提交成功则事件终将送达"
type OutboxSenderJob struct {
	outboxRepo *repository.OutboxRepository
	send       Sender
	interval   time.Duration
	batchSize  int
	maxRetry   int
	stopCh     chan struct{}
}

func NewOutboxSenderJob(db *gorm.DB, send Sender, interval time.Duration, batchSize, maxRetry int) *OutboxSenderJob {
	return &OutboxSenderJob{
		outboxRepo: repository.NewOutboxRepository(db),
		send:       send,
		interval:   interval,
		batchSize:  batchSize,
		maxRetry:   maxRetry,
		stopCh:     make(chan struct{}),
	}
}

func (j *OutboxSenderJob) Start(ctx context.Context) {
	log.Printf("[Job] 发件箱投递任务启动, interval=%s, batchSize=%d", j.interval, j.batchSize)

	go func() {
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				j.RunOnce(ctx)
			case <-j.stopCh:
				log.Println("[Job] 发件箱投递任务停止")
				return
			case <-ctx.Done():
				log.Println("[Job] 发件箱投递任务退出")
				return
			}
		}
	}()
}

func (j *OutboxSenderJob) Stop() {
	close(j.stopCh)
}

// RunOnce 投递一批待发送的审计事件，返回成功笔数
func (j *OutboxSenderJob) RunOnce(ctx context.Context) int {
	messages, err := j.outboxRepo.GetPendingMessages(ctx, j.batchSize)
	if err != nil {
		log.Printf("[Job] 查询待发送事件失败: %v", err)
		return 0
	}

	sent := 0
	for _, msg := range messages {
		if err := j.send(msg.Topic, msg.MessageKey, msg.Payload); err != nil {
			log.Printf("[Job] 审计事件投递失败: id=%d, key=%s, err=%v", msg.ID, msg.MessageKey, err)

			if msg.RetryCount+1 >= j.maxRetry {
				// 重试耗尽，标记失败等待人工介入
				if err := j.outboxRepo.MarkAsFailed(ctx, msg.ID); err != nil {
					log.Printf("[Job] 标记事件失败态出错: id=%d, err=%v", msg.ID, err)
				}
			} else {
				if err := j.outboxRepo.IncrementRetryCount(ctx, msg.ID); err != nil {
					log.Printf("[Job] 累加重试次数出错: id=%d, err=%v", msg.ID, err)
				}
			}
			continue
		}

		if err := j.outboxRepo.UpdateStatus(ctx, msg.ID, model.OutboxStatusSent); err != nil {
			log.Printf("[Job] 更新事件状态出错: id=%d, err=%v", msg.ID, err)
			continue
		}
		sent++
	}

	if len(messages) > 0 {
		log.Printf("[Job] 发件箱投递完成: total=%d, sent=%d", len(messages), sent)
	}
	return sent
}
