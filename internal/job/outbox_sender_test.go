package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"corebank/internal/model"
	"corebank/internal/repository"
)

func seedOutboxMessage(t *testing.T, repo *repository.OutboxRepository, key string) *model.OutboxMessage {
	t.Helper()
	msg := &model.OutboxMessage{
		MessageKey: key,
		Topic:      "ledger.transaction.events",
		Payload:    `{"transaction_id":"` + key + `"}`,
		Status:     model.OutboxStatusPending,
	}
	if err := repo.Create(context.Background(), nil, msg); err != nil {
		t.Fatalf("写入发件箱失败: %v", err)
	}
	return msg
}

func TestOutboxSenderJobRunOnce(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewOutboxRepository(db)
	ctx := context.Background()

	seedOutboxMessage(t, repo, "TXN001")
	seedOutboxMessage(t, repo, "TXN002")

	var delivered []string
	sender := func(topic, key, value string) error {
		delivered = append(delivered, key)
		return nil
	}

	outboxJob := NewOutboxSenderJob(db, sender, time.Second, 100, 3)

	if sent := outboxJob.RunOnce(ctx); sent != 2 {
		t.Errorf("sent = %d, want 2", sent)
	}
	if len(delivered) != 2 {
		t.Errorf("delivered = %d 条, want 2", len(delivered))
	}

	// 已发送的不再重复投递
	if sent := outboxJob.RunOnce(ctx); sent != 0 {
		t.Errorf("第二轮 sent = %d, want 0", sent)
	}

	pending, _ := repo.GetPendingMessages(ctx, 100)
	if len(pending) != 0 {
		t.Errorf("pending = %d 条, 投递后应为 0", len(pending))
	}
}

func TestOutboxSenderJobRetryAndGiveUp(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewOutboxRepository(db)
	ctx := context.Background()

	msg := seedOutboxMessage(t, repo, "TXN001")

	sender := func(topic, key, value string) error {
		return errors.New("broker 不可用")
	}

	outboxJob := NewOutboxSenderJob(db, sender, time.Second, 100, 2)

	// 第一轮：累加重试次数
	if sent := outboxJob.RunOnce(ctx); sent != 0 {
		t.Errorf("sent = %d, want 0", sent)
	}
	var saved model.OutboxMessage
	db.First(&saved, msg.ID)
	if saved.RetryCount != 1 || saved.Status != model.OutboxStatusPending {
		t.Errorf("retryCount=%d status=%s, want 1/PENDING", saved.RetryCount, saved.Status)
	}

	// 第二轮：重试耗尽，标记失败等待人工介入
	outboxJob.RunOnce(ctx)
	db.First(&saved, msg.ID)
	if saved.Status != model.OutboxStatusFailed {
		t.Errorf("status = %s, want FAILED", saved.Status)
	}

	// 失败的不再被拾取
	pending, _ := repo.GetPendingMessages(ctx, 100)
	if len(pending) != 0 {
		t.Errorf("pending = %d 条, 失败消息不应再被拾取", len(pending))
	}
}
