package lock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ============================================================================
// 分布式锁实现
// ============================================================================
//
// 【为什么需要按账户加锁？】
//
// 场景：同一账户同时被两笔操作读改写余额（外部请求和定时任务并发）
//
// 如果没有锁：
//   goroutine1: 读余额=100 -> 扣款100 -> 余额=0   OK
//   goroutine2: 读余额=100 -> 扣款100 -> 余额=-100 超扣了！
//
// 加了账户锁之后，同一账户上的资金操作串行执行；数据库层的乐观锁版本号
// 作为兜底，拦截绕过锁的写入者。
//
// 【Redis 分布式锁原理】
//
// 加锁：SET key value NX EX timeout
//   - NX: 只有 key 不存在时才设置（保证互斥）
//   - EX: 设置过期时间（防止死锁）
//   - value: 锁持有者标识（释放时验证，防止误删别人的锁）
//
// 释放锁：使用 Lua 脚本保证"检查+删除"的原子性
//
// ============================================================================

var ErrLockFailed = errors.New("获取分布式锁失败")

// DistributedLock 分布式锁
type DistributedLock struct {
	client     *redis.Client
	key        string
	value      string        // 锁持有者标识
	expiration time.Duration // 锁的过期时间
}

// NewDistributedLock 创建分布式锁
func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

// TryLock 尝试获取锁（非阻塞）
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	success, err := l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
	if err != nil {
		return false, err
	}
	return success, nil
}

// Lock 阻塞式获取锁（带重试）
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		success, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if success {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
			// 继续重试
		}
	}
	return ErrLockFailed
}

// Unlock 释放锁
// Lua 脚本先校验 value 再删除，避免删掉其他持有者的锁
func (l *DistributedLock) Unlock(ctx context.Context) error {
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`
	_, err := l.client.Eval(ctx, script, []string{l.key}, l.value).Result()
	return err
}

// ============================================================================
// 账户维度的资金操作锁
// ============================================================================

// AccountLocker 资金操作期间持有的账户锁
// 转账涉及两个账户时必须一次性传入，内部按账号排序后依次加锁，
// 固定的全局加锁顺序用于避免死锁
type AccountLocker interface {
	LockAccounts(ctx context.Context, accountNumbers ...string) (release func(), err error)
}

// RedisAccountLocker 基于 Redis 的账户锁
type RedisAccountLocker struct {
	client     *redis.Client
	expiration time.Duration
}

func NewRedisAccountLocker(client *redis.Client) *RedisAccountLocker {
	return &RedisAccountLocker{
		client:     client,
		expiration: 30 * time.Second,
	}
}

func accountLockKey(accountNumber string) string {
	return fmt.Sprintf("ledger:lock:account:%s", accountNumber)
}

// LockAccounts 按账号升序依次加锁，返回逆序释放函数
// 任何一把锁获取失败时回滚已持有的锁
func (l *RedisAccountLocker) LockAccounts(ctx context.Context, accountNumbers ...string) (func(), error) {
	sorted := make([]string, len(accountNumbers))
	copy(sorted, accountNumbers)
	sort.Strings(sorted)

	token := uuid.NewString()
	held := make([]*DistributedLock, 0, len(sorted))

	releaseHeld := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock(context.Background())
		}
	}

	for _, accountNumber := range sorted {
		dl := NewDistributedLock(l.client, accountLockKey(accountNumber), token, l.expiration)
		if err := dl.Lock(ctx, 100*time.Millisecond, 30); err != nil {
			releaseHeld()
			return nil, fmt.Errorf("账户 %s 加锁失败: %w", accountNumber, err)
		}
		held = append(held, dl)
	}

	return releaseHeld, nil
}
