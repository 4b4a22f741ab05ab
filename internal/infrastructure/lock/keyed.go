package lock

import (
	"context"
	"sort"
	"sync"
)

// KeyedMutex 进程内的账户锁
// 单实例部署或测试环境下替代 Redis 锁，语义相同：
// 按账号排序加锁，逆序释放
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		locks: make(map[string]*sync.Mutex),
	}
}

func (k *KeyedMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

func (k *KeyedMutex) LockAccounts(ctx context.Context, accountNumbers ...string) (func(), error) {
	sorted := make([]string, len(accountNumbers))
	copy(sorted, accountNumbers)
	sort.Strings(sorted)

	held := make([]*sync.Mutex, 0, len(sorted))
	for _, accountNumber := range sorted {
		m := k.get(accountNumber)
		m.Lock()
		held = append(held, m)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}, nil
}
