package service

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

type holderLock struct {
	holders int
	mu      sync.Mutex
}

// poolLocks serializes operations per pool. Entries are dropped once the last
// holder leaves.
type poolLocks struct {
	l sync.Mutex
	m map[common.Address]*holderLock
}

func newPoolLocks() *poolLocks {
	return &poolLocks{m: make(map[common.Address]*holderLock)}
}

func (p *poolLocks) Lock(pool common.Address) {
	p.l.Lock()
	hl, ok := p.m[pool]
	if !ok {
		hl = &holderLock{}
		p.m[pool] = hl
	}
	hl.holders++
	p.l.Unlock()

	hl.mu.Lock()
}

func (p *poolLocks) Unlock(pool common.Address) {
	p.l.Lock()
	hl := p.m[pool]
	hl.holders--
	if hl.holders == 0 {
		delete(p.m, pool)
	}
	p.l.Unlock()

	hl.mu.Unlock()
}

func (p *poolLocks) Len() int {
	p.l.Lock()
	defer p.l.Unlock()

	return len(p.m)
}
