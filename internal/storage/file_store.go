package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofrs/flock"

	"cpamm/internal/model"
)

// poolFile is the on-disk layout of one pool. Snapshot and positions share a
// file so a single rename commits both.
type poolFile struct {
	Pool      model.PoolState   `json:"pool"`
	Positions map[string]uint64 `json:"positions"`
	UpdatedAt string            `json:"updated_at"`
}

const lockRetryDelay = 5 * time.Millisecond

// FileStore keeps one JSON file per pool under a directory. Commits hold an
// advisory lock on <pool>.json.lock, so stores in different processes sharing
// a directory still see each other's versions.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) LoadPool(_ context.Context, pool common.Address) (model.PoolState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok, err := s.read(pool)
	if err != nil {
		return model.PoolState{}, err
	}
	if !ok {
		return model.PoolState{}, fmt.Errorf("%w: %s", ErrPoolNotFound, pool.Hex())
	}
	return f.Pool, nil
}

func (s *FileStore) ListPools(_ context.Context) ([]model.PoolState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read store dir: %w", err)
	}

	var pools []model.PoolState
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		addr := strings.TrimSuffix(name, ".json")
		if !common.IsHexAddress(addr) {
			continue
		}
		f, ok, err := s.read(common.HexToAddress(addr))
		if err != nil {
			return nil, err
		}
		if ok {
			pools = append(pools, f.Pool)
		}
	}
	sort.Slice(pools, func(i, j int) bool {
		return pools[i].Seed < pools[j].Seed
	})
	return pools, nil
}

func (s *FileStore) LoadPosition(_ context.Context, pool, owner common.Address) (model.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := model.Position{Pool: pool, Owner: owner}
	f, ok, err := s.read(pool)
	if err != nil || !ok {
		return pos, err
	}
	pos.Shares = f.Positions[positionKey(owner)]
	return pos, nil
}

func (s *FileStore) CommitPool(ctx context.Context, snapshot model.PoolState, expectedVersion uint64, positions ...model.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lockPool(ctx, snapshot.Address)
	if err != nil {
		return err
	}
	defer unlock()

	current, ok, err := s.read(snapshot.Address)
	if err != nil {
		return err
	}
	switch {
	case !ok && expectedVersion != 0:
		return fmt.Errorf("%w: %s", ErrPoolNotFound, snapshot.Address.Hex())
	case ok && current.Pool.Version != expectedVersion:
		return fmt.Errorf("%w: %s stored=%d expected=%d", ErrVersionConflict, snapshot.Address.Hex(), current.Pool.Version, expectedVersion)
	}

	next := poolFile{Pool: snapshot, Positions: current.Positions}
	if next.Positions == nil {
		next.Positions = make(map[string]uint64)
	}
	for _, pos := range positions {
		if pos.Pool != snapshot.Address {
			return fmt.Errorf("position for %s committed with pool %s", pos.Pool.Hex(), snapshot.Address.Hex())
		}
		if pos.Shares == 0 {
			delete(next.Positions, positionKey(pos.Owner))
			continue
		}
		next.Positions[positionKey(pos.Owner)] = pos.Shares
	}
	next.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)

	return s.write(snapshot.Address, next)
}

func (s *FileStore) path(pool common.Address) string {
	return filepath.Join(s.dir, strings.ToLower(pool.Hex())+".json")
}

// lockPool takes the cross-process lock for pool. Reads skip it because
// rename replaces the file atomically.
func (s *FileStore) lockPool(ctx context.Context, pool common.Address) (func(), error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	fl := flock.New(s.path(pool) + ".lock")
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("lock pool file: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("lock pool file %s: not acquired", fl.Path())
	}
	return func() { _ = fl.Unlock() }, nil
}

func (s *FileStore) read(pool common.Address) (poolFile, bool, error) {
	data, err := os.ReadFile(s.path(pool))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return poolFile{}, false, nil
		}
		return poolFile{}, false, fmt.Errorf("read pool file: %w", err)
	}
	var f poolFile
	if err := json.Unmarshal(data, &f); err != nil {
		return poolFile{}, false, fmt.Errorf("parse pool file: %w", err)
	}
	return f, true, nil
}

func (s *FileStore) write(pool common.Address, f poolFile) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal pool file: %w", err)
	}

	path := s.path(pool)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create pool tmp: %w", err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("chmod pool tmp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write pool tmp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close pool tmp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename pool file: %w", err)
	}
	return nil
}

func positionKey(owner common.Address) string {
	return strings.ToLower(owner.Hex())
}
