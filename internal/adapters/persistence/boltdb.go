package persistence

import (
	"fmt"
	"os"
	"path/filepath"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/compound-engine/internal/domain"
	"github.com/hxuan190/compound-engine/internal/services/ledger"
)

const (
	StateBucket   = "state"
	PoolsBucket   = "pools"
	RewardsBucket = "rewards"

	stateKey = "global"

	DefaultDBPath = "./data/compound-engine.db"
)

type Storage struct {
	db     *boltdb.BoltDatabase
	dbPath string
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}

	log.Info().Str("path", dbPath).Msg("[ledgerStorage] opened database")

	return &Storage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Commit writes every record of changes in one batch. Removed rewards are overwritten with an
// empty tombstone value that LoadBook skips.
func (s *Storage) Commit(changes *ledger.Changes) error {
	if changes == nil || changes.Empty() {
		return nil
	}

	ops, err := changesToOps(changes)
	if err != nil {
		return err
	}
	batch := s.db.NewBatch()
	for _, op := range ops {
		if err := batch.Add(op); err != nil {
			return fmt.Errorf("failed to add %s/%s to batch: %w", op.Bucket, op.Key, err)
		}
	}

	if err := batch.Execute(); err != nil {
		log.Error().Err(err).Int("count", len(ops)).Msg("[ledgerStorage] FAILED to execute batch")
		return err
	}

	log.Debug().
		Bool("state", changes.State != nil).
		Int("pools", len(changes.Pools)).
		Int("rewards", len(changes.Rewards)).
		Int("removed", len(changes.Removed)).
		Msg("[ledgerStorage] committed changes")
	return nil
}

func changesToOps(changes *ledger.Changes) ([]*boltdb.WriteOperation, error) {
	ops := make([]*boltdb.WriteOperation, 0, 1+len(changes.Pools)+len(changes.Rewards)+len(changes.Removed))
	add := func(bucket, key string, value []byte) {
		ops = append(ops, &boltdb.WriteOperation{
			Bucket: []byte(bucket),
			Key:    []byte(key),
			Value:  &value,
			Op:     boltdb.OpSet,
		})
	}

	if changes.State != nil {
		data, err := sonic.Marshal(stateToStored(changes.State))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal state: %w", err)
		}
		add(StateBucket, stateKey, data)
	}
	for _, p := range changes.Pools {
		data, err := sonic.Marshal(poolToStored(p))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal pool %s: %w", p.Asset, err)
		}
		add(PoolsBucket, p.Asset, data)
	}
	for _, r := range changes.Rewards {
		data, err := sonic.Marshal(rewardToStored(r))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal reward %s: %w", r.Key(), err)
		}
		add(RewardsBucket, r.Key().String(), data)
	}
	for _, k := range changes.Removed {
		add(RewardsBucket, k.String(), []byte{})
	}
	return ops, nil
}

// LoadBook reads every ledger record. A record that fails to decode fails the whole load, since
// pool totals would no longer match the depositor records.
func (s *Storage) LoadBook() (*ledger.Book, error) {
	state, err := s.loadState()
	if err != nil {
		return nil, err
	}

	poolData, err := s.db.List(PoolsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list pools: %w", err)
	}
	pools := make([]*domain.PoolInfo, 0, len(poolData))
	for asset, value := range poolData {
		if len(value) == 0 {
			continue
		}
		var stored StoredPool
		if err := sonic.Unmarshal(value, &stored); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pool %s: %w", asset, err)
		}
		pool, err := storedToPool(&stored)
		if err != nil {
			return nil, fmt.Errorf("failed to convert pool %s: %w", asset, err)
		}
		pools = append(pools, pool)
	}

	rewardData, err := s.db.List(RewardsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	rewards := make([]*domain.RewardInfo, 0, len(rewardData))
	tombstones := 0
	for key, value := range rewardData {
		if len(value) == 0 {
			tombstones++
			continue
		}
		var stored StoredReward
		if err := sonic.Unmarshal(value, &stored); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reward %s: %w", key, err)
		}
		reward, err := storedToReward(&stored)
		if err != nil {
			return nil, fmt.Errorf("failed to convert reward %s: %w", key, err)
		}
		rewards = append(rewards, reward)
	}

	log.Info().
		Int("pools", len(pools)).
		Int("rewards", len(rewards)).
		Int("tombstones", tombstones).
		Msg("[ledgerStorage] ledger loading completed")

	return ledger.LoadBook(state, pools, rewards), nil
}

func (s *Storage) loadState() (*domain.GlobalState, error) {
	data, err := s.db.List(StateBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list state: %w", err)
	}
	value, ok := data[stateKey]
	if !ok || len(value) == 0 {
		return &domain.GlobalState{}, nil
	}
	var stored StoredState
	if err := sonic.Unmarshal(value, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return storedToState(&stored)
}

// RewardCount returns the number of live reward records.
func (s *Storage) RewardCount() (int, error) {
	data, err := s.db.List(RewardsBucket)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, v := range data {
		if len(v) > 0 {
			count++
		}
	}
	return count, nil
}
