package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hxuan190/compound-engine/internal/domain"
	"github.com/hxuan190/compound-engine/internal/services/ledger"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedStorage(t *testing.T, s *Storage) (*domain.GlobalState, *domain.PoolInfo) {
	t.Helper()
	state := &domain.GlobalState{TotalWeight: 3}
	state.Earning.SetUint64(299)
	state.TotalFarmShare.SetUint64(5000)

	pool := samplePool()
	user1 := domain.NewRewardInfo("user1", pool)
	user1.AutoBondShare.SetUint64(4200)
	user1.StakeBondShare.SetUint64(5000)
	user2 := domain.NewRewardInfo("user2", pool)
	user2.StakeBondShare.SetUint64(2800)

	require.NoError(t, s.Commit(&ledger.Changes{
		State:   state,
		Pools:   []*domain.PoolInfo{pool},
		Rewards: []*domain.RewardInfo{user1, user2},
	}))
	return state, pool
}

func TestCommitLoadBook(t *testing.T) {
	s := newTestStorage(t)
	state, pool := seedStorage(t, s)

	book, err := s.LoadBook()
	require.NoError(t, err)
	require.Equal(t, *state, book.State)

	loaded, err := book.Pool("lp")
	require.NoError(t, err)
	require.Equal(t, *pool, *loaded)

	user2, err := book.Reward("user2", "lp")
	require.NoError(t, err)
	require.Equal(t, uint64(2800), user2.StakeBondShare.Uint64())
	require.Equal(t, 2, book.RewardCount())

	require.NoError(t, s.Commit(&ledger.Changes{Removed: []domain.RewardKey{{Staker: "user1", Asset: "lp"}}}))

	book, err = s.LoadBook()
	require.NoError(t, err)
	_, err = book.Reward("user1", "lp")
	require.ErrorIs(t, err, ledger.ErrRewardNotFound)
	require.Equal(t, 1, book.RewardCount())

	count, err := s.RewardCount()
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestLoadBookRejectsCorruptRecords(t *testing.T) {
	t.Run("reward", func(t *testing.T) {
		s := newTestStorage(t)
		seedStorage(t, s)
		require.NoError(t, s.db.Set(RewardsBucket, []byte("user2|lp"), []byte(`{"staker":"user2","asset":"lp","stakeBondShare":"x"}`)))

		_, err := s.LoadBook()
		require.ErrorContains(t, err, "user2|lp")
		require.ErrorContains(t, err, "stakeBondShare")
	})

	t.Run("pool", func(t *testing.T) {
		s := newTestStorage(t)
		seedStorage(t, s)
		require.NoError(t, s.db.Set(PoolsBucket, []byte("lp"), []byte(`{"asset":`)))

		_, err := s.LoadBook()
		require.ErrorContains(t, err, "pool lp")
	})
}
