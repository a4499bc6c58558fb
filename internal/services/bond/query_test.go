package bond

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hxuan190/compound-engine/internal/services/ledger"
)

func TestPreview(t *testing.T) {
	f := newFixture(t, ledger.Vesting{})
	f.bond(t, "user1", 7000, "0.6")
	f.bond(t, "user2", 5000, "0")
	f.harvest(t)

	views, err := f.handler.Preview(context.Background(), f.book.Clone(), "user1", 0)
	require.NoError(t, err)
	require.Len(t, views, 1)
	v := views[0]
	require.Equal(t, "lp", v.Asset)
	require.Equal(t, uint64(7000), v.BondAmount.Uint64())
	require.Equal(t, uint64(4200), v.AutoBondAmount.Uint64())
	require.Equal(t, uint64(2800), v.StakeBondAmount.Uint64())
	require.Equal(t, uint64(1794), v.PendingFarmReward.Uint64())
	require.Equal(t, uint64(582), v.PendingGovernanceReward.Uint64())
	require.True(t, v.LockedGovernanceReward.IsZero())

	views, err = f.handler.Preview(context.Background(), f.book.Clone(), "user2", 0)
	require.NoError(t, err)
	require.Equal(t, uint64(3205), views[0].PendingFarmReward.Uint64())
	require.Equal(t, uint64(416), views[0].PendingGovernanceReward.Uint64())

	// the preview ran on copies
	r1, err := f.book.Reward("user1", "lp")
	require.NoError(t, err)
	require.True(t, r1.FarmShare.IsZero())
	require.True(t, f.book.State.PreviousGovernanceShare.IsZero())

	views, err = f.handler.Preview(context.Background(), f.book.Clone(), "nobody", 0)
	require.NoError(t, err)
	require.Empty(t, views)
}

func TestPreviewVesting(t *testing.T) {
	f := newFixture(t, ledger.Vesting{Start: 100, End: 200})
	f.bond(t, "user1", 7000, "0.6")
	f.bond(t, "user2", 5000, "0")
	f.harvest(t)

	views, err := f.handler.Preview(context.Background(), f.book.Clone(), "user1", 150)
	require.NoError(t, err)
	require.Equal(t, uint64(291), views[0].PendingGovernanceReward.Uint64())
	require.Equal(t, uint64(291), views[0].LockedGovernanceReward.Uint64())
}
