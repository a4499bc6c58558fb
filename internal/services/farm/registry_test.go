package farm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hxuan190/compound-engine/internal/domain"
	"github.com/hxuan190/compound-engine/internal/services/farm"
	"github.com/hxuan190/compound-engine/internal/services/farm/farmtest"
)

func TestRegistryResolvesKinds(t *testing.T) {
	staking := farmtest.NewFarm(domain.FarmKindStaking)
	generator := farmtest.NewFarm(domain.FarmKindGenerator)
	r, err := farm.NewRegistry(staking, generator)
	require.NoError(t, err)

	f, err := r.ForPool(domain.NewPoolInfo("lp", "pair", domain.FarmKindGenerator, 1))
	require.NoError(t, err)
	require.Same(t, generator, f)
}

func TestRegistryRejectsSecondFarmToken(t *testing.T) {
	other := farmtest.NewFarm(domain.FarmKindGenerator)
	other.Token = "other-token"

	_, err := farm.NewRegistry(farmtest.NewFarm(domain.FarmKindStaking), other)
	require.ErrorIs(t, err, farm.ErrFarmTokenMismatch)

	r, err := farm.NewRegistry(farmtest.NewFarm(domain.FarmKindStaking))
	require.NoError(t, err)
	require.ErrorIs(t, r.Register(other), farm.ErrFarmTokenMismatch)
	_, err = r.ForKind(domain.FarmKindGenerator)
	require.ErrorIs(t, err, farm.ErrUnsupportedFarm)
}
