package ledger

import (
	"fmt"
	"sort"

	"github.com/holiman/uint256"

	"github.com/hxuan190/compound-engine/internal/domain"
)

// Book is an in-memory snapshot of every ledger record of a strategy. An invocation works on a
// Clone and, once it succeeded, commits Changes and adopts the clone as the new snapshot.
type Book struct {
	State domain.GlobalState

	pools   map[string]*domain.PoolInfo
	rewards map[domain.RewardKey]*domain.RewardInfo

	base *Book
}

func NewBook() *Book {
	return &Book{
		pools:   make(map[string]*domain.PoolInfo),
		rewards: make(map[domain.RewardKey]*domain.RewardInfo),
	}
}

// LoadBook builds a Book from persisted records. It has no base, so Changes reports everything.
func LoadBook(state *domain.GlobalState, pools []*domain.PoolInfo, rewards []*domain.RewardInfo) *Book {
	b := NewBook()
	if state != nil {
		b.State = *state
	}
	for _, p := range pools {
		b.pools[p.Asset] = p
	}
	for _, r := range rewards {
		b.rewards[r.Key()] = r
	}
	return b
}

// Clone returns a deep copy whose Changes are reported relative to b.
func (b *Book) Clone() *Book {
	c := &Book{
		State:   b.State,
		pools:   make(map[string]*domain.PoolInfo, len(b.pools)),
		rewards: make(map[domain.RewardKey]*domain.RewardInfo, len(b.rewards)),
		base:    b,
	}
	for k, p := range b.pools {
		c.pools[k] = p.Clone()
	}
	for k, r := range b.rewards {
		c.rewards[k] = r.Clone()
	}
	return c
}

// Rebase drops the reference to the snapshot the book was cloned from.
func (b *Book) Rebase() {
	b.base = nil
}

func (b *Book) Pool(asset string) (*domain.PoolInfo, error) {
	p, ok := b.pools[asset]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, asset)
	}
	return p, nil
}

// Pools returns all pools ordered by asset.
func (b *Book) Pools() []*domain.PoolInfo {
	out := make([]*domain.PoolInfo, 0, len(b.pools))
	for _, p := range b.pools {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Asset < out[j].Asset })
	return out
}

func (b *Book) Reward(staker, asset string) (*domain.RewardInfo, error) {
	r, ok := b.rewards[domain.RewardKey{Staker: staker, Asset: asset}]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrRewardNotFound, staker, asset)
	}
	return r, nil
}

// RewardOrNew returns the depositor's record, creating it at the pool's current indices.
func (b *Book) RewardOrNew(staker string, pool *domain.PoolInfo) *domain.RewardInfo {
	key := domain.RewardKey{Staker: staker, Asset: pool.Asset}
	if r, ok := b.rewards[key]; ok {
		return r
	}
	r := domain.NewRewardInfo(staker, pool)
	b.rewards[key] = r
	return r
}

// SaveReward keeps the record, or drops it when it holds nothing.
func (b *Book) SaveReward(r *domain.RewardInfo) {
	if r.IsEmpty() {
		delete(b.rewards, r.Key())
		return
	}
	b.rewards[r.Key()] = r
}

// StakerRewards returns the depositor's records ordered by asset.
func (b *Book) StakerRewards(staker string) []*domain.RewardInfo {
	out := make([]*domain.RewardInfo, 0)
	for k, r := range b.rewards {
		if k.Staker == staker {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Asset < out[j].Asset })
	return out
}

// PoolRewards returns every depositor record of a pool.
func (b *Book) PoolRewards(asset string) []*domain.RewardInfo {
	out := make([]*domain.RewardInfo, 0)
	for k, r := range b.rewards {
		if k.Asset == asset {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Staker < out[j].Staker })
	return out
}

func (b *Book) RewardCount() int {
	return len(b.rewards)
}

// Changes is the set of records an invocation must persist.
type Changes struct {
	State   *domain.GlobalState
	Pools   []*domain.PoolInfo
	Rewards []*domain.RewardInfo
	Removed []domain.RewardKey
}

func (c *Changes) Empty() bool {
	return c.State == nil && len(c.Pools) == 0 && len(c.Rewards) == 0 && len(c.Removed) == 0
}

// Changes diffs the book against the snapshot it was cloned from.
func (b *Book) Changes() *Changes {
	c := &Changes{}
	if b.base == nil || b.base.State != b.State {
		state := b.State
		c.State = &state
	}

	for _, p := range b.Pools() {
		if b.base != nil {
			if old, ok := b.base.pools[p.Asset]; ok && *old == *p {
				continue
			}
		}
		c.Pools = append(c.Pools, p)
	}

	keys := make([]domain.RewardKey, 0, len(b.rewards))
	for k := range b.rewards {
		keys = append(keys, k)
	}
	sortKeys(keys)
	for _, k := range keys {
		r := b.rewards[k]
		if b.base != nil {
			if old, ok := b.base.rewards[k]; ok && *old == *r {
				continue
			}
		}
		c.Rewards = append(c.Rewards, r)
	}

	if b.base != nil {
		for k := range b.base.rewards {
			if _, ok := b.rewards[k]; !ok {
				c.Removed = append(c.Removed, k)
			}
		}
		sortKeys(c.Removed)
	}
	return c
}

func sortKeys(keys []domain.RewardKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
}

// RegisterPool adds a pool or changes the weight of an existing one. Every existing pool is
// settled first so rewards accrued under the old weights stay with them. principals holds the
// bonded principal per pool asset; a missing entry counts as zero.
func RegisterPool(b *Book, pool *domain.PoolInfo, stakedShare *uint256.Int, principals map[string]*uint256.Int) error {
	if err := SettleGlobal(&b.State, stakedShare); err != nil {
		return err
	}
	for _, p := range b.Pools() {
		principal := principals[p.Asset]
		if principal == nil {
			principal = new(uint256.Int)
		}
		if err := SettlePool(&b.State, p, principal); err != nil {
			return err
		}
	}

	weight := b.State.TotalWeight
	if existing, ok := b.pools[pool.Asset]; ok {
		weight -= existing.Weight
		existing.Weight = pool.Weight
		existing.Pair = pool.Pair
		existing.FarmKind = pool.FarmKind
	} else {
		p := pool.Clone()
		p.StateGovernanceShareIndex = b.State.GovernanceShareIndex
		b.pools[p.Asset] = p
	}
	b.State.TotalWeight = weight + pool.Weight
	return nil
}
