package farm

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hxuan190/compound-engine/internal/domain"
)

var (
	ErrUnsupportedFarm   = errors.New("no farm registered for kind")
	ErrFarmTokenMismatch = errors.New("farm emits a different farm token")
)

// Registry resolves the Farm serving a pool's farm kind. Every registered farm emits the same
// farm token: the ledger keeps a single total farm share, so farm shares of different tokens
// cannot be told apart.
type Registry struct {
	mu    sync.RWMutex
	farms []Farm
}

func NewRegistry(farms ...Farm) (*Registry, error) {
	r := &Registry{}
	for _, f := range farms {
		if err := r.Register(f); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(f Farm) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.farms) > 0 && r.farms[0].FarmToken() != f.FarmToken() {
		return fmt.Errorf("%w: %s, registry holds %s", ErrFarmTokenMismatch, f.FarmToken(), r.farms[0].FarmToken())
	}
	r.farms = append(r.farms, f)
	return nil
}

// ForKind returns the first registered farm that supports kind.
func (r *Registry) ForKind(kind domain.FarmKind) (Farm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.farms {
		if f.SupportsFarmKind(kind) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w %s", ErrUnsupportedFarm, kind)
}

// ForPool returns the farm serving the pool.
func (r *Registry) ForPool(pool *domain.PoolInfo) (Farm, error) {
	return r.ForKind(pool.FarmKind)
}
