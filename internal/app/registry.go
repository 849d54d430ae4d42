package app

import (
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/dkeye/RoomChat/internal/core"
	"github.com/dkeye/RoomChat/internal/domain"
)

// DirectoryName is the well-known discovery name of the room directory.
const DirectoryName = domain.ReservedRoomName

// Registry is the in-process naming service: it maps names to endpoints.
// The server publishes the Directory and every live room here; remote clients
// resolve through the HTTP discovery route.
type Registry struct {
	mu        sync.RWMutex
	endpoints map[string]core.Endpoint
}

func NewRegistry() *Registry {
	return &Registry{endpoints: make(map[string]core.Endpoint)}
}

// Publish binds ep under name. Binding a name twice is an error; it never rebinds.
func (r *Registry) Publish(name string, ep core.Endpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.endpoints[name]; ok {
		return fmt.Errorf("publish %q: %w", name, domain.ErrDuplicateName)
	}
	r.endpoints[name] = ep
	log.Info().Str("module", "app.registry").Str("name", name).Msg("published")
	return nil
}

// Withdraw unbinds name. Unknown names are ignored.
func (r *Registry) Withdraw(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.endpoints[name]; !ok {
		return nil
	}
	delete(r.endpoints, name)
	log.Info().Str("module", "app.registry").Str("name", name).Msg("withdrawn")
	return nil
}

func (r *Registry) Resolve(name string) (core.Endpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ep, ok := r.endpoints[name]
	if !ok {
		return nil, fmt.Errorf("resolve %q: %w", name, domain.ErrNameResolution)
	}
	return ep, nil
}

// ResolveRoom resolves name and requires the endpoint to be a live room.
func (r *Registry) ResolveRoom(name domain.RoomName) (*core.Room, error) {
	ep, err := r.Resolve(string(name))
	if err != nil {
		return nil, err
	}
	room, ok := ep.(*core.Room)
	if !ok || room.State() != domain.RoomActive {
		return nil, fmt.Errorf("resolve room %q: %w", name, domain.ErrNameResolution)
	}
	return room, nil
}

func (r *Registry) ResolveDirectory() (*Directory, error) {
	ep, err := r.Resolve(DirectoryName)
	if err != nil {
		return nil, err
	}
	dir, ok := ep.(*Directory)
	if !ok {
		return nil, fmt.Errorf("resolve %q: %w", DirectoryName, domain.ErrNameResolution)
	}
	return dir, nil
}

// Names returns every bound name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := lo.Keys(r.endpoints)
	r.mu.RUnlock()
	slices.Sort(names)
	return names
}
