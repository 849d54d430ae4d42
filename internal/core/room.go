package core

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/panics"

	"github.com/dkeye/RoomChat/internal/domain"
)

// Room is a threadsafe in-memory chat room.
// Posted events go through its queue and are fanned out by Run, one at a time,
// to a snapshot of the members taken at delivery time.
type Room struct {
	name  domain.RoomName
	queue *MessageQueue

	mu      sync.RWMutex
	members map[domain.UserName]Member
	state   domain.RoomState

	// deliverMu serializes per-entry delivery in Run with the close sweep,
	// so nothing reaches a member after its close notification.
	deliverMu sync.Mutex
	closeOnce sync.Once
	closing   chan struct{}
	done      chan struct{}
}

func NewRoom(name domain.RoomName) *Room {
	return &Room{
		name:    name,
		queue:   NewMessageQueue(),
		members: make(map[domain.UserName]Member),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (r *Room) Name() domain.RoomName { return r.name }

func (r *Room) State() domain.RoomState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *Room) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Members returns the sorted names of current members.
func (r *Room) Members() []domain.UserName {
	r.mu.RLock()
	names := lo.Keys(r.members)
	r.mu.RUnlock()
	slices.Sort(names)
	return names
}

// Done is closed once the broadcast loop has exited.
func (r *Room) Done() <-chan struct{} { return r.done }

// Join registers m under user, replacing any previous member with that name.
// Joining is silent: no event is queued.
func (r *Room) Join(user domain.UserName, m Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != domain.RoomActive {
		return domain.ErrRoomClosed
	}
	r.members[user] = m
	log.Info().Str("module", "core.room").Str("room", string(r.name)).Str("user", string(user)).Msg("member joined")
	return nil
}

// Leave removes user if present and queues a left notice either way,
// so remaining members see it in order with the rest of the traffic.
func (r *Room) Leave(user domain.UserName) error {
	r.mu.Lock()
	if r.state != domain.RoomActive {
		r.mu.Unlock()
		return domain.ErrRoomClosed
	}
	_, wasMember := r.members[user]
	delete(r.members, user)
	r.mu.Unlock()

	r.queue.Enqueue(domain.UserLeftEvent(user))
	log.Info().Str("module", "core.room").Str("room", string(r.name)).Str("user", string(user)).Bool("was_member", wasMember).Msg("member left")
	return nil
}

// LeaveMember removes user only while user is still bound to m, then queues the
// left notice. It reports false and queues nothing when user has since joined
// through another member. m must be comparable.
func (r *Room) LeaveMember(user domain.UserName, m Member) (bool, error) {
	r.mu.Lock()
	if r.state != domain.RoomActive {
		r.mu.Unlock()
		return false, domain.ErrRoomClosed
	}
	if cur, ok := r.members[user]; !ok || cur != m {
		r.mu.Unlock()
		return false, nil
	}
	delete(r.members, user)
	r.mu.Unlock()

	r.queue.Enqueue(domain.UserLeftEvent(user))
	log.Info().Str("module", "core.room").Str("room", string(r.name)).Str("user", string(user)).Msg("member endpoint left")
	return true, nil
}

// Send queues text under user. Membership is not checked.
func (r *Room) Send(user domain.UserName, text string) error {
	if r.State() != domain.RoomActive {
		return domain.ErrRoomClosed
	}
	r.queue.Enqueue(domain.MessageEvent(user, text))
	return nil
}

// Close is terminal and idempotent. It pushes the close notification directly
// to every current member, bypassing the queue; entries still queued are never
// delivered. Concurrent callers return once the sweep has finished.
func (r *Room) Close() {
	r.closeOnce.Do(r.sweep)
}

func (r *Room) sweep() {
	r.mu.Lock()
	r.state = domain.RoomClosing
	r.mu.Unlock()
	close(r.closing)

	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()

	members := r.snapshot()
	ev := domain.RoomClosedEvent()
	for user, m := range members {
		r.push(user, m, ev)
	}

	r.mu.Lock()
	clear(r.members)
	r.mu.Unlock()

	log.Info().Str("module", "core.room").Str("room", string(r.name)).Int("notified", len(members)).Msg("room closed")
}

// Run is the broadcast loop. It returns after Close, or after ctx is done,
// in which case it closes the room itself.
func (r *Room) Run(ctx context.Context) {
	defer r.finish()
	log.Debug().Str("module", "core.room").Str("room", string(r.name)).Msg("broadcast loop started")

	for {
		select {
		case <-r.closing:
			return
		case <-ctx.Done():
			return
		default:
		}

		ev, ok := r.queue.TryDequeue()
		if !ok {
			select {
			case <-r.queue.Ready():
			case <-r.closing:
				return
			case <-ctx.Done():
				return
			}
			continue
		}
		if !r.deliver(ev) {
			return
		}
	}
}

func (r *Room) finish() {
	r.Close()
	r.mu.Lock()
	r.state = domain.RoomClosed
	r.mu.Unlock()
	close(r.done)
	log.Debug().Str("module", "core.room").Str("room", string(r.name)).Int("dropped", r.queue.Len()).Msg("broadcast loop stopped")
}

func (r *Room) deliver(ev domain.Event) bool {
	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()

	select {
	case <-r.closing:
		return false
	default:
	}
	members := r.snapshot()
	for user, m := range members {
		r.push(user, m, ev)
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.name)).Str("kind", string(ev.Kind)).Int("sent_to", len(members)).Msg("broadcast")
	return true
}

// push isolates one member: an error or a panic is logged and the sweep goes on.
func (r *Room) push(user domain.UserName, m Member, ev domain.Event) {
	var err error
	if rec := panics.Try(func() { err = m.Deliver(ev) }); rec != nil {
		err = rec.AsError()
	}
	if err != nil {
		log.Warn().Err(err).Str("module", "core.room").Str("room", string(r.name)).Str("user", string(user)).Str("kind", string(ev.Kind)).Msg("delivery failed, member skipped")
	}
}

func (r *Room) snapshot() map[domain.UserName]Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.members)
}
