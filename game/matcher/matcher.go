package matcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"go.uber.org/zap"

	"github.com/wricardo/gobang/game/message"
	"github.com/wricardo/gobang/game/presence"
	"github.com/wricardo/gobang/game/room"
	"github.com/wricardo/gobang/store"
)

// Default score thresholds between tiers.
const (
	DefaultHighScore  = 2000
	DefaultSuperScore = 3000
)

var ErrUnknownUser = errors.New("user record could not be read")

// Tier is a skill bucket for waiting players.
type Tier int

const (
	Normal Tier = iota
	High
	Super
)

var tierNames = [...]string{"normal", "high", "super"}

func (t Tier) String() string {
	if t < Normal || t > Super {
		return "unknown"
	}
	return tierNames[t]
}

// Thresholds are the lowest scores admitted to the high and super tiers.
type Thresholds struct {
	High  int
	Super int
}

// DefaultThresholds returns the standard tier boundaries
func DefaultThresholds() Thresholds {
	return Thresholds{High: DefaultHighScore, Super: DefaultSuperScore}
}

// TierFor returns the tier of a player with the given score.
func (t Thresholds) TierFor(score int) Tier {
	switch {
	case score < t.High:
		return Normal
	case score < t.Super:
		return High
	default:
		return Super
	}
}

// UserLookup reads user records for their current score
type UserLookup interface {
	GetByID(ctx context.Context, id uint64) (store.User, error)
}

// Rooms creates a room for a matched pair and finds a user's current room
type Rooms interface {
	CreateRoom(white, black uint64) (*room.Room, error)
	GetByUserID(uid uint64) (*room.Room, error)
}

// Presence is the view of the presence tracker the matcher needs
type Presence interface {
	IsPresent(ctx presence.Context, uid uint64) bool
	Connection(ctx presence.Context, uid uint64) (presence.Conn, bool)
}

// Deps are the collaborators of a Matcher. They must outlive it.
type Deps struct {
	Users    UserLookup
	Rooms    Rooms
	Presence Presence
	Logger   *zap.Logger
}

// Matcher pairs waiting lobby players of the same tier and seats them in a
// new room. Each tier is drained by its own worker goroutine.
type Matcher struct {
	thresholds Thresholds
	deps       Deps
	logger     *zap.Logger
	queues     [3]*Queue

	// Pacing between failed pairing attempts.
	minRetry time.Duration
	maxRetry time.Duration

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New creates a matcher. Call Start to launch the workers.
func New(thresholds Thresholds, deps Deps) *Matcher {
	m := &Matcher{
		thresholds: thresholds,
		deps:       deps,
		logger:     deps.Logger.Named("matcher"),
		minRetry:   10 * time.Millisecond,
		maxRetry:   time.Second,
	}
	for i := range m.queues {
		m.queues[i] = NewQueue()
	}
	return m
}

// tierOf reads uid's score and selects its tier. The score is not cached, so
// a score change between Add and Remove can select different tiers.
func (m *Matcher) tierOf(ctx context.Context, uid uint64) (Tier, error) {
	u, err := m.deps.Users.GetByID(ctx, uid)
	if err != nil {
		return Normal, fmt.Errorf("user %d: %w: %v", uid, ErrUnknownUser, err)
	}
	return m.thresholds.TierFor(u.Score), nil
}

// Add queues uid in the tier matching its current score.
func (m *Matcher) Add(ctx context.Context, uid uint64) error {
	tier, err := m.tierOf(ctx, uid)
	if err != nil {
		return err
	}
	if m.queues[tier].Push(uid) {
		m.logger.Debug("user queued", zap.Uint64("uid", uid), zap.Stringer("tier", tier))
	}
	return nil
}

// Remove drops uid from the tier matching its current score. A user that is
// not queued is ignored.
func (m *Matcher) Remove(ctx context.Context, uid uint64) error {
	tier, err := m.tierOf(ctx, uid)
	if err != nil {
		return err
	}
	if m.queues[tier].Remove(uid) {
		m.logger.Debug("user dequeued", zap.Uint64("uid", uid), zap.Stringer("tier", tier))
	}
	return nil
}

// QueueLengths returns the number of waiting users per tier name
func (m *Matcher) QueueLengths() map[string]int {
	lengths := make(map[string]int, len(m.queues))
	for i, q := range m.queues {
		lengths[Tier(i).String()] = q.Len()
	}
	return lengths
}

// Start launches one worker per tier. The workers run until ctx is done or
// Stop is called.
func (m *Matcher) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		ctx, m.cancel = context.WithCancel(ctx)
		for i, q := range m.queues {
			m.wg.Add(1)
			go m.work(ctx, Tier(i), q)
		}
		go func() {
			<-ctx.Done()
			for _, q := range m.queues {
				q.Close()
			}
		}()
		m.logger.Info("matcher started")
	})
}

// Stop shuts the workers down and waits for them to exit.
func (m *Matcher) Stop() {
	m.stopOnce.Do(func() {
		if m.cancel != nil {
			m.cancel()
		}
		for _, q := range m.queues {
			q.Close()
		}
		m.wg.Wait()
		m.logger.Info("matcher stopped")
	})
}

func (m *Matcher) work(ctx context.Context, tier Tier, q *Queue) {
	defer m.wg.Done()

	log := m.logger.With(zap.Stringer("tier", tier))
	b := &backoff.Backoff{Min: m.minRetry, Max: m.maxRetry, Factor: 2, Jitter: true}

	for {
		first, second, ok := q.WaitPair()
		if !ok {
			return
		}

		if m.pair(q, log, first, second) {
			b.Reset()
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(b.Duration()):
		}
	}
}

// pair seats first as white and second as black. Candidates that cannot be
// seated are put back in q. It returns false when the attempt should be
// retried after a pause.
func (m *Matcher) pair(q *Queue, log *zap.Logger, first, second uint64) bool {
	if first == second {
		q.Push(first)
		return false
	}

	firstHere := m.deps.Presence.IsPresent(presence.Lobby, first)
	secondHere := m.deps.Presence.IsPresent(presence.Lobby, second)
	if !firstHere || !secondHere {
		if firstHere {
			q.Push(first)
		}
		if secondHere {
			q.Push(second)
		}
		log.Debug("candidate left the lobby",
			zap.Uint64("first", first), zap.Bool("first_present", firstHere),
			zap.Uint64("second", second), zap.Bool("second_present", secondHere))
		// The wait blocks again if fewer than two remain.
		return true
	}

	r, err := m.deps.Rooms.CreateRoom(first, second)
	if errors.Is(err, room.ErrAlreadyInRoom) {
		return m.dropSeated(q, log, first, second)
	}
	if err != nil {
		log.Warn("room creation failed, requeueing",
			zap.Uint64("white", first), zap.Uint64("black", second), zap.Error(err))
		q.Push(first)
		q.Push(second)
		return false
	}

	log.Info("players matched",
		zap.Uint64("room_id", r.ID()), zap.Uint64("white", first), zap.Uint64("black", second))
	for _, uid := range [2]uint64{first, second} {
		m.notify(uid, r)
	}
	return true
}

// dropSeated discards candidates that already have a room and requeues the
// rest without pausing.
func (m *Matcher) dropSeated(q *Queue, log *zap.Logger, first, second uint64) bool {
	dropped := false
	for _, uid := range [2]uint64{first, second} {
		if _, err := m.deps.Rooms.GetByUserID(uid); err == nil {
			log.Info("candidate already has a room, dropped", zap.Uint64("uid", uid))
			dropped = true
			continue
		}
		q.Push(uid)
	}
	return dropped
}

func (m *Matcher) notify(uid uint64, r *room.Room) {
	conn, ok := m.deps.Presence.Connection(presence.Lobby, uid)
	if !ok {
		m.logger.Debug("matched user has no lobby connection", zap.Uint64("uid", uid))
		return
	}

	resp := message.Success(message.OpMatchSuccess)
	resp.RoomID = r.ID()
	resp.UID = uid
	resp.WhiteID = r.WhiteID()
	resp.BlackID = r.BlackID()
	if err := conn.Send(resp); err != nil {
		m.logger.Warn("failed to notify matched user", zap.Uint64("uid", uid), zap.Error(err))
	}
}
