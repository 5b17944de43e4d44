package repositories

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/mpetrashov/user-geo-service/internal/logger"
	"github.com/mpetrashov/user-geo-service/internal/models"
)

// Trigger-emitted operation names, see the users_change_notify migration.
const (
	opInsert = "INSERT"
	opUpdate = "UPDATE"
	opDelete = "DELETE"
)

const usersChannel = "users_events"

// UserChangeHandler receives the affected record for one change notification.
type UserChangeHandler func(user models.User)

type subscriber struct {
	onAdded   UserChangeHandler
	onChanged UserChangeHandler
	onRemoved UserChangeHandler
}

// UserFeed delivers per-record change notifications from the users table.
// A trigger publishes one JSON payload per INSERT/UPDATE/DELETE on the
// users_events channel; Run listens on a dedicated connection and dispatches
// each payload to every subscriber.
type UserFeed struct {
	conn *pgx.Conn

	mu     sync.Mutex
	nextID int
	subs   map[int]subscriber
}

// NewUserFeed creates a feed over a dedicated pgx connection. The connection
// must not be shared: LISTEN ties notifications to it.
func NewUserFeed(conn *pgx.Conn) *UserFeed {
	return &UserFeed{
		conn: conn,
		subs: make(map[int]subscriber),
	}
}

// Subscribe registers the three change callbacks and returns an unsubscribe
// function. The caller owns the unsubscribe lifecycle.
func (f *UserFeed) Subscribe(onAdded, onChanged, onRemoved UserChangeHandler) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++
	f.subs[id] = subscriber{onAdded: onAdded, onChanged: onChanged, onRemoved: onRemoved}

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

// Run listens for change notifications until ctx is cancelled. Malformed
// payloads are logged and skipped; the loop itself never stops on them.
func (f *UserFeed) Run(ctx context.Context) error {
	if _, err := f.conn.Exec(ctx, "LISTEN "+usersChannel); err != nil {
		return err
	}

	for {
		notification, err := f.conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		f.dispatch(notification.Payload)
	}
}

func (f *UserFeed) dispatch(payload string) {
	var event struct {
		Op   string  `json:"op"`
		User userRow `json:"user"`
	}
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		logger.Log.Errorw("failed to decode change notification", "payload", payload, "error", err)
		return
	}

	user := event.User.toUser()

	f.mu.Lock()
	subs := make([]subscriber, 0, len(f.subs))
	for _, s := range f.subs {
		subs = append(subs, s)
	}
	f.mu.Unlock()

	for _, s := range subs {
		switch event.Op {
		case opInsert:
			if s.onAdded != nil {
				s.onAdded(user)
			}
		case opUpdate:
			if s.onChanged != nil {
				s.onChanged(user)
			}
		case opDelete:
			if s.onRemoved != nil {
				s.onRemoved(user)
			}
		default:
			logger.Log.Warnw("unknown change operation", "op", event.Op)
		}
	}
}
