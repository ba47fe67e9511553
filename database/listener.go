package database

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/sahilchouksey/course-market-api/utils/logger"
)

// ContentChangedChannel is the Postgres NOTIFY channel other writers use to
// announce that a course's lesson set changed. The payload is the course id.
const ContentChangedChannel = "course_content_changed"

// ContentChangeHandler reacts to one content-shape change
type ContentChangeHandler func(ctx context.Context, courseID uint)

// ReconnectHandler runs after the connection is re-established, when any
// notification sent while it was down is gone for good
type ReconnectHandler func(ctx context.Context)

// ContentChangeListener runs LISTEN on a dedicated lib/pq connection
type ContentChangeListener struct {
	dsn         string
	handler     ContentChangeHandler
	onReconnect ReconnectHandler
	log         *logger.Logger
	listener    *pq.Listener
	done        chan struct{}
}

func NewContentChangeListener(dsn string, handler ContentChangeHandler, log *logger.Logger) *ContentChangeListener {
	return &ContentChangeListener{
		dsn:     dsn,
		handler: handler,
		log:     log.With("component", "ContentChangeListener"),
		done:    make(chan struct{}),
	}
}

// OnReconnect sets the catch-up hook for dropped notifications. Call before Start.
func (l *ContentChangeListener) OnReconnect(fn ReconnectHandler) *ContentChangeListener {
	l.onReconnect = fn
	return l
}

// Start subscribes to the channel and dispatches notifications until ctx is cancelled
func (l *ContentChangeListener) Start(ctx context.Context) error {
	l.listener = pq.NewListener(l.dsn, 10*time.Second, time.Minute, l.onEvent)
	if err := l.listener.Listen(ContentChangedChannel); err != nil {
		l.listener.Close()
		l.listener = nil
		return fmt.Errorf("failed to listen on %s: %w", ContentChangedChannel, err)
	}

	l.log.Info("Listening for content changes", "channel", ContentChangedChannel)
	go l.loop(ctx)
	return nil
}

func (l *ContentChangeListener) loop(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-l.listener.Notify:
			if !ok {
				return
			}
			// nil means the connection was re-established; events may have been missed
			if n == nil {
				l.reconnected(ctx)
				continue
			}
			l.dispatch(ctx, n.Extra)
		case <-time.After(90 * time.Second):
			go func() {
				if err := l.listener.Ping(); err != nil {
					l.log.Warn("Listener ping failed", "error", err)
				}
			}()
		}
	}
}

func (l *ContentChangeListener) reconnected(ctx context.Context) {
	if l.onReconnect == nil {
		l.log.Warn("Listener reconnected, notifications may have been dropped")
		return
	}
	l.log.Warn("Listener reconnected, running catch-up for dropped notifications")
	l.onReconnect(ctx)
}

func (l *ContentChangeListener) dispatch(ctx context.Context, payload string) {
	courseID, err := ParseContentChangePayload(payload)
	if err != nil {
		l.log.Warn("Ignoring malformed content change payload", "payload", payload, "error", err)
		return
	}
	l.handler(ctx, courseID)
}

func (l *ContentChangeListener) onEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventConnectionAttemptFailed:
		l.log.Warn("Listener connection attempt failed", "error", err)
	case pq.ListenerEventDisconnected:
		l.log.Warn("Listener disconnected", "error", err)
	case pq.ListenerEventReconnected:
		l.log.Info("Listener reconnected")
	}
}

// Close stops listening and waits for the dispatch loop to exit
func (l *ContentChangeListener) Close() error {
	if l.listener == nil {
		return nil
	}
	err := l.listener.Close()
	<-l.done
	return err
}

// ParseContentChangePayload extracts the course id from a NOTIFY payload
func ParseContentChangePayload(payload string) (uint, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return 0, fmt.Errorf("empty payload")
	}
	id, err := strconv.ParseUint(payload, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid course id %q: %w", payload, err)
	}
	if id == 0 {
		return 0, fmt.Errorf("invalid course id 0")
	}
	return uint(id), nil
}
