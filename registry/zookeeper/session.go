package zookeeper

import (
	"strings"
	"sync"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/hysios/zkregistry/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	readyOnce sync.Once
	readyCh   = make(chan struct{})
)

// Ready is closed once any registry in this process has established a
// live session with its ensemble.
func Ready() <-chan struct{} {
	return readyCh
}

func markReady() {
	readyOnce.Do(func() {
		close(readyCh)
	})
}

// sessionManager owns the connection to the ensemble and reports its
// health. Only the session manager may transition or close the client;
// every other component borrows it read-only through Client().
type sessionManager struct {
	connect        connectFn
	connectTimeout time.Duration
	sessionTimeout time.Duration

	mu     sync.Mutex
	client Client

	done      chan struct{}
	closeOnce sync.Once
}

func newSessionManager(connect connectFn, connectTimeout, sessionTimeout time.Duration) *sessionManager {
	return &sessionManager{
		connect:        connect,
		connectTimeout: connectTimeout,
		sessionTimeout: sessionTimeout,
		done:           make(chan struct{}),
	}
}

// Connect dials target and reports session health through onResult.
// onResult is level-triggered, not a one-shot future: it fires with nil
// once the session is established and again with a typed error on every
// later disconnect or expiry.
func (s *sessionManager) Connect(target string, onResult func(err error)) error {
	if target == "" {
		return errors.New("zookeeper: empty ensemble target")
	}

	client, events, err := s.connect(strings.Split(target, ","), s.sessionTimeout)
	if err != nil {
		return errors.Wrapf(err, "connect %s", target)
	}

	s.mu.Lock()
	s.client = client
	s.mu.Unlock()

	go s.track(target, client, events, onResult)
	return nil
}

// track drives the connect-timeout timer and translates raw session
// events into onResult invocations. The three first-event outcomes
// (connected, timed out, disconnected) are mutually exclusive for a
// given connect attempt.
func (s *sessionManager) track(target string, client Client, events <-chan zk.Event, onResult func(err error)) {
	timer := time.NewTimer(s.connectTimeout)
	defer timer.Stop()

	var (
		connected = false
		pending   = true // connect timer still armed
	)

	for {
		select {
		case <-s.done:
			return

		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			client.Close()
			onResult(&TimeoutError{Target: target, Window: s.connectTimeout})
			return

		case ev, ok := <-events:
			if !ok {
				return
			}

			switch ev.State {
			case zk.StateHasSession:
				if pending {
					pending = false
					timer.Stop()
				}
				logger.Logger.Debug("zookeeper session established", zap.String("target", target))
				// the health callback runs first; readiness trails it
				onResult(nil)
				if !connected {
					connected = true
					markReady()
				}

			case zk.StateDisconnected:
				if pending {
					pending = false
					timer.Stop()
				}
				logger.Logger.Warn("zookeeper session disconnected", zap.String("target", target))
				onResult(&DisconnectedError{State: ev.State})

			case zk.StateExpired:
				logger.Logger.Warn("zookeeper session expired", zap.String("target", target))
				onResult(&ExpiredError{State: ev.State})
			}
		}
	}
}

// Client returns the live connection handle, nil before Connect.
func (s *sessionManager) Client() Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

func (s *sessionManager) Close() {
	s.closeOnce.Do(func() {
		close(s.done)

		s.mu.Lock()
		client := s.client
		s.mu.Unlock()
		if client != nil {
			client.Close()
		}
	})
}
