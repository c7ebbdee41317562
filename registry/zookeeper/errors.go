package zookeeper

import (
	"fmt"
	"time"

	"github.com/go-zookeeper/zk"
)

// TimeoutError reports a connect attempt that produced no live session
// within the connect window.
type TimeoutError struct {
	Target string
	Window time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("zookeeper: no session to %s within %s", e.Target, e.Window)
}

// DisconnectedError reports a dropped transport while the session is
// still alive on the ensemble side.
type DisconnectedError struct {
	State zk.State
}

func (e *DisconnectedError) Error() string {
	return fmt.Sprintf("zookeeper: session disconnected (state %s)", e.State)
}

// ExpiredError reports a lost session lease.
type ExpiredError struct {
	State zk.State
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("zookeeper: session expired (state %s)", e.State)
}

// SettingNotFoundError reports a missing group/version pairing for an
// interface. This is a configuration defect: it aborts the interface's
// consumer registration but never its provider tracking.
type SettingNotFoundError struct {
	Interface string
}

func (e *SettingNotFoundError) Error() string {
	return fmt.Sprintf("zookeeper: no group/version setting for interface %s", e.Interface)
}

// EmptyProviderListError is advisory: a watch-triggered refresh yielded
// zero providers, which may be transient.
type EmptyProviderListError struct {
	Interface string
}

func (e *EmptyProviderListError) Error() string {
	return fmt.Sprintf("zookeeper: provider list for %s is empty", e.Interface)
}
