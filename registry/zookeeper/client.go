package zookeeper

import (
	"time"

	"github.com/go-zookeeper/zk"
)

// Client is the narrow slice of a ZooKeeper connection the adapter uses.
// The production implementation wraps *zk.Conn; tests substitute a fake
// ensemble.
type Client interface {
	// ChildrenW lists the children of path and arms a one-shot watch on it.
	ChildrenW(path string) ([]string, <-chan zk.Event, error)
	Exists(path string) (bool, error)
	Create(path string, data []byte, flags int32) (string, error)
	State() zk.State
	Close()
}

// connectFn dials an ensemble and returns the client together with its
// session event stream. Swapped out in tests.
type connectFn func(servers []string, sessionTimeout time.Duration) (Client, <-chan zk.Event, error)

type zkClient struct {
	conn *zk.Conn
}

func dial(servers []string, sessionTimeout time.Duration) (Client, <-chan zk.Event, error) {
	conn, events, err := zk.Connect(servers, sessionTimeout)
	if err != nil {
		return nil, nil, err
	}
	return &zkClient{conn: conn}, events, nil
}

func (c *zkClient) ChildrenW(path string) ([]string, <-chan zk.Event, error) {
	children, _, events, err := c.conn.ChildrenW(path)
	return children, events, err
}

func (c *zkClient) Exists(path string) (bool, error) {
	ok, _, err := c.conn.Exists(path)
	return ok, err
}

func (c *zkClient) Create(path string, data []byte, flags int32) (string, error) {
	return c.conn.Create(path, data, flags, zk.WorldACL(zk.PermAll))
}

func (c *zkClient) State() zk.State {
	return c.conn.State()
}

func (c *zkClient) Close() {
	c.conn.Close()
}
