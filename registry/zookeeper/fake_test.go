package zookeeper

import (
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-zookeeper/zk"
)

// fakeClient is an in-memory stand-in for a ZooKeeper ensemble: a flat
// node table with one-shot child watches and a scriptable session event
// stream.
type fakeClient struct {
	mu      sync.Mutex
	nodes   map[string]*fakeNode
	watches map[string][]chan zk.Event

	events chan zk.Event
	state  zk.State
	closed bool

	createCalls  map[string]int
	childrenErr  map[string]error
	childrenGate map[string]*listGate
}

// listGate parks the next listing of one path until released.
type listGate struct {
	entered chan struct{}
	release chan struct{}
}

type fakeNode struct {
	data      []byte
	ephemeral bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		nodes:       map[string]*fakeNode{},
		watches:     map[string][]chan zk.Event{},
		events:      make(chan zk.Event, 16),
		createCalls:  map[string]int{},
		childrenErr:  map[string]error{},
		childrenGate: map[string]*listGate{},
	}
}

func (c *fakeClient) connector(servers []string, sessionTimeout time.Duration) (Client, <-chan zk.Event, error) {
	return c, c.events, nil
}

// establishSession emits the connected event the session manager waits for.
func (c *fakeClient) establishSession() {
	c.mu.Lock()
	c.state = zk.StateHasSession
	c.mu.Unlock()
	c.events <- zk.Event{State: zk.StateHasSession}
}

func (c *fakeClient) disconnect() {
	c.mu.Lock()
	c.state = zk.StateDisconnected
	c.mu.Unlock()
	c.events <- zk.Event{State: zk.StateDisconnected}
}

// expire drops the session lease: every ephemeral node vanishes, then
// the expiry event is delivered.
func (c *fakeClient) expire() {
	c.mu.Lock()
	c.state = zk.StateExpired
	for path, node := range c.nodes {
		if node.ephemeral {
			delete(c.nodes, path)
			c.fireLocked(parentPath(path))
		}
	}
	c.mu.Unlock()
	c.events <- zk.Event{State: zk.StateExpired}
}

// gateChildren parks the next ChildrenW on path: entered closes when the
// listing arrives, release lets it proceed.
func (c *fakeClient) gateChildren(path string) (entered <-chan struct{}, release func()) {
	g := &listGate{entered: make(chan struct{}), release: make(chan struct{})}
	c.mu.Lock()
	c.childrenGate[path] = g
	c.mu.Unlock()
	return g.entered, func() { close(g.release) }
}

func (c *fakeClient) ChildrenW(path string) ([]string, <-chan zk.Event, error) {
	c.mu.Lock()
	if g := c.childrenGate[path]; g != nil {
		delete(c.childrenGate, path)
		c.mu.Unlock()
		close(g.entered)
		<-g.release
		c.mu.Lock()
	}
	defer c.mu.Unlock()

	if err := c.childrenErr[path]; err != nil {
		return nil, nil, err
	}
	if _, ok := c.nodes[path]; !ok {
		return nil, nil, zk.ErrNoNode
	}

	var children []string
	for p := range c.nodes {
		if parentPath(p) == path {
			children = append(children, p[strings.LastIndex(p, "/")+1:])
		}
	}

	watch := make(chan zk.Event, 1)
	c.watches[path] = append(c.watches[path], watch)
	return children, watch, nil
}

func (c *fakeClient) Exists(path string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.nodes[path]
	return ok, nil
}

func (c *fakeClient) Create(path string, data []byte, flags int32) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.nodes[path]; ok {
		return "", zk.ErrNodeExists
	}
	if parent := parentPath(path); parent != "" {
		if _, ok := c.nodes[parent]; !ok {
			return "", zk.ErrNoNode
		}
	}

	c.nodes[path] = &fakeNode{data: data, ephemeral: flags&zk.FlagEphemeral != 0}
	c.createCalls[path]++
	c.fireLocked(parentPath(path))
	return path, nil
}

func (c *fakeClient) State() zk.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *fakeClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// addNode seeds a persistent node, creating missing parents.
func (c *fakeClient) addNode(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var node strings.Builder
	for _, segment := range strings.Split(strings.Trim(path, "/"), "/") {
		node.WriteString("/")
		node.WriteString(segment)
		if _, ok := c.nodes[node.String()]; !ok {
			c.nodes[node.String()] = &fakeNode{}
			c.fireLocked(parentPath(node.String()))
		}
	}
}

// addProvider publishes a provider address under the interface's
// providers node and fires its child watches. The node is persistent
// from this client's point of view: it belongs to the provider's own
// session, which simulated expiry of the local session never touches.
func (c *fakeClient) addProvider(root, interfaceName, raw string) {
	providers := "/" + root + "/" + interfaceName + "/providers"
	c.addNode(providers)

	c.mu.Lock()
	defer c.mu.Unlock()
	path := providers + "/" + url.QueryEscape(raw)
	c.nodes[path] = &fakeNode{}
	c.fireLocked(providers)
}

func (c *fakeClient) deleteNode(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.nodes[path]; !ok {
		return
	}
	delete(c.nodes, path)
	c.fireLocked(parentPath(path))
}

func (c *fakeClient) hasNode(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.nodes[path]
	return ok
}

// consumerNodes returns the children of the interface's consumers node.
func (c *fakeClient) consumerNodes(root, interfaceName string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	consumers := "/" + root + "/" + interfaceName + "/consumers"
	var children []string
	for p := range c.nodes {
		if parentPath(p) == consumers {
			children = append(children, p[strings.LastIndex(p, "/")+1:])
		}
	}
	return children
}

// fireLocked delivers a one-shot children-changed event to every armed
// watch on path. Callers hold c.mu.
func (c *fakeClient) fireLocked(path string) {
	for _, watch := range c.watches[path] {
		watch <- zk.Event{Type: zk.EventNodeChildrenChanged, Path: path}
	}
	c.watches[path] = nil
}

func parentPath(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return ""
	}
	return path[:idx]
}
