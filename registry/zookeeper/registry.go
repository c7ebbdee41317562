// Package zookeeper implements a registry over a ZooKeeper ensemble.
//
// For every configured interface it tracks the children of
// /{root}/{interface}/providers with self-re-arming watches, folds the
// per-interface provider lists into one de-duplicated host:port set, and
// notifies the subscriber only when that set changes. It also registers
// the local process under /{root}/{interface}/consumers as an ephemeral
// node, so demand disappears with the session.
package zookeeper

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hysios/zkregistry/logger"
	"github.com/hysios/zkregistry/registry"
	"github.com/hysios/zkregistry/utils"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	DefaultRoot           = "dubbo"
	DefaultConnectTimeout = 30 * time.Second
	DefaultSessionTimeout = 30 * time.Second
)

// DefaultSettings is consulted by registries opened through
// registry.Open; replace it before opening, or pass WithSettings to New.
var DefaultSettings Settings = StaticSettings{}

func SetDefaultSettings(settings Settings) {
	DefaultSettings = settings
}

func init() {
	registry.Provider("zookeeper", func(opts registry.Options) (registry.Registry, error) {
		return New(opts)
	})
}

// Registry is the ZooKeeper-backed registry adapter.
type Registry struct {
	opts      registry.Options
	settings  Settings
	connector connectFn

	session   *sessionManager
	registrar *registrar
	store     *urlStore

	// mu guards the subscriber and the previously emitted set, so the
	// aggregate snapshot, the change comparison and the emission happen
	// as one atomic step.
	mu   sync.Mutex
	sub  registry.Subscriber
	prev map[string]struct{}
	// seeded is false while a bootstrap is in flight; watch fires still
	// update the store then, but only the seed may notify, so the first
	// emission of a session is never a partial aggregate.
	seeded bool

	// one active refresh per interface at a time
	refreshMu map[string]*sync.Mutex

	done      chan struct{}
	closeOnce sync.Once
}

type Option func(r *Registry)

// WithSettings overrides the interface settings source.
func WithSettings(settings Settings) Option {
	return func(r *Registry) {
		r.settings = settings
	}
}

func withConnector(connect connectFn) Option {
	return func(r *Registry) {
		r.connector = connect
	}
}

// New builds a registry for opts. The registry does nothing until Start.
func New(opts registry.Options, optfns ...Option) (*Registry, error) {
	if len(opts.Servers) == 0 {
		return nil, errors.New("zookeeper: no ensemble servers")
	}
	if opts.Application == "" {
		return nil, errors.New("zookeeper: application name is required")
	}
	if len(opts.Interfaces) == 0 {
		return nil, errors.New("zookeeper: no interfaces to track")
	}

	if opts.Root == "" {
		opts.Root = DefaultRoot
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.SessionTimeout == 0 {
		opts.SessionTimeout = DefaultSessionTimeout
	}

	r := &Registry{
		opts:      opts,
		settings:  DefaultSettings,
		connector: dial,
		store:     newURLStore(opts.Interfaces),
		refreshMu: make(map[string]*sync.Mutex, len(opts.Interfaces)),
		done:      make(chan struct{}),
	}
	for _, fn := range optfns {
		fn(r)
	}

	for _, name := range opts.Interfaces {
		r.refreshMu[name] = &sync.Mutex{}
	}

	r.session = newSessionManager(r.connector, opts.ConnectTimeout, opts.SessionTimeout)
	r.registrar = &registrar{
		client:   r.session.Client,
		settings: r.settings,
		root:     opts.Root,
		localIP:  utils.LocalIP(),
	}

	return r, nil
}

// Subscribe sets the downstream subscriber. Call before Start.
func (r *Registry) Subscribe(sub registry.Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sub = sub
}

// Start dials the ensemble. Bootstrapping runs once the session is up;
// session failures are forwarded to the subscriber's error path.
func (r *Registry) Start() error {
	return r.session.Connect(strings.Join(r.opts.Servers, ","), r.onSession)
}

func (r *Registry) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		r.session.Close()
	})
	return nil
}

// onSession is the level-triggered session health callback.
func (r *Registry) onSession(err error) {
	if err != nil {
		logger.Logger.Warn("zookeeper session failure", zap.Error(err))
		r.mu.Lock()
		sub := r.sub
		r.mu.Unlock()
		if sub != nil {
			sub.OnError(err)
		}
		return
	}

	r.bootstrap()
}

// bootstrap refreshes every configured interface, registers their
// consumers, and unconditionally seeds the subscriber with the initial
// aggregate. Runs once per successful (re)connection.
func (r *Registry) bootstrap() {
	r.mu.Lock()
	r.seeded = false
	r.mu.Unlock()

	var errs error
	for _, name := range r.opts.Interfaces {
		if err := r.refreshInterface(name); err != nil {
			errs = multierr.Append(errs, err)
		}
		// consumer registration is independently fallible: a missing
		// setting never blocks provider tracking
		if err := r.registrar.Register(r.opts.Application, name); err != nil {
			logger.Logger.Error("register consumer",
				zap.String("interface", name), zap.Error(err))
		}
	}
	if errs != nil {
		logger.Logger.Warn("bootstrap finished with errors", zap.Error(errs))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.seeded = true
	cur := r.store.Aggregate()
	r.prev = cur
	if r.sub != nil {
		r.sub.OnData(sortedAddrs(cur))
	}
}

// refreshInterface runs one provider refresh while holding the
// interface's refresh lock, so no store entry is ever written by two
// flows at once.
func (r *Registry) refreshInterface(name string) error {
	mu := r.refreshMu[name]
	if mu == nil {
		return errors.Errorf("zookeeper: unknown interface %s", name)
	}
	mu.Lock()
	defer mu.Unlock()
	return r.refreshProviders(name)
}

// refresh handles a watch fire for one interface: re-fetch its provider
// list, re-register the consumer, and notify the subscriber if the
// aggregate address set changed.
func (r *Registry) refresh(name string) {
	select {
	case <-r.done:
		return
	default:
	}

	if err := r.refreshInterface(name); err != nil {
		// keep serving the cached entry; the next session event or watch
		// fire is the natural retry
		logger.Logger.Warn("refresh providers",
			zap.String("interface", name), zap.Error(err))
		return
	}

	if r.store.Count(name) == 0 {
		logger.Logger.Warn("provider list went empty",
			zap.String("interface", name),
			zap.Error(&EmptyProviderListError{Interface: name}))
	}

	if err := r.registrar.Register(r.opts.Application, name); err != nil {
		logger.Logger.Error("register consumer",
			zap.String("interface", name), zap.Error(err))
	}

	r.emitIfChanged()
}

// refreshProviders fetches the interface's provider children and fully
// replaces its store entry. Malformed addresses are dropped, not fatal.
func (r *Registry) refreshProviders(name string) error {
	path := fmt.Sprintf("/%s/%s/providers", r.opts.Root, name)
	raw, err := r.fetchAndWatch(path, name)
	if err != nil {
		return err
	}

	urls := make([]*registry.URL, 0, len(raw))
	for _, addr := range raw {
		u, err := registry.ParseURL(addr)
		if err != nil {
			logger.Logger.Warn("drop malformed provider address",
				zap.String("interface", name), zap.Error(err))
			continue
		}
		urls = append(urls, u)
	}

	r.store.Replace(name, urls)
	return nil
}

// emitIfChanged snapshots the aggregate and notifies the subscriber only
// when it differs from the previously emitted set.
func (r *Registry) emitIfChanged() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.seeded {
		return
	}

	cur := r.store.Aggregate()
	if !changed(r.prev, cur) {
		return
	}
	r.prev = cur

	if r.sub != nil {
		r.sub.OnData(sortedAddrs(cur))
	}
}
