package registry

import (
	"time"

	"github.com/hysios/zkregistry/utils"
)

// Subscriber receives the aggregated provider address set. OnData is
// invoked once when the registry finishes bootstrapping and afterwards
// only when the set actually changes. OnError is invoked on unrecoverable
// session failures.
type Subscriber interface {
	OnData(addrs []string)
	OnError(err error)
}

// Registry tracks the providers of a fixed set of interfaces and
// registers the local process as their consumer.
type Registry interface {
	Start() error
	Subscribe(sub Subscriber)
	Close() error
}

// Options configures a registry provider.
type Options struct {
	Servers        []string
	Application    string
	Interfaces     []string
	Root           string        // registry namespace root, defaults to "dubbo"
	ConnectTimeout time.Duration // window for the first session event, defaults to 30s
	SessionTimeout time.Duration
}

type Ctor func(opts Options) (Registry, error)

var providerRegistry = utils.Registry[Ctor]{}

func Provider(name string, ctor Ctor) {
	providerRegistry.Register(name, ctor)
}

func Lookup(name string) (ctor Ctor, ok bool) {
	return providerRegistry.Lookup(name)
}

func Open(name string, opts Options) (Registry, error) {
	ctor, ok := Lookup(name)
	if !ok {
		return nil, ErrProviderNotFound
	}

	return ctor(opts)
}

func Range(fn func(name string, ctor Ctor)) {
	providerRegistry.Range(fn)
}
