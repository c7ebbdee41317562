// Package resolver adapts a registry subscription into a grpc name
// resolver, so clients can dial discovered providers directly. Balancing
// policy stays with grpc; this only relays the address set.
package resolver

import (
	"github.com/hysios/zkregistry/logger"
	"github.com/hysios/zkregistry/registry"
	"go.uber.org/zap"
	grpcresolver "google.golang.org/grpc/resolver"
)

const Scheme = "zkregistry"

// Builder builds resolvers backed by a registry. Register it with
// grpc.WithResolvers or resolver.Register.
type Builder struct {
	reg registry.Registry
}

func NewBuilder(reg registry.Registry) *Builder {
	return &Builder{reg: reg}
}

func (b *Builder) Build(target grpcresolver.Target, cc grpcresolver.ClientConn, opts grpcresolver.BuildOptions) (grpcresolver.Resolver, error) {
	r := &addressResolver{reg: b.reg, cc: cc}
	b.reg.Subscribe(r)
	if err := b.reg.Start(); err != nil {
		return nil, err
	}
	return r, nil
}

func (b *Builder) Scheme() string {
	return Scheme
}

// addressResolver is both the grpc resolver and the registry subscriber.
type addressResolver struct {
	reg registry.Registry
	cc  grpcresolver.ClientConn
}

func (r *addressResolver) OnData(addrs []string) {
	state := grpcresolver.State{
		Addresses: make([]grpcresolver.Address, 0, len(addrs)),
	}
	for _, addr := range addrs {
		state.Addresses = append(state.Addresses, grpcresolver.Address{Addr: addr})
	}

	if err := r.cc.UpdateState(state); err != nil {
		logger.Logger.Warn("update resolver state", zap.Error(err))
	}
}

func (r *addressResolver) OnError(err error) {
	r.cc.ReportError(err)
}

func (r *addressResolver) ResolveNow(grpcresolver.ResolveNowOptions) {}

func (r *addressResolver) Close() {
	_ = r.reg.Close()
}
