package zookeeper

import (
	"net/url"
	"strings"

	"github.com/hysios/zkregistry/logger"
	"github.com/hysios/zkregistry/registry"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// fetchAndWatch lists the provider children at path and arms a one-shot
// watch that re-runs the refresh for interfaceName when the ensemble
// reports a change. Every fetch arms exactly one new watch, so the node
// stays monitored for as long as fetches keep succeeding.
func (r *Registry) fetchAndWatch(path, interfaceName string) ([]string, error) {
	client := r.session.Client()
	if client == nil {
		return nil, errors.New("zookeeper: no session")
	}

	children, events, err := client.ChildrenW(path)
	if err != nil {
		return nil, errors.Wrapf(err, "list providers at %s", path)
	}

	go func() {
		select {
		case <-r.done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Err != nil {
				logger.Logger.Warn("provider watch event error",
					zap.String("interface", interfaceName),
					zap.Error(ev.Err))
			}
			r.refresh(interfaceName)
		}
	}()

	// children are percent-encoded; keep only well-formed provider
	// addresses and drop stale or foreign entries silently
	raw := make([]string, 0, len(children))
	for _, child := range children {
		decoded, err := url.QueryUnescape(child)
		if err != nil {
			continue
		}
		if !strings.HasPrefix(decoded, registry.DubboScheme+"://") {
			continue
		}
		raw = append(raw, decoded)
	}

	return raw, nil
}
