package zookeeper

import (
	"sort"
	"sync"

	"github.com/hysios/zkregistry/registry"
)

// urlStore holds, per interface, the most recently observed provider
// URLs. Entries are created once at construction and fully replaced on
// every refresh; they are never removed for the registry's lifetime.
type urlStore struct {
	mu   sync.RWMutex
	urls map[string][]*registry.URL
}

func newURLStore(interfaces []string) *urlStore {
	urls := make(map[string][]*registry.URL, len(interfaces))
	for _, name := range interfaces {
		urls[name] = []*registry.URL{}
	}
	return &urlStore{urls: urls}
}

// Replace overwrites the interface's entry with urls. The ensemble's
// child listing is always a full snapshot, so entries are never merged.
func (s *urlStore) Replace(name string, urls []*registry.URL) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if urls == nil {
		urls = []*registry.URL{}
	}
	s.urls[name] = urls
}

// URLs returns the current entry for the interface.
func (s *urlStore) URLs(name string) []*registry.URL {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.urls[name]
}

// Count returns the number of providers currently stored for the interface.
func (s *urlStore) Count(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.urls[name])
}

// Aggregate flattens every interface's entry into a de-duplicated
// host:port set. It is a pure read over a single snapshot of the store.
func (s *urlStore) Aggregate() map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := make(map[string]struct{})
	for _, urls := range s.urls {
		for _, u := range urls {
			set[u.Address()] = struct{}{}
		}
	}
	return set
}

// changed reports whether two address sets differ, order-independent.
func changed(prev, cur map[string]struct{}) bool {
	if len(prev) != len(cur) {
		return true
	}
	for addr := range cur {
		if _, ok := prev[addr]; !ok {
			return true
		}
	}
	return false
}

// sortedAddrs renders an address set as a sorted slice for emission.
func sortedAddrs(set map[string]struct{}) []string {
	addrs := make([]string, 0, len(set))
	for addr := range set {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs
}
