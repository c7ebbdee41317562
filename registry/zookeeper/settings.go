package zookeeper

import (
	"strings"

	"github.com/hysios/zkregistry/config"
)

// Setting is the group/version pairing configured for one interface.
type Setting struct {
	Group   string
	Version string
}

// Settings looks up the configured pairing for an interface. A missing
// entry is a configuration defect reported by the registrar.
type Settings interface {
	Setting(interfaceName string) (Setting, bool)
}

// StaticSettings serves settings from a fixed map keyed by interface name.
type StaticSettings map[string]Setting

func (s StaticSettings) Setting(interfaceName string) (Setting, bool) {
	setting, ok := s[interfaceName]
	return setting, ok
}

// ConfigSettings reads interface settings from a layered config store,
// under services.<interface>.{group,version}.
type ConfigSettings struct {
	Config *config.Config
}

func (s *ConfigSettings) Setting(interfaceName string) (Setting, bool) {
	val, ok := s.Config.Get("services")
	if !ok {
		return Setting{}, false
	}

	services := val.MSI()
	entry, ok := services[interfaceName]
	if !ok {
		// file-backed providers lowercase keys, so retry case-insensitively
		for key, v := range services {
			if strings.EqualFold(key, interfaceName) {
				entry, ok = v, true
				break
			}
		}
	}
	if !ok {
		return Setting{}, false
	}

	var fields map[string]interface{}
	switch e := entry.(type) {
	case map[string]interface{}:
		fields = e
	case config.Map:
		fields = e
	default:
		return Setting{}, false
	}

	m := config.NewMap(fields)
	return Setting{
		Group:   m.Get("group").Str(),
		Version: m.Get("version").Str(),
	}, true
}
