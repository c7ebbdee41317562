package config

import (
	"github.com/stretchr/objx"
)

type (
	Map   = objx.Map
	Value = objx.Value
)

// NewMap wraps a plain map in a selector-addressable Map.
func NewMap(m map[string]interface{}) Map {
	return objx.New(m)
}

// Config is a layered, read-mostly settings store. Lookups walk the
// providers from last added to first, then fall back to the defaults.
type Config struct {
	defaults  Map
	providers []Provider
}

// NewConfig returns a new config.
func NewConfig(defaults map[string]interface{}, providers ...Provider) *Config {
	return &Config{
		defaults:  objx.New(defaults),
		providers: providers,
	}
}

func (c *Config) reverseProviders() []Provider {
	var providers = make([]Provider, len(c.providers))
	for i, p := range c.providers {
		providers[len(c.providers)-i-1] = p
	}

	return providers
}

// Get returns the value of the given selector.
func (c *Config) Get(selector string) (val *Value, ok bool) {
	for _, p := range c.reverseProviders() {
		if val, ok = p.LookupPath(selector); ok {
			return
		}
	}

	val = c.defaults.Get(selector)
	ok = !val.IsNil()
	return
}

// All merges every provider's data over the defaults.
func (c *Config) All() Map {
	var m = Map{}
	m.MergeHere(c.defaults)
	for _, p := range c.reverseProviders() {
		m.MergeHere(p.Data())
	}

	return m
}

// Str returns the string value of the given selector.
func (c *Config) Str(selector string) string {
	val, ok := c.Get(selector)
	if !ok {
		return ""
	}
	return val.Str()
}

// Int returns the int value of the given selector.
func (c *Config) Int(selector string) int {
	val, ok := c.Get(selector)
	if !ok {
		return 0
	}
	return val.Int()
}

// Bool returns the bool value of the given selector.
func (c *Config) Bool(selector string) bool {
	val, ok := c.Get(selector)
	if !ok {
		return false
	}
	return val.Bool()
}
