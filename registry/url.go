package registry

import (
	"net"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
)

// DubboScheme is the scheme prefix of provider address strings published
// under a providers node.
const DubboScheme = "dubbo"

// URL is the structured form of one provider's encoded address string,
// e.g. dubbo://10.0.0.1:20880/com.example.Foo?version=1.0.0.
type URL struct {
	Scheme string
	Host   string
	Port   int
	Path   string
	Params url.Values
}

// ParseURL parses a decoded provider address string.
func ParseURL(raw string) (*URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedURL, "parse %q: %v", raw, err)
	}

	if u.Hostname() == "" {
		return nil, errors.Wrapf(ErrMalformedURL, "missing host in %q", raw)
	}

	var port int
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedURL, "bad port in %q", raw)
		}
	}

	return &URL{
		Scheme: u.Scheme,
		Host:   u.Hostname(),
		Port:   port,
		Path:   u.Path,
		Params: u.Query(),
	}, nil
}

// Address returns the provider's host:port key.
func (u *URL) Address() string {
	return net.JoinHostPort(u.Host, strconv.Itoa(u.Port))
}

// Param returns the named query parameter, or fallback when absent.
func (u *URL) Param(key, fallback string) string {
	if u.Params == nil {
		return fallback
	}
	if v := u.Params.Get(key); v != "" {
		return v
	}
	return fallback
}

// String re-encodes the URL as a provider address string.
func (u *URL) String() string {
	out := url.URL{
		Scheme:   u.Scheme,
		Host:     u.Address(),
		Path:     u.Path,
		RawQuery: u.Params.Encode(),
	}
	return out.String()
}
