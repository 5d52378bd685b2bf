package registry

import (
	"net/http"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
)

type options struct {
	authorizer Authorizer
	transport  http.RoundTripper
	nameOpts   []name.Option
	userAgent  string
}

type Option func(opts *options)

func WithAuthorizer(a Authorizer) Option {
	return func(o *options) {
		o.authorizer = a
	}
}

func WithTransport(t http.RoundTripper) Option {
	return func(o *options) {
		o.transport = t
	}
}

// WithInsecure allows plain http for registries that are not on a loopback address.
func WithInsecure() Option {
	return func(o *options) {
		o.nameOpts = append(o.nameOpts, name.Insecure)
	}
}

func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

func makeOptions(opts ...Option) *options {
	res := options{
		authorizer: NewKeychainAuthorizer(authn.DefaultKeychain),
		transport:  http.DefaultTransport,
		nameOpts:   []name.Option{name.StrictValidation},
	}
	for _, o := range opts {
		o(&res)
	}
	return &res
}
