package registry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/remote"
)

// Layer is one entry of a manifest's layer list.
type Layer struct {
	Digest string
	// Size is only meaningful when HasSize is set. Schema 1 manifests carry no sizes.
	Size    int64
	HasSize bool
}

// Client talks to a single registry over the distribution API.
type Client struct {
	registry   name.Registry
	authorizer Authorizer
	transport  http.RoundTripper
	userAgent  string
}

func NewClient(registryName string, opt ...Option) (*Client, error) {
	opts := makeOptions(opt...)
	reg, err := name.NewRegistry(registryName, opts.nameOpts...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse registry name '%v': %w", registryName, err)
	}
	return &Client{
		registry:   reg,
		authorizer: opts.authorizer,
		transport:  opts.transport,
		userAgent:  opts.userAgent,
	}, nil
}

// Registry returns the name of the registry the client is bound to.
func (c *Client) Registry() string {
	return c.registry.Name()
}

func (c *Client) remoteOptions(ctx context.Context, auth authn.Authenticator) []remote.Option {
	res := []remote.Option{
		remote.WithContext(ctx),
		remote.WithAuth(auth),
		remote.WithTransport(c.transport),
	}
	if c.userAgent != "" {
		res = append(res, remote.WithUserAgent(c.userAgent))
	}
	return res
}

func (c *Client) repository(repository string) name.Repository {
	return c.registry.Repo(repository)
}

// Catalog lists every repository of the registry, following pagination.
func (c *Client) Catalog(ctx context.Context) ([]string, error) {
	auth, err := c.authorizer.CatalogAuth(ctx, c.registry)
	if err != nil {
		return nil, err
	}
	repos, err := remote.Catalog(ctx, c.registry, c.remoteOptions(ctx, auth)...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogRead, err)
	}
	return repos, nil
}

// Tags lists the tags of a repository.
func (c *Client) Tags(ctx context.Context, repository string) ([]string, error) {
	repo := c.repository(repository)
	auth, err := c.authorizer.RepositoryAuth(ctx, repo)
	if err != nil {
		return nil, err
	}
	tags, err := remote.List(repo, c.remoteOptions(ctx, auth)...)
	if err != nil {
		return nil, fmt.Errorf("%w: repository '%s': %w", ErrTagsRead, repository, err)
	}
	return tags, nil
}

// TagLayers returns the ordered layer list of the manifest a tag points to.
func (c *Client) TagLayers(ctx context.Context, repository, tag string) ([]Layer, error) {
	repo := c.repository(repository)
	auth, err := c.authorizer.RepositoryAuth(ctx, repo)
	if err != nil {
		return nil, err
	}
	desc, err := remote.Get(repo.Tag(tag), c.remoteOptions(ctx, auth)...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s:%s: %w", ErrLayersRead, repository, tag, err)
	}
	layers, err := layersOf(desc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s:%s: %w", ErrLayersRead, repository, tag, err)
	}
	return layers, nil
}

// DeleteImage deletes the manifest identified by digest from a repository.
func (c *Client) DeleteImage(ctx context.Context, repository, digest string) error {
	repo := c.repository(repository)
	auth, err := c.authorizer.RepositoryAuth(ctx, repo)
	if err != nil {
		return err
	}
	if _, err := v1.NewHash(digest); err != nil {
		return fmt.Errorf("%w: %s@%s: %w", ErrImageDelete, repository, digest, err)
	}
	if err := remote.Delete(repo.Digest(digest), c.remoteOptions(ctx, auth)...); err != nil {
		return fmt.Errorf("%w: %s@%s: %w", ErrImageDelete, repository, digest, err)
	}
	return nil
}
