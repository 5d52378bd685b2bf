package usage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/macvmio/regusage/pkg/registry"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Client is the part of the registry API the builder reads from.
type Client interface {
	Tags(ctx context.Context, repository string) ([]string, error)
	TagLayers(ctx context.Context, repository, tag string) ([]registry.Layer, error)
	LayerSize(ctx context.Context, repository, digest string) (int64, error)
}

// Progress tells how many repositories of a build are read.
type Progress struct {
	Repository string
	Done       int
	Total      int
}

// Builder reads the layers of a list of repositories into a Snapshot.
type Builder struct {
	client Client
	opts   *options
}

func NewBuilder(client Client, opt ...Option) *Builder {
	return &Builder{client: client, opts: makeOptions(opt...)}
}

// Build reads every repository and sizes every distinct layer.
//
// A repository whose tags or manifests can not be read is recorded as
// unavailable and the build goes on. Any other error, a layer that can not be
// sized in particular, aborts the build.
func (b *Builder) Build(ctx context.Context, repositories []string) (*Snapshot, error) {
	table := newSizeTable(b.client)
	results := make([]RepositoryLayers, len(repositories))
	var done atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.workersCount)
	for i, repository := range repositories {
		i, repository := i, repository
		g.Go(func() error {
			repo, err := b.buildRepository(ctx, table, repository)
			if err != nil {
				return err
			}
			results[i] = repo
			return b.report(ctx, Progress{
				Repository: repository,
				Done:       int(done.Add(1)),
				Total:      len(repositories),
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	layers := make(LayerMap, len(repositories))
	for i, repository := range repositories {
		layers[repository] = results[i]
	}
	return NewSnapshot(layers, table.snapshot())
}

func (b *Builder) report(ctx context.Context, p Progress) error {
	if b.opts.progress == nil {
		return nil
	}
	select {
	case b.opts.progress <- p:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Builder) buildRepository(ctx context.Context, table *sizeTable, repository string) (RepositoryLayers, error) {
	tags, err := b.client.Tags(ctx, repository)
	if errors.Is(err, registry.ErrTagsRead) {
		return UnavailableRepository(), nil
	}
	if err != nil {
		return RepositoryLayers{}, err
	}

	manifests := make(map[string][]registry.Layer, len(tags))
	for _, tag := range tags {
		layers, err := b.client.TagLayers(ctx, repository, tag)
		if errors.Is(err, registry.ErrLayersRead) {
			return UnavailableRepository(), nil
		}
		if err != nil {
			return RepositoryLayers{}, err
		}
		manifests[tag] = layers
	}

	res := make(map[string]TagLayers, len(manifests))
	for tag, layers := range manifests {
		tagLayers := make(TagLayers, 0, len(layers))
		for _, l := range layers {
			d := Digest(l.Digest)
			if l.HasSize {
				table.store(d, l.Size)
			} else if err := table.resolve(ctx, repository, d); err != nil {
				return RepositoryLayers{}, err
			}
			tagLayers = append(tagLayers, d)
		}
		res[tag] = tagLayers
	}
	return AvailableRepository(res), nil
}

// sizeTable collects layer sizes from concurrent workers. A size is immutable
// once known, so the last writer wins.
type sizeTable struct {
	client Client
	group  singleflight.Group

	mu    sync.Mutex
	sizes SizeTable
}

func newSizeTable(client Client) *sizeTable {
	return &sizeTable{client: client, sizes: SizeTable{}}
}

func (t *sizeTable) store(d Digest, size int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sizes[d] = size
}

func (t *sizeTable) lookup(d Digest) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.sizes[d]
	return ok
}

// resolve asks the registry for the size of d unless it is already known
// or another worker is asking right now.
func (t *sizeTable) resolve(ctx context.Context, repository string, d Digest) error {
	if t.lookup(d) {
		return nil
	}
	_, err, _ := t.group.Do(string(d), func() (interface{}, error) {
		if t.lookup(d) {
			return nil, nil
		}
		size, err := t.client.LayerSize(ctx, repository, string(d))
		if err != nil {
			return nil, err
		}
		t.store(d, size)
		return nil, nil
	})
	return err
}

func (t *sizeTable) snapshot() SizeTable {
	t.mu.Lock()
	defer t.mu.Unlock()
	res := make(SizeTable, len(t.sizes))
	for d, n := range t.sizes {
		res[d] = n
	}
	return res
}
