package usage

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Snapshot is an immutable view of a registry's layers. Every derived value is
// computed on first access and kept for the lifetime of the snapshot.
type Snapshot struct {
	layers LayerMap
	sizes  SizeTable

	attributionOnce sync.Once
	owners          map[Digest]Owner
	primary         LayerMap

	logicalOnce     sync.Once
	tagSizes        map[string]map[string]int64
	repositorySizes map[string]Size
	totalSize       int64

	diskOnce            sync.Once
	tagDiskSizes        map[string]map[string]int64
	repositoryDiskSizes map[string]Size
	totalDiskSize       int64
}

// NewSnapshot copies layers and sizes into a snapshot. Every digest referenced
// by an available repository must have a size.
func NewSnapshot(layers LayerMap, sizes SizeTable) (*Snapshot, error) {
	for _, d := range layers.Digests() {
		if _, ok := sizes[d]; !ok {
			return nil, fmt.Errorf("layer '%s' has no size", d)
		}
	}
	for d, n := range sizes {
		if n < 0 {
			return nil, fmt.Errorf("layer '%s' has negative size %d", d, n)
		}
	}
	return &Snapshot{
		layers: layers.clone(),
		sizes:  maps.Clone(sizes),
	}, nil
}

func (s *Snapshot) attribute() {
	s.attributionOnce.Do(func() {
		s.owners = Attribute(s.layers, s.sizes)
		s.primary = PrimaryLayers(s.layers, s.owners)
	})
}

func (s *Snapshot) rollupLogical() {
	s.logicalOnce.Do(func() {
		s.tagSizes = SumTagSizes(s.layers, s.sizes)
		s.repositorySizes = SumRepositorySizes(s.layers, s.tagSizes)
		s.totalSize = SumTotal(s.repositorySizes)
	})
}

func (s *Snapshot) rollupDisk() {
	s.attribute()
	s.diskOnce.Do(func() {
		s.tagDiskSizes = SumTagSizes(s.primary, s.sizes)
		s.repositoryDiskSizes = SumRepositorySizes(s.primary, s.tagDiskSizes)
		s.totalDiskSize = SumTotal(s.repositoryDiskSizes)
	})
}

// Repositories returns every catalog repository, sorted by name.
func (s *Snapshot) Repositories() []string {
	return s.layers.SortedRepositories()
}

// Available reports whether the tags and layers of a repository could be read.
func (s *Snapshot) Available(repository string) bool {
	repo, ok := s.layers[repository]
	return ok && !repo.Unavailable
}

// Tags returns the sorted tags of a repository, nil when it is unavailable.
func (s *Snapshot) Tags(repository string) []string {
	return s.layers[repository].SortedTags()
}

func (s *Snapshot) TagLayers(repository, tag string) TagLayers {
	return slices.Clone(s.layers[repository].Tags[tag])
}

func (s *Snapshot) LayerSizes() SizeTable {
	return maps.Clone(s.sizes)
}

// Owners returns the owning tag of every digest.
func (s *Snapshot) Owners() map[Digest]Owner {
	s.attribute()
	return maps.Clone(s.owners)
}

// PrimaryLayers returns the layer map restricted to the digests each tag owns.
func (s *Snapshot) PrimaryLayers() LayerMap {
	s.attribute()
	return s.primary.clone()
}

func tagSize(sizes map[string]map[string]int64, repository, tag string) Size {
	tags, ok := sizes[repository]
	if !ok {
		return Unavailable()
	}
	n, ok := tags[tag]
	if !ok {
		return Unavailable()
	}
	return Known(n)
}

func repositorySize(sizes map[string]Size, repository string) Size {
	if n, ok := sizes[repository]; ok {
		return n
	}
	return Unavailable()
}

// TagSize is the logical size of a tag: the sum of all its layers.
func (s *Snapshot) TagSize(repository, tag string) Size {
	s.rollupLogical()
	return tagSize(s.tagSizes, repository, tag)
}

// TagDiskSize is the sum of the layers a tag owns.
func (s *Snapshot) TagDiskSize(repository, tag string) Size {
	s.rollupDisk()
	return tagSize(s.tagDiskSizes, repository, tag)
}

func (s *Snapshot) RepositorySize(repository string) Size {
	s.rollupLogical()
	return repositorySize(s.repositorySizes, repository)
}

func (s *Snapshot) RepositoryDiskSize(repository string) Size {
	s.rollupDisk()
	return repositorySize(s.repositoryDiskSizes, repository)
}

// TotalSize sums the logical sizes of all available repositories.
func (s *Snapshot) TotalSize() int64 {
	s.rollupLogical()
	return s.totalSize
}

// TotalDiskSize sums the disk sizes of all available repositories. It equals
// the number of distinct bytes the available repositories reference.
func (s *Snapshot) TotalDiskSize() int64 {
	s.rollupDisk()
	return s.totalDiskSize
}

// TagUsage is the rolled-up usage of a single tag.
type TagUsage struct {
	Name     string `json:"name" yaml:"name"`
	Layers   int    `json:"layers" yaml:"layers"`
	Size     Size   `json:"size" yaml:"size"`
	DiskSize Size   `json:"disk_size" yaml:"disk_size"`
}

// RepositoryUsage is the rolled-up usage of a repository and its tags.
type RepositoryUsage struct {
	Name      string     `json:"name" yaml:"name"`
	Available bool       `json:"available" yaml:"available"`
	Size      Size       `json:"size" yaml:"size"`
	DiskSize  Size       `json:"disk_size" yaml:"disk_size"`
	Tags      []TagUsage `json:"tags" yaml:"tags"`
}

// Usage lists every repository with its tags, both sorted by name.
func (s *Snapshot) Usage() []RepositoryUsage {
	res := make([]RepositoryUsage, 0, len(s.layers))
	for _, repoName := range s.Repositories() {
		ru := RepositoryUsage{
			Name:      repoName,
			Available: s.Available(repoName),
			Size:      s.RepositorySize(repoName),
			DiskSize:  s.RepositoryDiskSize(repoName),
			Tags:      []TagUsage{},
		}
		for _, tag := range s.Tags(repoName) {
			ru.Tags = append(ru.Tags, TagUsage{
				Name:     tag,
				Layers:   len(s.layers[repoName].Tags[tag]),
				Size:     s.TagSize(repoName, tag),
				DiskSize: s.TagDiskSize(repoName, tag),
			})
		}
		res = append(res, ru)
	}
	return res
}
