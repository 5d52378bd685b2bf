package usage

import (
	"cmp"
	"slices"
)

// Digest identifies a blob. Two digests are the same blob exactly when the strings are equal.
type Digest string

// TagLayers is the ordered layer list of the manifest a tag points to.
type TagLayers []Digest

// RepositoryLayers holds the layers of every tag of one repository, or marks
// the repository as unavailable when its tags or manifests could not be read.
type RepositoryLayers struct {
	Tags        map[string]TagLayers
	Unavailable bool
}

// AvailableRepository wraps a tag map.
func AvailableRepository(tags map[string]TagLayers) RepositoryLayers {
	if tags == nil {
		tags = map[string]TagLayers{}
	}
	return RepositoryLayers{Tags: tags}
}

// UnavailableRepository is the marker for a repository that exists in the catalog but could not be read.
func UnavailableRepository() RepositoryLayers {
	return RepositoryLayers{Unavailable: true}
}

// SortedTags returns the tag names in lexicographic order.
func (r RepositoryLayers) SortedTags() []string {
	if r.Unavailable {
		return nil
	}
	return sortedKeys(r.Tags)
}

// LayerMap maps repository names to their layers. Its keys are exactly the catalog.
type LayerMap map[string]RepositoryLayers

// SortedRepositories returns repository names in lexicographic order.
func (m LayerMap) SortedRepositories() []string {
	return sortedKeys(m)
}

// Digests returns every distinct digest referenced by an available repository.
func (m LayerMap) Digests() []Digest {
	seen := make(map[Digest]struct{})
	for _, repo := range m {
		if repo.Unavailable {
			continue
		}
		for _, layers := range repo.Tags {
			for _, d := range layers {
				seen[d] = struct{}{}
			}
		}
	}
	return sortedKeys(seen)
}

func (m LayerMap) clone() LayerMap {
	res := make(LayerMap, len(m))
	for name, repo := range m {
		if repo.Unavailable {
			res[name] = UnavailableRepository()
			continue
		}
		tags := make(map[string]TagLayers, len(repo.Tags))
		for tag, layers := range repo.Tags {
			tags[tag] = slices.Clone(layers)
		}
		res[name] = AvailableRepository(tags)
	}
	return res
}

// SizeTable maps every distinct digest to its size in bytes.
type SizeTable map[Digest]int64

// Owner is the tag credited with a layer's bytes in disk-size accounting.
type Owner struct {
	Repository string
	Tag        string
}

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
