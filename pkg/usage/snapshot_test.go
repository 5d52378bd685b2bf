package usage

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleLayers() (LayerMap, SizeTable) {
	layers := LayerMap{
		"A": AvailableRepository(map[string]TagLayers{"v1": {"L1", "L2"}}),
		"B": AvailableRepository(map[string]TagLayers{"v1": {"L2", "L3"}}),
	}
	sizes := SizeTable{"L1": 10, "L2": 20, "L3": 5}
	return layers, sizes
}

func mustSnapshot(t *testing.T, layers LayerMap, sizes SizeTable) *Snapshot {
	t.Helper()
	s, err := NewSnapshot(layers, sizes)
	require.NoError(t, err)
	return s
}

func TestSnapshot_sharedLayerTieGoesToFirstRepository(t *testing.T) {
	layers, sizes := exampleLayers()
	s := mustSnapshot(t, layers, sizes)

	assert.Equal(t, Owner{Repository: "A", Tag: "v1"}, s.Owners()["L2"])
	assert.Equal(t, Known(30), s.TagDiskSize("A", "v1"))
	assert.Equal(t, Known(5), s.TagDiskSize("B", "v1"))
	assert.Equal(t, Known(30), s.TagSize("A", "v1"))
	assert.Equal(t, Known(25), s.TagSize("B", "v1"))
	assert.Equal(t, int64(35), s.TotalDiskSize())
	assert.Equal(t, int64(55), s.TotalSize())
}

func TestSnapshot_smallerTagTakesOverSharedLayer(t *testing.T) {
	layers, sizes := exampleLayers()
	layers["C"] = AvailableRepository(map[string]TagLayers{"v1": {"L2"}})
	s := mustSnapshot(t, layers, sizes)

	assert.Equal(t, Owner{Repository: "C", Tag: "v1"}, s.Owners()["L2"])
	assert.Equal(t, Known(10), s.TagDiskSize("A", "v1"))
	assert.Equal(t, Known(5), s.TagDiskSize("B", "v1"))
	assert.Equal(t, Known(20), s.TagDiskSize("C", "v1"))
	assert.Equal(t, int64(35), s.TotalDiskSize())
	assert.Equal(t, int64(75), s.TotalSize())
}

func TestSnapshot_unavailableRepositoryIsNeverZero(t *testing.T) {
	layers, sizes := exampleLayers()
	layers["D"] = UnavailableRepository()
	s := mustSnapshot(t, layers, sizes)

	assert.False(t, s.Available("D"))
	assert.Nil(t, s.Tags("D"))
	assert.False(t, s.RepositorySize("D").IsKnown())
	assert.False(t, s.RepositoryDiskSize("D").IsKnown())
	assert.False(t, s.TagSize("D", "v1").IsKnown())
	assert.False(t, s.TagDiskSize("D", "v1").IsKnown())
	assert.Equal(t, int64(35), s.TotalDiskSize())
	assert.Equal(t, int64(55), s.TotalSize())
	assert.Equal(t, []string{"A", "B", "D"}, s.Repositories())
}

func TestSnapshot_layerOnlyInUnavailableRepositoryHasNoOwner(t *testing.T) {
	layers := LayerMap{
		"A": AvailableRepository(map[string]TagLayers{"v1": {"L1"}}),
		"B": UnavailableRepository(),
	}
	s := mustSnapshot(t, layers, SizeTable{"L1": 1, "L9": 9})

	owners := s.Owners()
	assert.Len(t, owners, 1)
	assert.NotContains(t, owners, Digest("L9"))
	assert.Equal(t, int64(1), s.TotalDiskSize())
}

func TestSnapshot_repeatedLayerWithinTag(t *testing.T) {
	layers := LayerMap{
		"A": AvailableRepository(map[string]TagLayers{"v1": {"L1", "L2", "L1"}}),
	}
	s := mustSnapshot(t, layers, SizeTable{"L1": 4, "L2": 3})

	assert.Equal(t, Known(11), s.TagSize("A", "v1"))
	assert.Equal(t, Known(7), s.TagDiskSize("A", "v1"))
	assert.Equal(t, TagLayers{"L1", "L2"}, s.PrimaryLayers()["A"].Tags["v1"])
}

func TestSnapshot_emptyRepository(t *testing.T) {
	layers := LayerMap{"empty": AvailableRepository(nil)}
	s := mustSnapshot(t, layers, SizeTable{})

	assert.Equal(t, Known(0), s.RepositorySize("empty"))
	assert.Equal(t, Known(0), s.RepositoryDiskSize("empty"))
	assert.Equal(t, int64(0), s.TotalSize())
}

func TestNewSnapshot_rejectsUnsizedLayer(t *testing.T) {
	layers := LayerMap{"A": AvailableRepository(map[string]TagLayers{"v1": {"L1", "L2"}})}
	_, err := NewSnapshot(layers, SizeTable{"L1": 1})
	assert.ErrorContains(t, err, "layer 'L2' has no size")

	_, err = NewSnapshot(layers, SizeTable{"L1": 1, "L2": -1})
	assert.ErrorContains(t, err, "negative size")
}

func TestNewSnapshot_isNotAffectedByLaterMutation(t *testing.T) {
	layers, sizes := exampleLayers()
	s := mustSnapshot(t, layers, sizes)
	sizes["L1"] = 1000
	layers["A"].Tags["v1"][0] = "L3"

	assert.Equal(t, int64(55), s.TotalSize())
	assert.Equal(t, TagLayers{"L1", "L2"}, s.TagLayers("A", "v1"))
}

func TestSnapshot_Usage(t *testing.T) {
	layers, sizes := exampleLayers()
	layers["D"] = UnavailableRepository()
	s := mustSnapshot(t, layers, sizes)

	u := s.Usage()
	require.Len(t, u, 3)
	assert.Equal(t, RepositoryUsage{
		Name:      "A",
		Available: true,
		Size:      Known(30),
		DiskSize:  Known(30),
		Tags:      []TagUsage{{Name: "v1", Layers: 2, Size: Known(30), DiskSize: Known(30)}},
	}, u[0])
	assert.Equal(t, "D", u[2].Name)
	assert.False(t, u[2].Available)
	assert.Empty(t, u[2].Tags)
	assert.False(t, u[2].Size.IsKnown())
}

func randomRegistry(rng *rand.Rand) (LayerMap, SizeTable) {
	sizes := SizeTable{}
	digestsCount := 1 + rng.Intn(30)
	for i := 0; i < digestsCount; i++ {
		sizes[Digest(fmt.Sprintf("sha256:%04d", i))] = rng.Int63n(1 << 20)
	}
	layers := LayerMap{}
	for r := 0; r < 1+rng.Intn(6); r++ {
		repoName := fmt.Sprintf("repo-%d", r)
		if rng.Intn(5) == 0 {
			layers[repoName] = UnavailableRepository()
			continue
		}
		tags := map[string]TagLayers{}
		for tg := 0; tg < rng.Intn(5); tg++ {
			var tl TagLayers
			for l := 0; l < 1+rng.Intn(8); l++ {
				tl = append(tl, Digest(fmt.Sprintf("sha256:%04d", rng.Intn(digestsCount))))
			}
			tags[fmt.Sprintf("v%d", tg)] = tl
		}
		layers[repoName] = AvailableRepository(tags)
	}
	return layers, sizes
}

func TestSnapshot_accountingProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		layers, sizes := randomRegistry(rng)
		s := mustSnapshot(t, layers, sizes)
		owners := s.Owners()

		t.Run(fmt.Sprintf("registry %d", i), func(t *testing.T) {
			for _, d := range layers.Digests() {
				owner, ok := owners[d]
				require.True(t, ok, "digest %s has no owner", d)
				assert.Contains(t, layers[owner.Repository].Tags[owner.Tag], d)
			}

			var ownedBytes, repoDiskBytes, repoBytes int64
			for d := range owners {
				ownedBytes += sizes[d]
			}
			for _, repoName := range s.Repositories() {
				if !s.Available(repoName) {
					assert.False(t, s.RepositoryDiskSize(repoName).IsKnown())
					continue
				}
				n, ok := s.RepositoryDiskSize(repoName).Bytes()
				require.True(t, ok)
				repoDiskBytes += n
				n, ok = s.RepositorySize(repoName).Bytes()
				require.True(t, ok)
				repoBytes += n

				for _, tag := range s.Tags(repoName) {
					logical, _ := s.TagSize(repoName, tag).Bytes()
					disk, _ := s.TagDiskSize(repoName, tag).Bytes()
					assert.GreaterOrEqual(t, logical, disk)
				}
			}
			assert.Equal(t, ownedBytes, repoDiskBytes)
			assert.Equal(t, repoDiskBytes, s.TotalDiskSize())
			assert.Equal(t, repoBytes, s.TotalSize())

			again := mustSnapshot(t, layers, sizes)
			assert.Equal(t, owners, again.Owners())
		})
	}
}
