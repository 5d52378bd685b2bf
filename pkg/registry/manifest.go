package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/google/go-containerregistry/pkg/v1/types"
)

// schema1Manifest is the part of a docker schema 1 manifest we care about.
// ggcr has no typed accessor for it.
type schema1Manifest struct {
	FSLayers []struct {
		BlobSum string `json:"blobSum"`
	} `json:"fsLayers"`
}

func layersOf(desc *remote.Descriptor) ([]Layer, error) {
	switch {
	case desc.MediaType == types.DockerManifestSchema1 || desc.MediaType == types.DockerManifestSchema1Signed:
		return schema1Layers(desc.Manifest)
	case desc.MediaType.IsImage():
		m, err := v1.ParseManifest(bytes.NewReader(desc.Manifest))
		if err != nil {
			return nil, fmt.Errorf("unable to parse manifest: %w", err)
		}
		return manifestLayers(m), nil
	case desc.MediaType.IsIndex():
		idx, err := desc.ImageIndex()
		if err != nil {
			return nil, fmt.Errorf("unable to read image index: %w", err)
		}
		return indexLayers(idx, make(map[string]bool))
	default:
		return nil, fmt.Errorf("unsupported media type '%s'", desc.MediaType)
	}
}

func schema1Layers(raw []byte) ([]Layer, error) {
	var m schema1Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("unable to parse schema 1 manifest: %w", err)
	}
	if m.FSLayers == nil {
		return nil, fmt.Errorf("schema 1 manifest has no fsLayers")
	}
	layers := make([]Layer, 0, len(m.FSLayers))
	for _, l := range m.FSLayers {
		if l.BlobSum == "" {
			return nil, fmt.Errorf("schema 1 layer without blobSum")
		}
		layers = append(layers, Layer{Digest: l.BlobSum})
	}
	return layers, nil
}

func manifestLayers(m *v1.Manifest) []Layer {
	layers := make([]Layer, 0, len(m.Layers))
	for _, l := range m.Layers {
		layers = append(layers, Layer{Digest: l.Digest.String(), Size: l.Size, HasSize: true})
	}
	return layers
}

// indexLayers walks every platform image of an index. A blob shared by two
// platforms of the same tag is listed once.
func indexLayers(idx v1.ImageIndex, seen map[string]bool) ([]Layer, error) {
	im, err := idx.IndexManifest()
	if err != nil {
		return nil, fmt.Errorf("unable to read index manifest: %w", err)
	}
	var layers []Layer
	for _, child := range im.Manifests {
		var childLayers []Layer
		switch {
		case child.MediaType.IsImage():
			img, err := idx.Image(child.Digest)
			if err != nil {
				return nil, fmt.Errorf("unable to read image '%v': %w", child.Digest, err)
			}
			m, err := img.Manifest()
			if err != nil {
				return nil, fmt.Errorf("unable to read manifest of '%v': %w", child.Digest, err)
			}
			childLayers = manifestLayers(m)
		case child.MediaType.IsIndex():
			nested, err := idx.ImageIndex(child.Digest)
			if err != nil {
				return nil, fmt.Errorf("unable to read nested index '%v': %w", child.Digest, err)
			}
			childLayers, err = indexLayers(nested, seen)
			if err != nil {
				return nil, err
			}
		default:
			continue
		}
		for _, l := range childLayers {
			if seen[l.Digest] {
				continue
			}
			seen[l.Digest] = true
			layers = append(layers, l)
		}
	}
	return layers, nil
}
