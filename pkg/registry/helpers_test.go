package registry

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-containerregistry/pkg/name"
	ggcrregistry "github.com/google/go-containerregistry/pkg/registry"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/empty"
	"github.com/google/go-containerregistry/pkg/v1/mutate"
	"github.com/google/go-containerregistry/pkg/v1/random"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/google/go-containerregistry/pkg/v1/types"
	"github.com/stretchr/testify/require"
)

type requestRecorder struct {
	mu       sync.Mutex
	requests []http.Request
}

func (r *requestRecorder) record(req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, *req)
}

func (r *requestRecorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = nil
}

func (r *requestRecorder) count(method, substr string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counter := 0
	for _, req := range r.requests {
		if req.Method == method && strings.Contains(req.URL.String(), substr) {
			counter += 1
		}
	}
	return counter
}

func prepareRegistry(rec *requestRecorder) http.Handler {
	reg := ggcrregistry.New(ggcrregistry.Logger(log.New(io.Discard, "", 0)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rec != nil {
			rec.record(r)
		}
		reg.ServeHTTP(w, r)
	})
}

func hostOf(serverUrl string) string {
	return strings.TrimPrefix(serverUrl, "http://")
}

func refOnServer(serverUrl string, repository string) string {
	return hostOf(serverUrl) + "/" + repository
}

func newTestClient(t *testing.T, s *httptest.Server, opt ...Option) *Client {
	opt = append([]Option{WithAuthorizer(&StaticAuthorizer{})}, opt...)
	c, err := NewClient(hostOf(s.URL), opt...)
	require.NoError(t, err)
	return c
}

func randomLayer(t *testing.T, size int64) v1.Layer {
	l, err := random.Layer(size, types.DockerLayer)
	require.NoError(t, err)
	return l
}

// pushImage writes an image made of the given layers to ref and returns it.
func pushImage(t *testing.T, ref string, layers ...v1.Layer) v1.Image {
	img, err := mutate.AppendLayers(empty.Image, layers...)
	require.NoError(t, err)
	r, err := name.ParseReference(ref)
	require.NoError(t, err)
	require.NoError(t, remote.Write(r, img))
	return img
}

func layerSize(t *testing.T, l v1.Layer) int64 {
	n, err := l.Size()
	require.NoError(t, err)
	return n
}

func layerDigest(t *testing.T, l v1.Layer) string {
	d, err := l.Digest()
	require.NoError(t, err)
	return d.String()
}
