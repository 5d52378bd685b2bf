package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/go-containerregistry/pkg/logs"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/remote/transport"
)

// followOnce lets blob storage behind the registry (S3 and friends) answer
// with one redirect to the actual blob location.
func followOnce(req *http.Request, via []*http.Request) error {
	if len(via) > 1 {
		return http.ErrUseLastResponse
	}
	logs.Debug.Printf("following blob redirect to %s", req.URL.Host)
	return nil
}

// LayerSize asks the registry for the size of a blob with a HEAD request.
func (c *Client) LayerSize(ctx context.Context, repository, digest string) (int64, error) {
	if _, err := v1.NewHash(digest); err != nil {
		return 0, fmt.Errorf("%w: %s@%s: %w", ErrLayerSizeRead, repository, digest, err)
	}
	repo := c.repository(repository)
	auth, err := c.authorizer.RepositoryAuth(ctx, repo)
	if err != nil {
		return 0, err
	}
	inner := c.transport
	if c.userAgent != "" {
		inner = transport.NewUserAgent(inner, c.userAgent)
	}
	tr, err := transport.NewWithContext(ctx, repo.Registry, auth, inner, []string{repo.Scope(transport.PullScope)})
	if err != nil {
		return 0, fmt.Errorf("%w: %s@%s: %w", ErrLayerSizeRead, repository, digest, err)
	}
	u := url.URL{
		Scheme: repo.Registry.Scheme(),
		Host:   repo.RegistryStr(),
		Path:   fmt.Sprintf("/v2/%s/blobs/%s", repo.RepositoryStr(), digest),
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %s@%s: %w", ErrLayerSizeRead, repository, digest, err)
	}
	client := &http.Client{Transport: tr, CheckRedirect: followOnce}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %s@%s: %w", ErrLayerSizeRead, repository, digest, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: %s@%s: unexpected status %d", ErrLayerSizeRead, repository, digest, resp.StatusCode)
	}
	// net/http sets ContentLength from the header for HEAD responses, -1 when absent.
	if resp.ContentLength < 0 {
		return 0, fmt.Errorf("%w: %s@%s: response has no Content-Length", ErrLayerSizeRead, repository, digest)
	}
	return resp.ContentLength, nil
}
