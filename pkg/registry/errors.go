package registry

import "errors"

// Errors returned by Client. Callers classify them with errors.Is.
var (
	// ErrAuthToken means no credentials could be obtained. It is fatal for the whole run.
	ErrAuthToken = errors.New("unable to obtain auth token")
	// ErrCatalogRead means the repository catalog could not be listed.
	ErrCatalogRead = errors.New("unable to read registry catalog")
	// ErrTagsRead means the tag list of a single repository could not be read.
	ErrTagsRead = errors.New("unable to read repository tags")
	// ErrLayersRead means the manifest of a single tag could not be read.
	ErrLayersRead = errors.New("unable to read tag layers")
	// ErrLayerSizeRead means a blob referenced by a manifest could not be sized.
	ErrLayerSizeRead = errors.New("unable to read layer size")
	// ErrImageDelete means a manifest could not be deleted.
	ErrImageDelete = errors.New("unable to delete image")
)
