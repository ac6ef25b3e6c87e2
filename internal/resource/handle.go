package resource

import (
	"errors"
	"io"
)

var (
	// ErrUnavailable is returned by OpenRead when the content behind a handle
	// can no longer be read: it was removed, the grant was revoked, or the
	// backing store is out of reach.
	ErrUnavailable = errors.New("resource unavailable")

	// ErrUnsupportedScheme is returned by Resolve for URIs no provider claims.
	ErrUnsupportedScheme = errors.New("unsupported resource scheme")
)

// Handle is an indirect reference to readable content. Callers never see
// where the bytes live; they borrow a read stream and may ask for a name.
type Handle interface {
	// OpenRead opens a new read stream. The caller must close it.
	OpenRead() (io.ReadCloser, error)

	// DisplayName returns the name the content is presented under, if the
	// provider knows one.
	DisplayName() (string, bool)
}

// Provider turns URIs of the schemes it is registered for into handles.
type Provider interface {
	Open(uri string) (Handle, error)
}
