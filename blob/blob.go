// Package blob uploads form files to object storage and hands back
// publicly resolvable URLs.
package blob

import (
	"context"

	"github.com/pkg/errors"
)

type Uploader interface {
	// Upload stores data under forms/{formID}/files/{filename}-{epochMillis}
	// and returns the public URL of the object.
	Upload(ctx context.Context, formID, filename string, data []byte) (string, error)
}

// Disabled rejects uploads; used when no bucket is configured.
type Disabled struct{}

func (Disabled) Upload(context.Context, string, string, []byte) (string, error) {
	return "", errors.New("file uploads are not configured")
}
