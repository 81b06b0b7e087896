package clipboard

import (
	"context"
	"errors"
)

var ErrNoTool = errors.New("clipboard: no clipboard tool available")

// Channel is the single shared text slot both sides poll and overwrite.
// Writes are last-writer-wins; there is no queueing and no notify
// primitive, so callers must poll Read and detect changes themselves.
type Channel interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, text string) error
}
