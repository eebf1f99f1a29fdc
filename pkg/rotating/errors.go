package rotating

import (
	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/hyperrotate/internal/output"
)

// Failure kinds. Errors returned by this package match one of them with errors.Is
// and carry the affected path as metadata.
var (
	// ErrOpenFailed is returned when the current log file cannot be opened or created.
	ErrOpenFailed = ewrap.New("open failed")
	// ErrWriteFailed is returned when appending to the current log file fails.
	ErrWriteFailed = ewrap.New("write failed")
	// ErrDestinationCollision is returned when the archive destination already exists.
	ErrDestinationCollision = ewrap.New("archive destination already exists")
	// ErrMoveFailed is returned when the current file cannot be moved to the archive folder.
	ErrMoveFailed = ewrap.New("move failed")
	// ErrTagFailed is reported when an archived file cannot be tagged.
	ErrTagFailed = ewrap.New("tag failed")
	// ErrDeleteFailed is returned when an archived file cannot be deleted.
	ErrDeleteFailed = ewrap.New("delete failed")
	// ErrAttributeReadFailed marks a directory entry whose tags cannot be read.
	ErrAttributeReadFailed = ewrap.New("attribute read failed")
	// ErrWriterClosed is returned by writes on a closed sink or a writer without a handle.
	ErrWriterClosed = output.ErrWriterClosed
	// ErrInvalidConfig is returned by New when the configuration is unusable.
	ErrInvalidConfig = ewrap.New("invalid configuration")
)

// classified ties a failure kind to the error that caused it.
type classified struct {
	kind  error
	cause error
}

func (c *classified) Error() string {
	if c.cause == nil {
		return c.kind.Error()
	}

	return c.kind.Error() + ": " + c.cause.Error()
}

func (c *classified) Unwrap() []error {
	if c.cause == nil {
		return []error{c.kind}
	}

	return []error{c.kind, c.cause}
}

// classify wraps cause as a failure of kind, annotated with msg and path.
func classify(kind, cause error, msg, path string) error {
	return ewrap.Wrap(&classified{kind: kind, cause: cause}, msg).WithMetadata("path", path)
}
