package rotating

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/hyperrotate"
	"github.com/hyp3rd/hyperrotate/internal/utils"
	"github.com/hyp3rd/hyperrotate/pkg/attrstore"
)

// Archiver moves the current file into the archive folder, tags it and starts a fresh file.
type Archiver struct {
	Writer     *FileWriter
	Store      attrstore.Store
	Keys       attrstore.Keys
	Identifier string
	Events     hyperrotate.EventSink
	// Now is the clock used for the archival timestamp and the new start time.
	Now func() time.Time
	// Completion is invoked once per Rotate call with its outcome.
	Completion func(success bool)
}

// Rotate archives the current file to archivePath and resets state. Each step requires
// the previous one:
//
//  1. an existing archivePath fails with ErrDestinationCollision, leaving the current file open;
//  2. the current handle is closed;
//  3. the file is renamed; on failure it is reopened for appending and ErrMoveFailed returned;
//  4. the archive is tagged; tag failures are reported as events only;
//  5. a fresh current file is created;
//  6. state is reset.
func (a *Archiver) Rotate(archivePath string, state *State) (err error) {
	defer func() {
		if a.Completion != nil {
			a.Completion(err == nil)
		}
	}()

	events := hyperrotate.OrNoop(a.Events)
	current := a.Writer.Path()

	if utils.Exists(archivePath) {
		return classify(ErrDestinationCollision, nil, "rotating log file", archivePath)
	}

	closeErr := a.Writer.Close()
	if closeErr != nil {
		events.Event(hyperrotate.WarnLevel, "closing log file before rotation failed",
			hyperrotate.Path(current), hyperrotate.Err(closeErr))
	}

	renameErr := os.Rename(current, archivePath)
	if renameErr != nil {
		moveErr := classify(ErrMoveFailed, renameErr, "moving log file to archive", current)

		_, openErr := a.Writer.Open(current, true)
		if openErr != nil {
			return errors.Join(moveErr, openErr)
		}

		return moveErr
	}

	now := a.now()

	tagErr := a.tag(archivePath, now)
	if tagErr != nil {
		events.Event(hyperrotate.WarnLevel, "tagging archived log file failed",
			hyperrotate.Path(archivePath), hyperrotate.Err(tagErr))
	}

	_, openErr := a.Writer.Open(current, false)
	state.Reset(now)

	if openErr != nil {
		return openErr
	}

	events.Event(hyperrotate.InfoLevel, "rotated log file",
		hyperrotate.Path(current), hyperrotate.Str("archive", archivePath))

	return nil
}

func (a *Archiver) tag(archivePath string, at time.Time) error {
	if a.Store == nil {
		return classify(ErrTagFailed, attrstore.ErrUnsupported, "tagging archived file", archivePath)
	}

	err := a.Store.Set(archivePath, a.Keys.ArchivedBy, []byte(a.Identifier))
	if err != nil {
		return classify(ErrTagFailed, err, "tagging archived file", archivePath)
	}

	err = a.Store.Set(archivePath, a.Keys.ArchivedAt, []byte(FormatTimestamp(at)))
	if err != nil {
		return classify(ErrTagFailed, err, "tagging archived file", archivePath)
	}

	return nil
}

func (a *Archiver) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}

	return a.Now()
}

// FormatTimestamp encodes t as decimal seconds since the epoch with full precision.
func FormatTimestamp(t time.Time) string {
	seconds := float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)

	return strconv.FormatFloat(seconds, 'f', -1, 64)
}

// ParseTimestamp decodes a value produced by FormatTimestamp.
func ParseTimestamp(value string) (time.Time, error) {
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return time.Time{}, ewrap.Wrap(&classified{kind: ErrAttributeReadFailed, cause: err}, "parsing archive timestamp").
			WithMetadata("value", value)
	}

	whole := int64(seconds)
	frac := seconds - float64(whole)

	return time.Unix(whole, int64(frac*float64(time.Second))), nil
}
