package rotating

import (
	"errors"
	"os"
	"path/filepath"
	"sort"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/hyperrotate"
	"github.com/hyp3rd/hyperrotate/internal/utils"
	"github.com/hyp3rd/hyperrotate/pkg/attrstore"
)

// ArchivedFileRecord is an archive found in the archive folder. It is rebuilt from the
// directory listing and the file tags on every call.
type ArchivedFileRecord struct {
	Path       string
	Owner      string
	ArchivedAt string
}

// Retention lists and deletes the archives of one owner. The directory listing is the
// only source of truth; nothing is cached between calls.
type Retention struct {
	Store  attrstore.Store
	Keys   attrstore.Keys
	Events hyperrotate.EventSink
	// OnDelete is called after every deletion attempt.
	OnDelete func(path string, err error)

	remove func(string) error
}

// NewRetention creates a Retention reading tags from store.
func NewRetention(store attrstore.Store, keys attrstore.Keys, events hyperrotate.EventSink) *Retention {
	return &Retention{
		Store:  store,
		Keys:   keys,
		Events: hyperrotate.OrNoop(events),
		remove: os.Remove,
	}
}

// ListArchived returns the archives in folder tagged with owner, most recently archived
// first. Hidden entries, directories and entries whose tags cannot be read are skipped.
//
// Records are ordered by comparing the raw timestamp strings. This matches numeric order
// only while every timestamp has the same number of integer digits, which holds between
// 2001 and 2286; earlier or negative timestamps sort incorrectly.
func (r *Retention) ListArchived(folder, owner string) ([]ArchivedFileRecord, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, ewrap.Wrap(err, "listing archive folder").WithMetadata("path", folder)
	}

	records := make([]ArchivedFileRecord, 0, len(entries))

	for _, entry := range entries {
		if utils.IsHidden(entry.Name()) || !entry.Type().IsRegular() {
			continue
		}

		path := filepath.Join(folder, entry.Name())

		record, err := r.read(path)
		if err != nil || record.Owner != owner {
			continue
		}

		records = append(records, record)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ArchivedAt > records[j].ArchivedAt
	})

	return records, nil
}

// Cleanup keeps the keep most recently archived files of owner and deletes the rest.
// A failed deletion does not stop the others; all failures are returned together and
// match ErrDeleteFailed.
func (r *Retention) Cleanup(folder, owner string, keep uint8) error {
	records, err := r.ListArchived(folder, owner)
	if err != nil {
		return err
	}

	if len(records) <= int(keep) {
		return nil
	}

	var failures []error

	for _, record := range records[keep:] {
		err := r.delete(record.Path)
		if err != nil {
			failures = append(failures, err)
		}
	}

	if len(failures) > 0 {
		return ewrap.Wrap(errors.Join(failures...), "cleanup incomplete").
			WithMetadata("path", folder).
			WithMetadata("failed", len(failures))
	}

	return nil
}

// PurgeAll deletes every archive of owner in folder.
func (r *Retention) PurgeAll(folder, owner string) error {
	return r.Cleanup(folder, owner, 0)
}

func (r *Retention) read(path string) (ArchivedFileRecord, error) {
	if r.Store == nil {
		return ArchivedFileRecord{}, classify(ErrAttributeReadFailed, attrstore.ErrUnsupported, "reading archive tags", path)
	}

	owner, err := r.Store.Get(path, r.Keys.ArchivedBy)
	if err != nil {
		return ArchivedFileRecord{}, classify(ErrAttributeReadFailed, err, "reading archive owner", path)
	}

	at, err := r.Store.Get(path, r.Keys.ArchivedAt)
	if err != nil {
		return ArchivedFileRecord{}, classify(ErrAttributeReadFailed, err, "reading archive timestamp", path)
	}

	return ArchivedFileRecord{Path: path, Owner: string(owner), ArchivedAt: string(at)}, nil
}

func (r *Retention) delete(path string) error {
	remove := r.remove
	if remove == nil {
		remove = os.Remove
	}

	err := remove(path)
	if err != nil {
		err = classify(ErrDeleteFailed, err, "deleting archived file", path)
		hyperrotate.OrNoop(r.Events).Event(hyperrotate.WarnLevel, "deleting archived log file failed",
			hyperrotate.Path(path), hyperrotate.Err(err))
	} else if forgetter, ok := r.Store.(attrstore.Forgetter); ok {
		forgetter.Forget(path)
	}

	if r.OnDelete != nil {
		r.OnDelete(path, err)
	}

	return err
}
