package hyperrotate

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/hyperrotate/internal/constants"
)

const (
	// DefaultMaxFileSize is the default size in bytes after which the current file is rotated.
	DefaultMaxFileSize uint64 = 1_048_576
	// DefaultMaxAge is the default age after which the current file is rotated.
	DefaultMaxAge = 600 * time.Second
	// DefaultMaxArchiveCount is the default number of archived files kept per identifier.
	DefaultMaxArchiveCount uint8 = 10
	// DefaultDateSuffixFormat is the Go time layout appended to the base name of archived files.
	DefaultDateSuffixFormat = "_2006-01-02_150405"
	// DefaultAppendMarker is written on its own line whenever an existing file is appended to.
	DefaultAppendMarker = "-- ** ** ** --"
	// DefaultAttributeNamespace prefixes the extended attribute keys written on archives.
	DefaultAttributeNamespace = "user.hyperrotate"
	// LogFilePermissions are the default file permissions for log files.
	LogFilePermissions os.FileMode = 0o644
	// DefaultQueueBufferSize is the default capacity of a sink's serial work queue.
	DefaultQueueBufferSize = 1024

	// UnboundedFileSize disables size based rotation.
	UnboundedFileSize uint64 = math.MaxUint64
)

// QueueOverflowStrategy defines how a sink's work queue handles a full buffer.
type QueueOverflowStrategy uint8

const (
	// QueueOverflowBlock blocks the caller until there is space in the buffer.
	QueueOverflowBlock QueueOverflowStrategy = iota
	// QueueOverflowDropNewest drops the incoming write when the buffer is full.
	QueueOverflowDropNewest
)

// IsValid reports whether the strategy value is recognised.
func (s QueueOverflowStrategy) IsValid() bool {
	switch s {
	case QueueOverflowBlock, QueueOverflowDropNewest:
		return true
	default:
		return false
	}
}

// String returns the configuration name of the strategy.
func (s QueueOverflowStrategy) String() string {
	switch s {
	case QueueOverflowBlock:
		return "block"
	case QueueOverflowDropNewest:
		return "drop_newest"
	default:
		return "unknown"
	}
}

// ParseQueueOverflowStrategy parses the configuration name of a strategy.
func ParseQueueOverflowStrategy(value string) (QueueOverflowStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "block":
		return QueueOverflowBlock, nil
	case "drop", "drop_newest", "drop-newest":
		return QueueOverflowDropNewest, nil
	default:
		return QueueOverflowBlock, ewrap.New("invalid queue overflow strategy").
			WithMetadata("strategy", value)
	}
}

// QueueConfig binds a sink to a serial work queue. When enabled, every write, flush and
// rotation of the sink runs on one goroutine in submission order.
type QueueConfig struct {
	// Enabled turns the serial queue on.
	Enabled bool
	// BufferSize is the capacity of the queue.
	BufferSize int
	// Overflow controls what happens when the queue is full.
	Overflow QueueOverflowStrategy
	// WaitTimeout bounds how long Sync and Close wait for queued work.
	WaitTimeout time.Duration
}

// Config holds the configuration of a rotating file sink.
type Config struct {
	// Path is the path of the current log file.
	Path string
	// Identifier is the uniqueness key of the sink and the owner tag written on its archives.
	Identifier string
	// MaxFileSize is the size in bytes that triggers rotation (0 = unbounded).
	MaxFileSize uint64
	// MaxAge is the age of the current file that triggers rotation (0 = never).
	MaxAge time.Duration
	// MaxArchiveCount is the number of archives kept; 0 keeps none.
	MaxArchiveCount uint8
	// ArchiveFolder is where archives are moved; empty means the folder of Path.
	ArchiveFolder string
	// DateSuffixFormat is the Go time layout of the archive name suffix.
	DateSuffixFormat string
	// ShouldAppend keeps the content of an existing file instead of archiving it at startup.
	ShouldAppend bool
	// AppendMarker is written when appending to an existing file; nil disables it.
	AppendMarker *string
	// FileMode sets the permissions for new log files.
	FileMode os.FileMode
	// AttributeNamespace prefixes the archived.by and archived.at attribute keys.
	AttributeNamespace string
	// Completion is invoked after every rotation attempt with its outcome.
	Completion func(success bool)
	// Events receives the sink's own informational and error events.
	Events EventSink
	// Queue binds the sink to a serial work queue.
	Queue QueueConfig
}

// DefaultConfig returns the default sink configuration.
func DefaultConfig() Config {
	marker := DefaultAppendMarker

	return Config{
		MaxFileSize:        DefaultMaxFileSize,
		MaxAge:             DefaultMaxAge,
		MaxArchiveCount:    DefaultMaxArchiveCount,
		DateSuffixFormat:   DefaultDateSuffixFormat,
		ShouldAppend:       false,
		AppendMarker:       &marker,
		FileMode:           LogFilePermissions,
		AttributeNamespace: DefaultAttributeNamespace,
		Events:             NoopSink{},
		Queue: QueueConfig{
			Enabled:     false,
			BufferSize:  DefaultQueueBufferSize,
			Overflow:    QueueOverflowBlock,
			WaitTimeout: constants.DefaultTimeout,
		},
	}
}

// Normalize fills in defaults for unset values and applies the threshold sentinels:
// a zero MaxFileSize becomes UnboundedFileSize and a MaxAge below one second becomes 0.
func (c *Config) Normalize() {
	c.MaxFileSize = NormalizeMaxFileSize(c.MaxFileSize)
	c.MaxAge = NormalizeMaxAge(c.MaxAge)

	if c.DateSuffixFormat == "" {
		c.DateSuffixFormat = DefaultDateSuffixFormat
	}

	if c.FileMode == 0 {
		c.FileMode = LogFilePermissions
	}

	if c.AttributeNamespace == "" {
		c.AttributeNamespace = DefaultAttributeNamespace
	}

	if c.Events == nil {
		c.Events = NoopSink{}
	}

	if c.Queue.BufferSize <= 0 {
		c.Queue.BufferSize = DefaultQueueBufferSize
	}

	if c.Queue.WaitTimeout <= 0 {
		c.Queue.WaitTimeout = constants.DefaultTimeout
	}

	if c.Path != "" {
		c.Path = filepath.Clean(c.Path)
	}

	if c.ArchiveFolder != "" {
		c.ArchiveFolder = filepath.Clean(c.ArchiveFolder)
	}
}

// Validate reports configuration values the sink cannot work with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return ewrap.New("log file path is required")
	}

	if strings.HasSuffix(c.Path, string(filepath.Separator)) {
		return ewrap.New("log file path must name a file").WithMetadata("path", c.Path)
	}

	if !c.Queue.Overflow.IsValid() {
		return ewrap.New("invalid queue overflow strategy").
			WithMetadata("strategy", c.Queue.Overflow)
	}

	if strings.ContainsAny(c.DateSuffixFormat, `/\`) {
		return ewrap.New("date suffix format must not contain path separators").
			WithMetadata("format", c.DateSuffixFormat)
	}

	return nil
}

// NormalizeMaxFileSize maps the "no limit" value 0 to UnboundedFileSize.
func NormalizeMaxFileSize(size uint64) uint64 {
	if size < 1 {
		return UnboundedFileSize
	}

	return size
}

// NormalizeMaxAge maps ages below one second to 0, which disables age based rotation.
func NormalizeMaxAge(age time.Duration) time.Duration {
	if age < time.Second {
		return 0
	}

	return age
}

// StringPtr returns a pointer to s, handy for Config.AppendMarker.
func StringPtr(s string) *string {
	return &s
}
