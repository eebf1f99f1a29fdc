package hyperrotate

import (
	"time"
)

// ConfigBuilder provides a fluent API for constructing sink configurations.
// It allows for more readable and chainable configuration setup.
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder creates a new builder seeded with DefaultConfig.
// This is the entry point for the fluent configuration API.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{config: DefaultConfig()}
}

// WithPath sets the path of the current log file.
// Example: builder.WithPath("/var/log/my_app.log").
func (b *ConfigBuilder) WithPath(path string) *ConfigBuilder {
	b.config.Path = path

	return b
}

// WithIdentifier sets the identifier used as the owner tag of archived files.
func (b *ConfigBuilder) WithIdentifier(identifier string) *ConfigBuilder {
	b.config.Identifier = identifier

	return b
}

// WithMaxFileSize sets the size in bytes that triggers rotation.
// Example: builder.WithMaxFileSize(10 * 1024 * 1024).
func (b *ConfigBuilder) WithMaxFileSize(size uint64) *ConfigBuilder {
	b.config.MaxFileSize = size

	return b
}

// WithMaxAge sets the age of the current file that triggers rotation.
// Example: builder.WithMaxAge(time.Hour).
func (b *ConfigBuilder) WithMaxAge(age time.Duration) *ConfigBuilder {
	b.config.MaxAge = age

	return b
}

// WithMaxArchiveCount sets how many archived files are retained.
func (b *ConfigBuilder) WithMaxArchiveCount(count uint8) *ConfigBuilder {
	b.config.MaxArchiveCount = count

	return b
}

// WithArchiveFolder sets the folder archived files are moved to.
func (b *ConfigBuilder) WithArchiveFolder(folder string) *ConfigBuilder {
	b.config.ArchiveFolder = folder

	return b
}

// WithDateSuffixFormat sets the Go time layout appended to archived file names.
// Example: builder.WithDateSuffixFormat("-20060102T150405").
func (b *ConfigBuilder) WithDateSuffixFormat(layout string) *ConfigBuilder {
	b.config.DateSuffixFormat = layout

	return b
}

// WithAppend keeps the content of an existing log file at startup.
func (b *ConfigBuilder) WithAppend(shouldAppend bool) *ConfigBuilder {
	b.config.ShouldAppend = shouldAppend

	return b
}

// WithAppendMarker sets the line written when appending to an existing file.
func (b *ConfigBuilder) WithAppendMarker(marker string) *ConfigBuilder {
	b.config.AppendMarker = &marker

	return b
}

// WithoutAppendMarker disables the append marker line.
func (b *ConfigBuilder) WithoutAppendMarker() *ConfigBuilder {
	b.config.AppendMarker = nil

	return b
}

// WithAttributeNamespace sets the prefix of the extended attribute keys.
func (b *ConfigBuilder) WithAttributeNamespace(namespace string) *ConfigBuilder {
	b.config.AttributeNamespace = namespace

	return b
}

// WithCompletion sets the callback invoked after every rotation attempt.
func (b *ConfigBuilder) WithCompletion(completion func(success bool)) *ConfigBuilder {
	b.config.Completion = completion

	return b
}

// WithEvents sets the EventSink receiving the sink's own events.
func (b *ConfigBuilder) WithEvents(events EventSink) *ConfigBuilder {
	b.config.Events = events

	return b
}

// WithQueue binds the sink to a serial work queue.
// Example: builder.WithQueue(true).
// Writes return as soon as they are queued; rotation happens on the queue goroutine.
// The buffer size can be configured using WithQueueBufferSize.
func (b *ConfigBuilder) WithQueue(enabled bool) *ConfigBuilder {
	b.config.Queue.Enabled = enabled

	return b
}

// WithQueueBufferSize sets the capacity of the serial work queue.
func (b *ConfigBuilder) WithQueueBufferSize(size int) *ConfigBuilder {
	b.config.Queue.BufferSize = size

	return b
}

// WithQueueOverflowStrategy sets the behaviour when the queue is full.
func (b *ConfigBuilder) WithQueueOverflowStrategy(strategy QueueOverflowStrategy) *ConfigBuilder {
	b.config.Queue.Overflow = strategy

	return b
}

// WithRetention is a convenience for WithMaxFileSize, WithMaxAge and WithMaxArchiveCount.
// Example: builder.WithRetention(1<<20, time.Hour, 5).
func (b *ConfigBuilder) WithRetention(maxSize uint64, maxAge time.Duration, archives uint8) *ConfigBuilder {
	return b.
		WithMaxFileSize(maxSize).
		WithMaxAge(maxAge).
		WithMaxArchiveCount(archives)
}

// Build creates a Config object from the builder.
func (b *ConfigBuilder) Build() *Config {
	config := b.config

	return &config
}
