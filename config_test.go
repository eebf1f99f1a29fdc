package hyperrotate

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyp3rd/hyperrotate/internal/constants"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, DefaultMaxFileSize, config.MaxFileSize)
	assert.Equal(t, DefaultMaxAge, config.MaxAge)
	assert.Equal(t, DefaultMaxArchiveCount, config.MaxArchiveCount)
	assert.Equal(t, DefaultDateSuffixFormat, config.DateSuffixFormat)
	assert.False(t, config.ShouldAppend)
	require.NotNil(t, config.AppendMarker)
	assert.Equal(t, DefaultAppendMarker, *config.AppendMarker)
	assert.Equal(t, LogFilePermissions, config.FileMode)
	assert.Equal(t, DefaultAttributeNamespace, config.AttributeNamespace)
	assert.False(t, config.Queue.Enabled)
	assert.Equal(t, DefaultQueueBufferSize, config.Queue.BufferSize)
	assert.Equal(t, QueueOverflowBlock, config.Queue.Overflow)
	assert.Equal(t, constants.DefaultTimeout, config.Queue.WaitTimeout)
}

func TestConfigNormalize(t *testing.T) {
	config := Config{
		Path:          filepath.Join("logs", "..", "logs", "app.log"),
		ArchiveFolder: filepath.Join("archive", "."),
		MaxAge:        500 * time.Millisecond,
	}

	config.Normalize()

	assert.Equal(t, UnboundedFileSize, config.MaxFileSize)
	assert.Zero(t, config.MaxAge)
	assert.Equal(t, DefaultDateSuffixFormat, config.DateSuffixFormat)
	assert.Equal(t, LogFilePermissions, config.FileMode)
	assert.Equal(t, DefaultAttributeNamespace, config.AttributeNamespace)
	assert.Equal(t, NoopSink{}, config.Events)
	assert.Equal(t, DefaultQueueBufferSize, config.Queue.BufferSize)
	assert.Equal(t, constants.DefaultTimeout, config.Queue.WaitTimeout)
	assert.Equal(t, filepath.Join("logs", "app.log"), config.Path)
	assert.Equal(t, "archive", config.ArchiveFolder)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid",
			mutate:  func(c *Config) { c.Path = "app.log" },
			wantErr: false,
		},
		{
			name:    "missing path",
			mutate:  func(c *Config) { c.Path = "  " },
			wantErr: true,
		},
		{
			name: "invalid overflow strategy",
			mutate: func(c *Config) {
				c.Path = "app.log"
				c.Queue.Overflow = QueueOverflowStrategy(9)
			},
			wantErr: true,
		},
		{
			name: "suffix with separator",
			mutate: func(c *Config) {
				c.Path = "app.log"
				c.DateSuffixFormat = "_2006/01/02"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(&config)

			err := config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeThresholds(t *testing.T) {
	assert.Equal(t, UnboundedFileSize, NormalizeMaxFileSize(0))
	assert.Equal(t, uint64(1), NormalizeMaxFileSize(1))
	assert.Zero(t, NormalizeMaxAge(0))
	assert.Zero(t, NormalizeMaxAge(999*time.Millisecond))
	assert.Equal(t, time.Second, NormalizeMaxAge(time.Second))
}

func TestParseQueueOverflowStrategy(t *testing.T) {
	tests := []struct {
		input   string
		want    QueueOverflowStrategy
		wantErr bool
	}{
		{"", QueueOverflowBlock, false},
		{"block", QueueOverflowBlock, false},
		{"DROP", QueueOverflowDropNewest, false},
		{"drop_newest", QueueOverflowDropNewest, false},
		{"drop-newest", QueueOverflowDropNewest, false},
		{"oldest", QueueOverflowBlock, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseQueueOverflowStrategy(tt.input)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.IsValid())
		})
	}

	assert.Equal(t, "block", QueueOverflowBlock.String())
	assert.Equal(t, "drop_newest", QueueOverflowDropNewest.String())
	assert.Equal(t, "unknown", QueueOverflowStrategy(7).String())
}

func TestStringPtr(t *testing.T) {
	ptr := StringPtr("marker")
	require.NotNil(t, ptr)
	assert.Equal(t, "marker", *ptr)
}
