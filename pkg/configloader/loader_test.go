package configloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyp3rd/hyperrotate"
)

func TestFromYAML(t *testing.T) {
	data := []byte(`
path: /var/log/app/app.log
identifier: api
max_file_size: 2048
max_age: 90s
max_archive_count: 3
archive_folder: /var/log/app/archive
date_suffix_format: "-20060102T150405"
append: true
append_marker: "== resumed =="
file_mode: "0600"
attribute_namespace: user.acme
queue:
  enabled: true
  buffer_size: 64
  overflow_strategy: drop_newest
  wait_timeout: 2
`)

	cfg, err := FromYAML(data)
	require.NoError(t, err)

	assert.Equal(t, "/var/log/app/app.log", cfg.Path)
	assert.Equal(t, "api", cfg.Identifier)
	assert.Equal(t, uint64(2048), cfg.MaxFileSize)
	assert.Equal(t, 90*time.Second, cfg.MaxAge)
	assert.Equal(t, uint8(3), cfg.MaxArchiveCount)
	assert.Equal(t, "/var/log/app/archive", cfg.ArchiveFolder)
	assert.Equal(t, "-20060102T150405", cfg.DateSuffixFormat)
	assert.True(t, cfg.ShouldAppend)
	require.NotNil(t, cfg.AppendMarker)
	assert.Equal(t, "== resumed ==", *cfg.AppendMarker)
	assert.Equal(t, os.FileMode(0o600), cfg.FileMode)
	assert.Equal(t, "user.acme", cfg.AttributeNamespace)
	assert.True(t, cfg.Queue.Enabled)
	assert.Equal(t, 64, cfg.Queue.BufferSize)
	assert.Equal(t, hyperrotate.QueueOverflowDropNewest, cfg.Queue.Overflow)
	assert.Equal(t, 2*time.Second, cfg.Queue.WaitTimeout)
}

func TestFromYAMLDefaults(t *testing.T) {
	cfg, err := FromYAML([]byte("path: app.log\n"))
	require.NoError(t, err)

	want := hyperrotate.DefaultConfig()
	want.Path = "app.log"

	assert.Equal(t, want.MaxFileSize, cfg.MaxFileSize)
	assert.Equal(t, want.MaxAge, cfg.MaxAge)
	assert.Equal(t, want.MaxArchiveCount, cfg.MaxArchiveCount)
	assert.Equal(t, want.DateSuffixFormat, cfg.DateSuffixFormat)
	assert.Equal(t, want.AppendMarker, cfg.AppendMarker)
	assert.False(t, cfg.ShouldAppend)
	assert.False(t, cfg.Queue.Enabled)
}

func TestFromYAMLEmptyMarkerDisablesIt(t *testing.T) {
	cfg, err := FromYAML([]byte("path: app.log\nappend_marker: \"\"\n"))
	require.NoError(t, err)

	assert.Nil(t, cfg.AppendMarker)
}

func TestFromYAMLErrors(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		errContains string
	}{
		{name: "overflow strategy", data: "queue:\n  overflow_strategy: invalid\n", errContains: "overflow strategy"},
		{name: "archive count range", data: "max_archive_count: 300\n", errContains: "max_archive_count"},
		{name: "max age", data: "max_age: soon\n", errContains: "max_age"},
		{name: "file mode", data: "file_mode: \"rw\"\n", errContains: "file_mode"},
		{name: "wait timeout", data: "queue:\n  wait_timeout: later\n", errContains: "wait_timeout"},
		{name: "malformed", data: "path: [unterminated\n", errContains: "YAML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromYAML([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("APP_PATH", "logs/app.log")
	t.Setenv("APP_IDENTIFIER", "worker")
	t.Setenv("APP_MAX_FILE_SIZE", "40960")
	t.Setenv("APP_MAX_AGE", "600")
	t.Setenv("APP_MAX_ARCHIVE_COUNT", "5")
	t.Setenv("APP_APPEND", "true")
	t.Setenv("APP_QUEUE_ENABLED", "true")
	t.Setenv("APP_QUEUE_BUFFER_SIZE", "2048")

	cfg, err := FromEnv("app")
	require.NoError(t, err)

	assert.Equal(t, "logs/app.log", cfg.Path)
	assert.Equal(t, "worker", cfg.Identifier)
	assert.Equal(t, uint64(40960), cfg.MaxFileSize)
	assert.Equal(t, 600*time.Second, cfg.MaxAge)
	assert.Equal(t, uint8(5), cfg.MaxArchiveCount)
	assert.True(t, cfg.ShouldAppend)
	assert.True(t, cfg.Queue.Enabled)
	assert.Equal(t, 2048, cfg.Queue.BufferSize)
}

func TestFromFileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "rotate.yaml")

	err := os.WriteFile(configPath, []byte(`
path: service.log
max_file_size: 1048576
max_archive_count: 4
`), 0o600)
	require.NoError(t, err)

	t.Setenv("HYPERROTATE_MAX_ARCHIVE_COUNT", "2")

	cfg, err := FromFile(configPath)
	require.NoError(t, err)

	assert.Equal(t, "service.log", cfg.Path)
	assert.Equal(t, uint64(1048576), cfg.MaxFileSize)
	assert.Equal(t, uint8(2), cfg.MaxArchiveCount)
}

func TestFromFileMissing(t *testing.T) {
	_, err := FromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file")
}

func TestNormalizePrefix(t *testing.T) {
	tests := map[string]string{
		"":         DefaultEnvPrefix,
		"  ":       DefaultEnvPrefix,
		"app":      "APP",
		"my-app_":  "MY_APP",
		"Service_": "SERVICE",
	}

	for in, want := range tests {
		assert.Equal(t, want, normalizePrefix(in), "prefix %q", in)
	}
}

func TestParseSeconds(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "600", want: 600 * time.Second},
		{in: "1.5", want: 1500 * time.Millisecond},
		{in: "2m", want: 2 * time.Minute},
		{in: " 10s ", want: 10 * time.Second},
		{in: "later", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSeconds(tt.in)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
