package configloader

import (
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/hyperrotate"
)

type rawConfig struct {
	Path               string  `mapstructure:"path"                yaml:"path"`
	Identifier         string  `mapstructure:"identifier"          yaml:"identifier"`
	MaxFileSize        *uint64 `mapstructure:"max_file_size"       yaml:"max_file_size"`
	MaxAge             string  `mapstructure:"max_age"             yaml:"max_age"`
	MaxArchiveCount    *int    `mapstructure:"max_archive_count"   yaml:"max_archive_count"`
	ArchiveFolder      string  `mapstructure:"archive_folder"      yaml:"archive_folder"`
	DateSuffixFormat   string  `mapstructure:"date_suffix_format"  yaml:"date_suffix_format"`
	Append             *bool   `mapstructure:"append"              yaml:"append"`
	AppendMarker       *string `mapstructure:"append_marker"       yaml:"append_marker"`
	FileMode           string  `mapstructure:"file_mode"           yaml:"file_mode"` // octal, quoted in YAML
	AttributeNamespace string  `mapstructure:"attribute_namespace" yaml:"attribute_namespace"`
	Queue              struct {
		Enabled          *bool  `mapstructure:"enabled"           yaml:"enabled"`
		BufferSize       *int   `mapstructure:"buffer_size"       yaml:"buffer_size"`
		OverflowStrategy string `mapstructure:"overflow_strategy" yaml:"overflow_strategy"`
		WaitTimeout      string `mapstructure:"wait_timeout"      yaml:"wait_timeout"`
	} `mapstructure:"queue" yaml:"queue"`
}

func applyRaw(raw rawConfig) (*hyperrotate.Config, error) {
	cfg := hyperrotate.DefaultConfig()

	cfg.Path = raw.Path
	cfg.Identifier = raw.Identifier
	cfg.ArchiveFolder = raw.ArchiveFolder

	if raw.MaxFileSize != nil {
		cfg.MaxFileSize = *raw.MaxFileSize
	}

	if raw.MaxAge != "" {
		age, err := parseSeconds(raw.MaxAge)
		if err != nil {
			return nil, ewrap.Wrap(err, "invalid max_age").WithMetadata("value", raw.MaxAge)
		}

		cfg.MaxAge = age
	}

	if raw.MaxArchiveCount != nil {
		count := *raw.MaxArchiveCount
		if count < 0 || count > math.MaxUint8 {
			return nil, ewrap.New("max_archive_count must be between 0 and 255").
				WithMetadata("value", count)
		}

		cfg.MaxArchiveCount = uint8(count)
	}

	if raw.DateSuffixFormat != "" {
		cfg.DateSuffixFormat = raw.DateSuffixFormat
	}

	if raw.Append != nil {
		cfg.ShouldAppend = *raw.Append
	}

	if raw.AppendMarker != nil {
		if *raw.AppendMarker == "" {
			cfg.AppendMarker = nil
		} else {
			cfg.AppendMarker = hyperrotate.StringPtr(*raw.AppendMarker)
		}
	}

	if raw.FileMode != "" {
		mode, err := strconv.ParseUint(raw.FileMode, 8, 32)
		if err != nil {
			return nil, ewrap.Wrap(err, "invalid file_mode").WithMetadata("value", raw.FileMode)
		}

		cfg.FileMode = os.FileMode(mode)
	}

	if raw.AttributeNamespace != "" {
		cfg.AttributeNamespace = raw.AttributeNamespace
	}

	err := applyRawQueue(raw, &cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyRawQueue(raw rawConfig, cfg *hyperrotate.Config) error {
	if raw.Queue.Enabled != nil {
		cfg.Queue.Enabled = *raw.Queue.Enabled
	}

	if raw.Queue.BufferSize != nil {
		cfg.Queue.BufferSize = *raw.Queue.BufferSize
	}

	if raw.Queue.OverflowStrategy != "" {
		strategy, err := hyperrotate.ParseQueueOverflowStrategy(raw.Queue.OverflowStrategy)
		if err != nil {
			return err
		}

		cfg.Queue.Overflow = strategy
	}

	if raw.Queue.WaitTimeout != "" {
		timeout, err := parseSeconds(raw.Queue.WaitTimeout)
		if err != nil {
			return ewrap.Wrap(err, "invalid queue.wait_timeout").WithMetadata("value", raw.Queue.WaitTimeout)
		}

		cfg.Queue.WaitTimeout = timeout
	}

	return nil
}

// parseSeconds accepts a Go duration ("90s", "1h") or a plain number of seconds ("600").
func parseSeconds(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)

	seconds, err := strconv.ParseFloat(value, 64)
	if err == nil {
		return time.Duration(seconds * float64(time.Second)), nil
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, ewrap.Wrap(err, "parsing duration")
	}

	return duration, nil
}

func allKeys() []string {
	return []string{
		"path",
		"identifier",
		"max_file_size",
		"max_age",
		"max_archive_count",
		"archive_folder",
		"date_suffix_format",
		"append",
		"append_marker",
		"file_mode",
		"attribute_namespace",
		"queue.enabled",
		"queue.buffer_size",
		"queue.overflow_strategy",
		"queue.wait_timeout",
	}
}
