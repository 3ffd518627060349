package adc

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// IIO reads conversions through the Linux industrial I/O sysfs interface.
// Each read of in_voltage<N>_raw triggers one conversion.
type IIO struct {
	dir string
}

// NewIIO creates a sampler for the IIO device directory.
func NewIIO(dir string) *IIO {
	return &IIO{dir: dir}
}

// ReadRaw returns one conversion code for the channel.
func (d *IIO) ReadRaw(channel int) (int, error) {
	path := filepath.Join(d.dir, fmt.Sprintf("in_voltage%d_raw", channel))
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	code, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return code, nil
}

// Close is a no-op; sysfs files are opened per read.
func (d *IIO) Close() error {
	return nil
}
