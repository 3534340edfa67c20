// Package gpio provides relay output drivers with hardware abstraction.
// The real implementation uses the Linux GPIO character device; the nop
// driver logs intended actuation when no hardware is present, and the fake
// driver allows testing without hardware.
package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/pitwall/trackrelay/core/logger"
)

// LineDriver drives relay outputs through gpiocdev output lines.
type LineDriver struct {
	lines map[string]*gpiocdev.Line
	log   logger.Logger
}

// NewLineDriver requests one output line per named output on the given chip,
// initialized low. The caller owns Close.
func NewLineDriver(chip string, outputs map[string]int, log logger.Logger) (*LineDriver, error) {
	d := &LineDriver{lines: make(map[string]*gpiocdev.Line, len(outputs)), log: log}
	for name, offset := range outputs {
		line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0))
		if err != nil {
			d.close()
			return nil, fmt.Errorf("request line %d (%s) on %s: %w", offset, name, chip, err)
		}
		d.lines[name] = line
		log.Infof("output %s on %s line %d", name, chip, offset)
	}
	return d, nil
}

// SetOutput drives the named line high or low.
func (d *LineDriver) SetOutput(name string, energized bool) error {
	line, ok := d.lines[name]
	if !ok {
		return fmt.Errorf("no line for output %s", name)
	}
	v := 0
	if energized {
		v = 1
	}
	return line.SetValue(v)
}

// Close reverts all lines to low and releases them.
func (d *LineDriver) Close() error {
	d.close()
	return nil
}

func (d *LineDriver) close() {
	for name, line := range d.lines {
		if err := line.SetValue(0); err != nil {
			d.log.Warnf("reset %s: %v", name, err)
		}
		if err := line.Close(); err != nil {
			d.log.Warnf("close %s: %v", name, err)
		}
	}
	d.lines = nil
}

// NopDriver logs intended actuation without touching hardware. Used when the
// GPIO chip is absent; actuation degrades to a no-op, never an error.
type NopDriver struct {
	Log logger.Logger
}

// SetOutput logs the intended level change.
func (d NopDriver) SetOutput(name string, energized bool) error {
	if d.Log != nil {
		d.Log.Infof("test mode - output %s -> %v", name, energized)
	}
	return nil
}
