// Package led drives the status/fault indicator outputs through the
// Linux gpio character device.
package led

import (
	"strconv"

	"github.com/juju/errors"
	gpio "github.com/temoto/gpio-cdev-go"
)

// Indicator is the boolean signal pair consumed by external signaling
// hardware: "status ok" and "link failed".
type Indicator interface {
	SetOK(on bool) error
	SetFault(on bool) error
	Close() error
}

type PinMap struct {
	Chip  string `hcl:"chip"`
	OK    string `hcl:"ok"`
	Fault string `hcl:"fault"`
}

type gpioIndicator struct {
	chip     gpio.Chiper
	lines    gpio.Lineser
	setOK    gpio.LineSetFunc
	setFault gpio.LineSetFunc
}

func NewGpioIndicator(pinmap PinMap) (Indicator, error) {
	chip, err := gpio.Open(pinmap.Chip, "thunderbolt")
	if err != nil {
		return nil, errors.Annotatef(err, "led: gpio chip=%s", pinmap.Chip)
	}
	nOK, err := atou32(pinmap.OK)
	if err != nil {
		return nil, errors.Annotatef(err, "led: pin ok=%s", pinmap.OK)
	}
	nFault, err := atou32(pinmap.Fault)
	if err != nil {
		return nil, errors.Annotatef(err, "led: pin fault=%s", pinmap.Fault)
	}
	lines, err := chip.OpenLines(gpio.GPIOHANDLE_REQUEST_OUTPUT, "led", nOK, nFault)
	if err != nil {
		chip.Close()
		return nil, errors.Annotatef(err, "led: lines=%v", pinmap)
	}
	self := &gpioIndicator{
		chip:     chip,
		lines:    lines,
		setOK:    lines.SetFunc(nOK),
		setFault: lines.SetFunc(nFault),
	}
	return self, nil
}

func (self *gpioIndicator) SetOK(on bool) error    { return self.set(self.setOK, on) }
func (self *gpioIndicator) SetFault(on bool) error { return self.set(self.setFault, on) }

func (self *gpioIndicator) set(fun gpio.LineSetFunc, on bool) error {
	v := byte(0)
	if on {
		v = 1
	}
	fun(v)
	return errors.Trace(self.lines.Flush())
}

func (self *gpioIndicator) Close() error {
	self.lines.Close()
	return self.chip.Close()
}

func atou32(s string) (uint32, error) {
	x, err := strconv.ParseUint(s, 10, 32)
	return uint32(x), err
}
