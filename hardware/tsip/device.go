package tsip

import (
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"

	"github.com/gpsdo/thunderbolt/hardware/led"
	"github.com/gpsdo/thunderbolt/hardware/serial"
	"github.com/gpsdo/thunderbolt/helpers"
	"github.com/gpsdo/thunderbolt/log2"
)

type DeviceConfig struct {
	PollDelay      time.Duration
	StaleThreshold time.Duration
	MonitorPeriod  time.Duration
}

// Device is the one explicitly owned Thunderbolt instance: port, state,
// framer and monitor together. Construct with NewDevice, run with Run,
// query with Status from any goroutine.
type Device struct {
	Log     *log2.Log
	port    serial.Porter
	ind     led.Indicator
	state   *ReceiverState
	framer  *Framer
	monitor *Monitor
}

func NewDevice(log *log2.Log, port serial.Porter, ind led.Indicator, cfg DeviceConfig) *Device {
	state := NewReceiverState()
	dec := NewDecoder(log, state)
	self := &Device{
		Log:     log,
		port:    port,
		ind:     ind,
		state:   state,
		framer:  NewFramer(log, port, dec, cfg.PollDelay),
		monitor: NewMonitor(log, state, ind, cfg.StaleThreshold, cfg.MonitorPeriod),
	}
	return self
}

// Run spawns the framer and monitor loops under a. Returns immediately;
// stop via a.Stop() then a.Wait().
func (self *Device) Run(a *alive.Alive) error {
	if !a.Add(2) {
		return errors.Errorf("tsip: device run after stop")
	}
	go self.framer.Loop(a)
	go self.monitor.Loop(a)
	return nil
}

func (self *Device) Status() Status { return self.state.Status() }

func (self *Device) State() *ReceiverState { return self.state }

func (self *Device) Framer() *Framer { return self.framer }

// Close releases the port and the indicator lines.
func (self *Device) Close() error {
	errs := []error{self.port.Close()}
	if self.ind != nil {
		errs = append(errs, self.ind.Close())
	}
	return helpers.FoldErrors(errs)
}
