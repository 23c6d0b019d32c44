// Package tele publishes receiver status snapshots to an MQTT broker so
// fleet dashboards can watch GPSDO health without polling the device.
//
// Tele contract:
// - Init() fails only with invalid config, network issues are ignored
// - status snapshots are loss-tolerant: no disk queue, latest wins
// - Close() stops the publish loop and disconnects
package tele

import (
	"encoding/json"
	"time"

	"github.com/temoto/alive/v2"

	"github.com/gpsdo/thunderbolt/hardware/tsip"
	tele_config "github.com/gpsdo/thunderbolt/head/tele/config"
	"github.com/gpsdo/thunderbolt/helpers"
	"github.com/gpsdo/thunderbolt/log2"
)

const (
	defaultStateInterval  = 30 * time.Second
	defaultNetworkTimeout = 30 * time.Second
)

// StatusFunc decouples tele from the device: it returns the snapshot to
// publish.
type StatusFunc func() tsip.Status

type Transporter interface {
	SendState(payload []byte) bool
	Close()
}

type Tele struct {
	enabled       bool
	log           *log2.Log
	transport     Transporter
	status        StatusFunc
	stateInterval time.Duration
}

func (self *Tele) Init(log *log2.Log, teleConfig tele_config.Config, status StatusFunc) error {
	self.enabled = teleConfig.Enabled
	self.log = log
	self.status = status
	if teleConfig.LogDebug {
		self.log.SetLevel(log2.LDebug)
	}
	if !self.enabled {
		return nil
	}
	self.stateInterval = helpers.IntSecondDefault(teleConfig.StateIntervalSec, defaultStateInterval)

	if self.transport == nil { // tests set transport mock before Init
		self.transport = &transportMqtt{}
	}
	if initer, ok := self.transport.(interface {
		Init(*log2.Log, tele_config.Config, []byte) error
	}); ok {
		willPayload := []byte(`{"connected":false,"offline":true}`)
		if err := initer.Init(log, teleConfig, willPayload); err != nil {
			return err
		}
	}
	return nil
}

// Loop publishes the state snapshot every stateInterval and immediately
// when the connected flag flips.
func (self *Tele) Loop(a *alive.Alive) {
	defer a.Done()
	if !self.enabled {
		return
	}
	stopch := a.StopChan()
	last := self.status()
	self.publish(last)
	tick := time.NewTicker(self.stateInterval)
	defer tick.Stop()
	probe := time.NewTicker(1 * time.Second)
	defer probe.Stop()
	for a.IsRunning() {
		select {
		case <-stopch:
			self.transport.Close()
			return
		case <-tick.C:
			last = self.status()
			self.publish(last)
		case <-probe.C:
			if s := self.status(); s.Connected != last.Connected {
				last = s
				self.publish(last)
			}
		}
	}
}

// PublishState sends the current snapshot right away, out of band of
// the interval loop.
func (self *Tele) PublishState() {
	if !self.enabled {
		return
	}
	self.publish(self.status())
}

func (self *Tele) publish(s tsip.Status) {
	payload, err := json.Marshal(s)
	if err != nil {
		self.log.Errorf("tele: marshal err=%v", err)
		return
	}
	if !self.transport.SendState(payload) {
		self.log.Infof("tele: state publish failed, will retry on next interval")
	}
}

// SetTransport is for tests; call before Init.
func (self *Tele) SetTransport(t Transporter) { self.transport = t }
