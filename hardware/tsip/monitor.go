package tsip

import (
	"time"

	"github.com/temoto/alive/v2"

	"github.com/gpsdo/thunderbolt/hardware/led"
	"github.com/gpsdo/thunderbolt/log2"
)

// Monitor periodically derives the connected flag from frame recency
// and mirrors it onto the indicator outputs.
type Monitor struct {
	Log    *log2.Log
	state  *ReceiverState
	ind    led.Indicator
	stale  time.Duration
	period time.Duration
}

func NewMonitor(log *log2.Log, state *ReceiverState, ind led.Indicator, stale, period time.Duration) *Monitor {
	if stale <= 0 {
		stale = DefaultStaleThreshold
	}
	if period <= 0 {
		period = DefaultMonitorPeriod
	}
	return &Monitor{Log: log, state: state, ind: ind, stale: stale, period: period}
}

func (self *Monitor) Loop(a *alive.Alive) {
	defer a.Done()
	stopch := a.StopChan()
	for a.IsRunning() {
		self.Tick()
		select {
		case <-stopch:
			return
		case <-time.After(self.period):
		}
	}
}

// Tick is one monitor pass, exported for tests.
func (self *Monitor) Tick() {
	was := self.state.Connected()
	connected := self.state.SinceSeen() <= self.stale
	self.state.setConnected(connected)
	if connected != was {
		self.Log.Infof("tsip: connected=%t", connected)
	}

	if self.ind == nil {
		return
	}
	st := self.state.Status()
	if err := self.ind.SetOK(connected && st.MinorAlarms == 0); err != nil {
		self.Log.Errorf("tsip: indicator ok err=%v", err)
	}
	if err := self.ind.SetFault(!connected); err != nil {
		self.Log.Errorf("tsip: indicator fault err=%v", err)
	}
}
