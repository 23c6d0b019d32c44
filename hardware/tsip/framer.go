package tsip

import (
	"sync/atomic"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"

	"github.com/gpsdo/thunderbolt/hardware/serial"
	"github.com/gpsdo/thunderbolt/helpers"
	"github.com/gpsdo/thunderbolt/log2"
)

type framerState uint8

const (
	framerInit    framerState = iota // seeking frame start
	framerRead                       // accumulating payload
	framerReadDLE                    // last byte was DLE
)

// Framer strips DLE stuffing from the serial byte stream and hands
// complete frames to the Decoder. It is the sole owner of the port
// reader side and of the frame buffers; Feed must not be called
// concurrently.
//
// Known quirk carried over from the field-proven behavior: a DLE
// followed by a non-ETX byte appends that byte literally instead of a
// literal DLE. Device telemetry observed so far never embeds 0x10 in
// payload positions that would be misread, so this stays bug-compatible
// rather than textbook-correct.
type Framer struct {
	Log  *log2.Log
	port serial.Porter
	dec  *Decoder

	state framerState
	buf   Frame // unescaped payload
	raw   Frame // pre-unescape capture for diagnostics

	pollDelay time.Duration
	retry     helpers.Backoff // port errors: unplugged adapter, EIO

	// counters for debugging/tests
	frames   uint32
	losses   uint32
	overruns uint32
}

func NewFramer(log *log2.Log, port serial.Porter, dec *Decoder, pollDelay time.Duration) *Framer {
	if pollDelay <= 0 {
		pollDelay = DefaultPollDelay
	}
	return &Framer{
		Log: log, port: port, dec: dec, pollDelay: pollDelay,
		retry: helpers.Backoff{Min: pollDelay, Max: 5 * time.Second, K: 2},
	}
}

// SendEnable transmits the one-shot 0x8E-A5 packet broadcast mask
// handshake. Safe to call before the read loop starts.
func (self *Framer) SendEnable() error {
	_, err := self.port.Write(EnablePackets)
	return errors.Annotate(err, "tsip: send enable-packets")
}

// Loop drains the port without yielding while bytes are pending and
// sleeps pollDelay otherwise. Exits on alive stop.
func (self *Framer) Loop(a *alive.Alive) {
	defer a.Done()
	if err := self.SendEnable(); err != nil {
		self.Log.Errorf("%v", err)
	}
	stopch := a.StopChan()
	for a.IsRunning() {
		ready, err := self.port.Ready()
		if err != nil {
			self.Log.Errorf("tsip: port poll err=%v", err)
			select {
			case <-stopch:
				return
			case <-time.After(self.retry.DelayAfter(false)):
			}
			continue
		}
		if ready {
			b, err := self.port.ReadByte()
			if err != nil {
				if errors.Cause(err) != serial.ErrNoData {
					self.Log.Errorf("tsip: port read err=%v", err)
					select {
					case <-stopch:
						return
					case <-time.After(self.retry.DelayAfter(false)):
					}
				}
				continue
			}
			self.retry.Reset()
			self.Feed(b)
			continue
		}
		select {
		case <-stopch:
			return
		case <-time.After(self.pollDelay):
		}
	}
}

// Feed advances the framing state machine by one byte.
func (self *Framer) Feed(b byte) {
	switch self.state {
	case framerInit:
		if b != DLE {
			return // still seeking sync
		}
		if self.buf.Len() != 0 {
			// new frame started before the previous one completed
			atomic.AddUint32(&self.losses, 1)
			self.Log.Errorf("tsip: framing loss, discarding %d bytes: %s", self.buf.Len(), self.buf.Format())
		}
		self.buf.Reset()
		self.raw.Reset()
		self.raw.AppendByte(b)
		self.state = framerRead

	case framerRead:
		self.capture(b)
		if b == DLE {
			self.state = framerReadDLE
			return
		}
		self.append(b)

	case framerReadDLE:
		self.capture(b)
		if b == ETX {
			self.complete()
			self.state = framerInit
			return
		}
		if self.append(b) {
			self.state = framerRead
		}
	}
}

func (self *Framer) append(b byte) bool {
	if !self.buf.AppendByte(b) {
		atomic.AddUint32(&self.overruns, 1)
		self.Log.Errorf("tsip: buffer overrun, frame discarded, raw:\n%s", helpers.HexDump(self.raw.Bytes()))
		// offset is left non-zero: the next frame start reports the loss
		self.state = framerInit
		return false
	}
	return true
}

func (self *Framer) capture(b byte) {
	// raw capture may legitimately fill up right before payload overrun
	_ = self.raw.AppendByte(b)
}

func (self *Framer) complete() {
	atomic.AddUint32(&self.frames, 1)
	b := self.buf.Bytes()
	err := self.dec.Decode(b)
	if err != nil {
		self.Log.Errorf("tsip: decode err=%v raw:\n%s", err, helpers.HexDump(self.raw.Bytes()))
	} else {
		self.dec.State().Touch()
	}
	self.buf.Reset()
}

// Stats returns framing counters: completed frames, framing losses,
// buffer overruns.
func (self *Framer) Stats() (frames, losses, overruns uint32) {
	return atomic.LoadUint32(&self.frames), atomic.LoadUint32(&self.losses), atomic.LoadUint32(&self.overruns)
}
