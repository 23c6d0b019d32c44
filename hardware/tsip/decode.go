package tsip

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/gpsdo/thunderbolt/log2"
)

// Decoder interprets complete frames and applies them to a
// ReceiverState. State is only mutated by a fully successful decode:
// length checks happen before the first field write.
type Decoder struct {
	Log   *log2.Log
	state *ReceiverState
}

func NewDecoder(log *log2.Log, state *ReceiverState) *Decoder {
	return &Decoder{Log: log, state: state}
}

func (self *Decoder) State() *ReceiverState { return self.state }

// UnrecognizedError: id/sub-id known neither as a layout nor as an
// ignore list entry.
type UnrecognizedError struct {
	ID    byte
	SubID byte
}

func (e UnrecognizedError) Error() string {
	if e.ID == idSuperpacket {
		return fmt.Sprintf("tsip: unrecognized packet id=%02x sub=%02x", e.ID, e.SubID)
	}
	return fmt.Sprintf("tsip: unrecognized packet id=%02x", e.ID)
}

// MalformedError: recognized id with a frame length that does not match
// the fixed layout.
type MalformedError struct {
	ID     byte
	SubID  byte
	Len    int
	Expect string
}

func (e MalformedError) Error() string {
	return fmt.Sprintf("tsip: malformed packet id=%02x sub=%02x len=%d expect=%s", e.ID, e.SubID, e.Len, e.Expect)
}

const (
	idNAK         = 0x13
	idSatSelect   = 0x6d
	idSuperpacket = 0x8f

	subPrimaryTiming   = 0xab
	subSecondaryTiming = 0xac
)

// Report packets documented in the manual whose content this system
// does not need. Accepted without state change.
var ignoreIDs = map[byte]struct{}{
	0x43: {}, 0x45: {}, 0x47: {}, 0x49: {}, 0x55: {}, 0x56: {},
	0x57: {}, 0x58: {}, 0x59: {}, 0x5a: {}, 0x5b: {}, 0x5c: {},
	0x5f: {}, 0x70: {}, 0x83: {}, 0x84: {}, 0xbb: {},
}

var ignoreSubIDs = map[byte]struct{}{
	0x15: {}, 0x41: {}, 0x42: {}, 0x4a: {}, 0x4c: {}, 0xa0: {},
	0xa1: {}, 0xa2: {}, 0xa5: {}, 0xa7: {}, 0xa8: {}, 0xa9: {},
}

type decodeFunc func(*Decoder, []byte) error

var decoders = map[byte]decodeFunc{
	idNAK:       (*Decoder).decodeNAK,
	idSatSelect: (*Decoder).decodeSatSelect,
}

var superDecoders = map[byte]decodeFunc{
	subPrimaryTiming:   (*Decoder).decodePrimaryTiming,
	subSecondaryTiming: (*Decoder).decodeSecondaryTiming,
}

// Decode dispatches one frame by its leading id/sub-id bytes.
// nil result means the frame was accepted (decoded or ignored) and
// last_seen may be advanced; an error leaves the state untouched.
func (self *Decoder) Decode(b []byte) error {
	if len(b) == 0 {
		return MalformedError{Len: 0, Expect: ">=1"}
	}
	id := b[0]

	if id == idSuperpacket {
		if len(b) < 2 {
			return MalformedError{ID: id, Len: len(b), Expect: ">=2"}
		}
		sub := b[1]
		if fn, ok := superDecoders[sub]; ok {
			return fn(self, b)
		}
		if _, ok := ignoreSubIDs[sub]; ok {
			return nil
		}
		return UnrecognizedError{ID: id, SubID: sub}
	}

	if fn, ok := decoders[id]; ok {
		return fn(self, b)
	}
	if _, ok := ignoreIDs[id]; ok {
		return nil
	}
	return UnrecognizedError{ID: id}
}

// 0x13 negative acknowledgement. A few rejections are expected
// cross-firmware noise (commands some firmware revisions lack) and are
// swallowed without even a log line.
func (self *Decoder) decodeNAK(b []byte) error {
	if len(b) < 2 {
		return MalformedError{ID: idNAK, Len: len(b), Expect: ">=2"}
	}
	code := b[1]
	switch {
	case code == 0x1c:
		return nil
	case code == 0x8e && len(b) >= 3 && b[2] == 0x4e:
		return nil
	case code == 0x3c && len(b) >= 3 && b[2] > 32:
		return nil
	}
	self.Log.Errorf("tsip: receiver rejected command=%02x frame=%x", code, b)
	return nil
}

// 0x6D satellite selection list: bitmask, four dilution figures, then
// one signed PRN byte per tracked satellite.
func (self *Decoder) decodeSatSelect(b []byte) error {
	if len(b) < 18 {
		return MalformedError{ID: idSatSelect, Len: len(b), Expect: ">=18"}
	}
	bm := b[1]
	pdop := f32(b[2:6])
	hdop := f32(b[6:10])
	vdop := f32(b[10:14])
	tdop := f32(b[14:18])

	fixDim := uint8(FixNone)
	switch bm & 0x07 {
	case 0:
		fixDim = FixNone
	case 1:
		fixDim = Fix1DClock
	case 3:
		fixDim = Fix2D
	case 4:
		fixDim = Fix3D
	case 5:
		fixDim = Fix0DClock
	default:
		self.Log.Errorf("tsip: 0x6d unknown fix dimension bitmask=%08b", bm)
	}

	// Count in bits 4-7 is informational only; the wire PRN list is
	// authoritative and the two are known to disagree on some firmware.
	count := bm >> 4
	sats := make([]int8, len(b)-18)
	for i, sb := range b[18:] {
		sats[i] = int8(sb)
	}
	sort.Slice(sats, func(i, j int) bool { return sats[i] < sats[j] })
	self.Log.Debugf("tsip: 0x6d fix=%d count=%d sats=%v pdop=%.1f", fixDim, count, sats, pdop)

	st := self.state
	st.lk.Lock()
	st.pdop, st.hdop, st.vdop, st.tdop = pdop, hdop, vdop, tdop
	st.satellites = sats
	st.fixDim = fixDim
	st.lk.Unlock()
	return nil
}

// 0x8F-AB primary timing. The week counter wraps every 1024 weeks and
// this firmware reports relative to the 1999-08-22 epoch, hence +1024.
func (self *Decoder) decodePrimaryTiming(b []byte) error {
	if len(b) != 18 {
		return MalformedError{ID: idSuperpacket, SubID: subPrimaryTiming, Len: len(b), Expect: "18"}
	}
	tow := binary.BigEndian.Uint32(b[2:6])
	week := binary.BigEndian.Uint16(b[6:8]) + 1024
	utcOffset := int16(binary.BigEndian.Uint16(b[8:10]))
	// b[10] timing flag, b[14:18] day/month/year: not retained
	seconds, minutes, hours := b[11], b[12], b[13]
	tm := fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	self.Log.Debugf("tsip: 0x8f-ab time=%s week=%d tow=%d utc_offset=%d", tm, week, tow, utcOffset)

	st := self.state
	st.lk.Lock()
	st.timeOfWeek = tow
	st.weekNumber = week
	st.utcOffset = utcOffset
	st.tm = tm
	st.connected = true
	st.lk.Unlock()
	return nil
}

// 0x8F-AC secondary timing / health. Position is stored in raw device
// units: latitude/longitude radians, altitude meters.
func (self *Decoder) decodeSecondaryTiming(b []byte) error {
	if len(b) != 69 {
		return MalformedError{ID: idSuperpacket, SubID: subSecondaryTiming, Len: len(b), Expect: "69"}
	}
	st := self.state
	st.lk.Lock()
	st.receiverMode = b[2]
	st.disciplineMode = b[3]
	st.selfSurveyProgress = b[4]
	st.holdoverDuration = binary.BigEndian.Uint32(b[5:9])
	st.criticalAlarms = binary.BigEndian.Uint16(b[9:11])
	st.minorAlarms = binary.BigEndian.Uint16(b[11:13])
	st.gpsStatus = b[13]
	st.discipliningActivity = b[14]
	// b[15:17] spare status bytes
	st.ppsOffsetNs = f32(b[17:21])
	st.oscOffsetPpb = f32(b[21:25])
	st.dacValue = binary.BigEndian.Uint32(b[25:29])
	st.dacVoltage = f32(b[29:33])
	st.temperatureC = f32(b[33:37])
	st.latitudeRad = f64(b[37:45])
	st.longitudeRad = f64(b[45:53])
	st.altitudeM = f64(b[53:61])
	// b[61:69] reserved
	st.lk.Unlock()
	self.Log.Debugf("tsip: 0x8f-ac rcvr=%d disc=%d critical=%04x minor=%04x gps=%d",
		b[2], b[3], binary.BigEndian.Uint16(b[9:11]), binary.BigEndian.Uint16(b[11:13]), b[13])
	return nil
}

func f32(b []byte) float32 { return math.Float32frombits(binary.BigEndian.Uint32(b)) }
func f64(b []byte) float64 { return math.Float64frombits(binary.BigEndian.Uint64(b)) }
