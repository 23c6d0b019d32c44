package tsip

import (
	"sync"
	"time"

	"github.com/temoto/atomic_clock"
)

// GPS time starts 1980-01-06T00:00:00Z, counted in 604800s weeks.
var gpsEpoch = time.Date(1980, 1, 6, 0, 0, 0, 0, time.UTC)

const secondsPerWeek = 7 * 24 * 3600

// Fix dimension reported in 0x6D, after mapping raw codes.
const (
	FixNone    = 0
	Fix1DClock = 1
	Fix2D      = 2
	Fix3D      = 3
	Fix0DClock = 5
)

// ReceiverState is the single long-lived model of decoded telemetry.
// Written only by the Decoder and Monitor, read by anyone via Status().
// The mutex keeps multi-field updates (0x8F-AC) from being observed torn.
type ReceiverState struct {
	lk       sync.Mutex
	lastSeen *atomic_clock.Clock

	connected bool

	// 0x8F-AC secondary timing / health
	receiverMode         uint8
	disciplineMode       uint8
	selfSurveyProgress   uint8
	holdoverDuration     uint32
	criticalAlarms       uint16
	minorAlarms          uint16
	gpsStatus            uint8
	discipliningActivity uint8
	ppsOffsetNs          float32
	oscOffsetPpb         float32
	dacValue             uint32
	dacVoltage           float32
	temperatureC         float32
	latitudeRad          float64
	longitudeRad         float64
	altitudeM            float64

	// 0x6D satellite selection
	pdop       float32
	hdop       float32
	vdop       float32
	tdop       float32
	satellites []int8
	fixDim     uint8

	// 0x8F-AB primary timing
	timeOfWeek uint32
	weekNumber uint16
	utcOffset  int16
	tm         string
}

func NewReceiverState() *ReceiverState {
	return &ReceiverState{lastSeen: atomic_clock.New()}
}

// Touch records frame arrival for the staleness monitor.
func (self *ReceiverState) Touch() { self.lastSeen.SetNow() }

func (self *ReceiverState) SinceSeen() time.Duration {
	if self.lastSeen.IsZero() {
		return time.Duration(1<<63 - 1)
	}
	return atomic_clock.Since(self.lastSeen)
}

func (self *ReceiverState) Connected() bool {
	self.lk.Lock()
	defer self.lk.Unlock()
	return self.connected
}

func (self *ReceiverState) setConnected(b bool) {
	self.lk.Lock()
	self.connected = b
	self.lk.Unlock()
}

// Status is the read-only snapshot handed to status queries and
// telemetry. Field names follow the receiver manual, angles stay in
// radians and altitude in meters as reported by the device.
type Status struct {
	Connected            bool    `json:"connected"`
	ReceiverMode         uint8   `json:"receiver_mode"`
	DisciplineMode       uint8   `json:"discipline_mode"`
	SelfSurveyProgress   uint8   `json:"self_survey_progress"`
	HoldoverDuration     uint32  `json:"holdover_duration"`
	CriticalAlarms       uint16  `json:"critical_alarms"`
	MinorAlarms          uint16  `json:"minor_alarms"`
	GpsStatus            uint8   `json:"gps_status"`
	DiscipliningActivity uint8   `json:"disciplining_activity"`
	PpsOffsetNs          float32 `json:"pps_offset_ns"`
	OscOffsetPpb         float32 `json:"osc_offset_ppb"`
	DacValue             uint32  `json:"dac_value"`
	DacVoltage           float32 `json:"dac_voltage"`
	TemperatureC         float32 `json:"temperature_c"`
	Latitude             float64 `json:"latitude"`
	Longitude            float64 `json:"longitude"`
	Altitude             float64 `json:"altitude"`
	Pdop                 float32 `json:"pdop"`
	Hdop                 float32 `json:"hdop"`
	Vdop                 float32 `json:"vdop"`
	Tdop                 float32 `json:"tdop"`
	Satellites           []int8  `json:"satellites"`
	FixDim               uint8   `json:"fix_dim"`
	TimeOfWeek           uint32  `json:"time_of_week"`
	WeekNumber           uint16  `json:"week_number"`
	UtcOffset            int16   `json:"utc_offset"`
	Tm                   string  `json:"tm"`
	Time                 string  `json:"time"`
	LastSeen             string  `json:"last_seen"`
}

// Status copies all fields under one lock so callers never observe a
// half-applied packet.
func (self *ReceiverState) Status() Status {
	self.lk.Lock()
	s := Status{
		Connected:            self.connected,
		ReceiverMode:         self.receiverMode,
		DisciplineMode:       self.disciplineMode,
		SelfSurveyProgress:   self.selfSurveyProgress,
		HoldoverDuration:     self.holdoverDuration,
		CriticalAlarms:       self.criticalAlarms,
		MinorAlarms:          self.minorAlarms,
		GpsStatus:            self.gpsStatus,
		DiscipliningActivity: self.discipliningActivity,
		PpsOffsetNs:          self.ppsOffsetNs,
		OscOffsetPpb:         self.oscOffsetPpb,
		DacValue:             self.dacValue,
		DacVoltage:           self.dacVoltage,
		TemperatureC:         self.temperatureC,
		Latitude:             self.latitudeRad,
		Longitude:            self.longitudeRad,
		Altitude:             self.altitudeM,
		Pdop:                 self.pdop,
		Hdop:                 self.hdop,
		Vdop:                 self.vdop,
		Tdop:                 self.tdop,
		Satellites:           append([]int8(nil), self.satellites...),
		FixDim:               self.fixDim,
		TimeOfWeek:           self.timeOfWeek,
		WeekNumber:           self.weekNumber,
		UtcOffset:            self.utcOffset,
		Tm:                   self.tm,
	}
	self.lk.Unlock()

	if t, ok := gpsTime(s.WeekNumber, s.TimeOfWeek, s.UtcOffset); ok {
		s.Time = t.Format(time.RFC3339)
	}
	if !self.lastSeen.IsZero() {
		// the clock stores a monotonic reading, convert via elapsed time
		seen := time.Now().Add(-atomic_clock.Since(self.lastSeen))
		s.LastSeen = seen.UTC().Format(time.RFC3339Nano)
	}
	return s
}

// gpsTime derives UTC wall clock from GPS week + time of week, applying
// the leap second offset. Not stored: recomputed on demand.
func gpsTime(week uint16, tow uint32, utcOffset int16) (time.Time, bool) {
	if week == 0 {
		return time.Time{}, false
	}
	d := time.Duration(int64(week)*secondsPerWeek+int64(tow)-int64(utcOffset)) * time.Second
	return gpsEpoch.Add(d), true
}
