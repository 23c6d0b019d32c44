package tsip

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpsdo/thunderbolt/log2"
)

func TestStateSinceSeen(t *testing.T) {
	t.Parallel()
	state := NewReceiverState()
	assert.True(t, state.SinceSeen() > time.Hour)

	state.Touch()
	assert.True(t, state.SinceSeen() < time.Second)
}

func TestStatusSnapshot(t *testing.T) {
	t.Parallel()
	state := NewReceiverState()
	d := NewDecoder(log2.NewTest(t, log2.LDebug), state)

	require.NoError(t, d.Decode(framePrimaryTiming(406800, 1000, 18, 30, 15, 12, 1, 1, 2024)))
	require.NoError(t, d.Decode(frameSecondaryTiming(func(b []byte) {
		b[2] = 7  // receiver mode
		b[13] = 2 // gps status
	})))
	state.Touch()

	s := state.Status()
	assert.True(t, s.Connected)
	assert.Equal(t, uint8(7), s.ReceiverMode)
	assert.Equal(t, uint8(2), s.GpsStatus)
	assert.Equal(t, uint16(2024), s.WeekNumber)
	assert.Equal(t, "12:15:30", s.Tm)
	assert.NotEmpty(t, s.Time)

	seen, err := time.Parse(time.RFC3339Nano, s.LastSeen)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), seen, time.Second)
}

func TestStatusTimeEmptyBeforeFirstPacket(t *testing.T) {
	t.Parallel()
	state := NewReceiverState()
	s := state.Status()
	assert.Empty(t, s.Time)
	assert.Empty(t, s.LastSeen)
	assert.False(t, s.Connected)
}

func TestStatusSatellitesCopy(t *testing.T) {
	t.Parallel()
	state := NewReceiverState()
	d := NewDecoder(log2.NewTest(t, log2.LDebug), state)
	require.NoError(t, d.Decode(frameSatSelect(0x34, 5, 1, 12)))

	s := state.Status()
	require.Equal(t, []int8{1, 5, 12}, s.Satellites)
	s.Satellites[0] = 99
	assert.Equal(t, []int8{1, 5, 12}, state.Status().Satellites)
}

func TestStatusJSONFieldNames(t *testing.T) {
	t.Parallel()
	b, err := json.Marshal(Status{})
	require.NoError(t, err)
	m := make(map[string]json.RawMessage)
	require.NoError(t, json.Unmarshal(b, &m))
	for _, k := range []string{
		"connected", "receiver_mode", "discipline_mode", "self_survey_progress",
		"holdover_duration", "critical_alarms", "minor_alarms", "gps_status",
		"disciplining_activity", "pps_offset_ns", "osc_offset_ppb",
		"dac_value", "dac_voltage", "temperature_c",
		"latitude", "longitude", "altitude",
		"pdop", "hdop", "vdop", "tdop",
		"satellites", "fix_dim",
		"time_of_week", "week_number", "utc_offset", "tm",
	} {
		assert.Contains(t, m, k)
	}
}

func TestGpsTime(t *testing.T) {
	t.Parallel()
	// week 2024, tow 406800, offset 18 -> 2018-10-21T12:59:42Z... verify
	// against a manual composition from the epoch instead of a literal.
	tm, ok := gpsTime(2024, 406800, 18)
	require.True(t, ok)
	want := time.Date(1980, 1, 6, 0, 0, 0, 0, time.UTC).
		Add(2024 * 7 * 24 * time.Hour).
		Add((406800 - 18) * time.Second)
	assert.Equal(t, want, tm)

	_, ok = gpsTime(0, 0, 0)
	assert.False(t, ok)
}
