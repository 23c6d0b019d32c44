package tele

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/alive/v2"

	"github.com/gpsdo/thunderbolt/hardware/tsip"
	tele_config "github.com/gpsdo/thunderbolt/head/tele/config"
	"github.com/gpsdo/thunderbolt/log2"
)

func testTele(t testing.TB, conf tele_config.Config, status StatusFunc) (*Tele, *transportMock) {
	transport := NewTransportMock()
	tele := &Tele{}
	tele.SetTransport(transport)
	require.NoError(t, tele.Init(log2.NewTest(t, log2.LDebug), conf, status))
	return tele, transport
}

func TestTeleDisabled(t *testing.T) {
	t.Parallel()
	tele, transport := testTele(t, tele_config.Config{Enabled: false}, func() tsip.Status {
		t.Error("status must not be queried while disabled")
		return tsip.Status{}
	})
	tele.PublishState()
	assert.Empty(t, transport.States())
}

func TestTelePublishState(t *testing.T) {
	t.Parallel()
	state := tsip.NewReceiverState()
	tele, transport := testTele(t, tele_config.Config{Enabled: true}, state.Status)

	tele.PublishState()
	states := transport.States()
	require.Len(t, states, 1)

	var s tsip.Status
	require.NoError(t, json.Unmarshal(states[0], &s))
	assert.False(t, s.Connected)
}

func TestTelePublishFailureTolerated(t *testing.T) {
	t.Parallel()
	state := tsip.NewReceiverState()
	tele, transport := testTele(t, tele_config.Config{Enabled: true}, state.Status)

	transport.SetFail(true)
	tele.PublishState()
	assert.Empty(t, transport.States())

	transport.SetFail(false)
	tele.PublishState()
	assert.Len(t, transport.States(), 1)
}

func TestTeleLoop(t *testing.T) {
	t.Parallel()
	state := tsip.NewReceiverState()
	tele, transport := testTele(t, tele_config.Config{Enabled: true, StateIntervalSec: 1}, state.Status)

	a := alive.NewAlive()
	require.True(t, a.Add(1))
	go tele.Loop(a)

	deadline := time.Now().Add(5 * time.Second)
	for len(transport.States()) < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	a.Stop()
	a.Wait()
	assert.GreaterOrEqual(t, len(transport.States()), 2)
}
