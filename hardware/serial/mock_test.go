package serial

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockPort(t *testing.T) {
	t.Parallel()
	p := NewMockPort()
	require.NoError(t, p.Open("mock", 9600))

	ready, err := p.Ready()
	require.NoError(t, err)
	assert.False(t, ready)
	_, err = p.ReadByte()
	assert.Equal(t, ErrNoData, err)

	p.FeedHex("1003")
	ready, err = p.Ready()
	require.NoError(t, err)
	assert.True(t, ready)
	b, err := p.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(0x10), b)
	b, err = p.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(0x03), b)
	_, err = p.ReadByte()
	assert.Equal(t, ErrNoData, err)

	n, err := p.Write([]byte{0x10, 0x1f, 0x10, 0x03})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte{0x10, 0x1f, 0x10, 0x03}, p.TxBytes())

	require.NoError(t, p.Close())
}

func TestFilePortReadyPipe(t *testing.T) {
	t.Parallel()
	// FIONREAD works on pipes too, good enough without a tty
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer w.Close()
	p := &filePort{f: r}

	ready, err := p.Ready()
	require.NoError(t, err)
	assert.False(t, ready)

	_, err = w.Write([]byte{0x10})
	require.NoError(t, err)
	ready, err = p.Ready()
	require.NoError(t, err)
	assert.True(t, ready)

	b, err := p.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(0x10), b)
	require.NoError(t, p.Close())
}

func TestFilePortBaud(t *testing.T) {
	t.Parallel()
	p := NewFilePort(nil)
	err := p.Open("/dev/null", 115200)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported baud")
}
