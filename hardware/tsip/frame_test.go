package tsip

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameAppend(t *testing.T) {
	t.Parallel()
	f := Frame{}
	require.NoError(t, f.Append(0x8f, 0xab))
	require.True(t, f.AppendByte(0x01))
	assert.Equal(t, 3, f.Len())
	assert.Equal(t, []byte{0x8f, 0xab, 0x01}, f.Bytes())

	f.Reset()
	assert.Equal(t, 0, f.Len())
	assert.Empty(t, f.Bytes())
}

func TestFrameOverflow(t *testing.T) {
	t.Parallel()
	f := Frame{}
	require.NoError(t, f.Append(bytes.Repeat([]byte{0x55}, FrameCapacity)...))
	assert.False(t, f.AppendByte(0xff))
	assert.Equal(t, ErrFrameOverflow, f.Append(0xff))
	assert.Equal(t, FrameCapacity, f.Len())

	f.Reset()
	assert.Equal(t, ErrFrameOverflow, f.Append(make([]byte, FrameCapacity+1)...))
	assert.Equal(t, 0, f.Len())
}

func TestFrameFromHex(t *testing.T) {
	t.Parallel()
	f, err := FrameFromHex("8fab0102")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x8f, 0xab, 0x01, 0x02}, f.Bytes())

	_, err = FrameFromHex("zz")
	assert.Error(t, err)

	assert.Panics(t, func() { MustFrameFromHex("not hex") })
}

func TestFrameFormat(t *testing.T) {
	t.Parallel()
	f := MustFrameFromHex("8fab")
	assert.Equal(t, "8fab", f.Format())

	f = MustFrameFromHex("8fab00000064")
	assert.Equal(t, "8fab0000 0064", f.Format())
}
