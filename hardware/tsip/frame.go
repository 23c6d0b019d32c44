package tsip

import (
	"encoding/hex"
	"strings"

	"github.com/juju/errors"
)

var ErrFrameOverflow = errors.New("tsip: frame exceeds max capacity")

// Frame is a fixed-capacity accumulator for one unescaped TSIP payload.
// No dynamic growth: the backing array is reused between frames.
type Frame struct {
	b [FrameCapacity]byte
	l int
}

func FrameFromBytes(b []byte) (Frame, error) {
	f := Frame{}
	if err := f.Append(b...); err != nil {
		return Frame{}, err
	}
	return f, nil
}

func FrameFromHex(s string) (Frame, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Frame{}, errors.Trace(err)
	}
	return FrameFromBytes(b)
}

func MustFrameFromHex(s string) Frame {
	f, err := FrameFromHex(s)
	if err != nil {
		panic(err)
	}
	return f
}

func (self *Frame) Append(bs ...byte) error {
	if self.l+len(bs) > FrameCapacity {
		return ErrFrameOverflow
	}
	copy(self.b[self.l:], bs)
	self.l += len(bs)
	return nil
}

// AppendByte reports false on overflow, leaving the frame unchanged.
func (self *Frame) AppendByte(b byte) bool {
	if self.l >= FrameCapacity {
		return false
	}
	self.b[self.l] = b
	self.l++
	return true
}

func (self *Frame) Reset()        { self.l = 0 }
func (self *Frame) Len() int      { return self.l }
func (self *Frame) Bytes() []byte { return self.b[:self.l] }

// Format renders frame bytes as hex in 4-byte groups for logs.
func (self *Frame) Format() string {
	h := hex.EncodeToString(self.Bytes())
	if len(h) <= 8 {
		return h
	}
	ss := make([]string, 0, len(h)/8+1)
	for len(h) > 8 {
		ss = append(ss, h[:8])
		h = h[8:]
	}
	if len(h) > 0 {
		ss = append(ss, h)
	}
	return strings.Join(ss, " ")
}
