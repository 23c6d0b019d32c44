// Package serial provides the polled, non-blocking byte channel to the
// GPS receiver. Reads never block: callers must check Ready() first.
package serial

import (
	"os"
	"syscall"

	"github.com/juju/errors"
	"golang.org/x/sys/unix"

	"github.com/gpsdo/thunderbolt/log2"
)

type Porter interface {
	Open(path string, baud int) error
	// Ready reports pending input without consuming it.
	Ready() (bool, error)
	ReadByte() (byte, error)
	Write(p []byte) (int, error)
	Close() error
}

var ErrNoData = errors.New("serial: no data")

// FIONREAD is not exported by x/sys/unix for linux
const cFIONREAD = 0x541b

var baudMap = map[int]uint32{
	4800:  unix.B4800,
	9600:  unix.B9600,
	19200: unix.B19200,
}

type filePort struct {
	Log  *log2.Log
	f    *os.File
	rbuf [1]byte
}

func NewFilePort(log *log2.Log) *filePort { return &filePort{Log: log} }

func (self *filePort) Open(path string, baud int) error {
	if self.f != nil {
		self.f.Close()
	}
	if baud == 0 {
		baud = 9600
	}
	speed, ok := baudMap[baud]
	if !ok {
		return errors.Errorf("serial: unsupported baud=%d", baud)
	}

	f, err := os.OpenFile(path, syscall.O_RDWR|syscall.O_NOCTTY|syscall.O_NONBLOCK, 0600)
	if err != nil {
		return errors.Annotatef(err, "serial: open device=%s", path)
	}
	fd := int(f.Fd())
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		f.Close()
		return errors.Annotatef(err, "serial: tcgets device=%s", path)
	}
	// raw 8N1, zero-length read timeout
	t.Iflag = unix.IGNBRK
	t.Oflag = 0
	t.Lflag = 0
	t.Cflag = unix.CLOCAL | unix.CREAD | unix.CS8
	t.Cflag &^= uint32(unix.CBAUD)
	t.Cflag |= speed
	t.Ispeed = speed
	t.Ospeed = speed
	t.Cc[unix.VMIN] = 0
	t.Cc[unix.VTIME] = 0
	if err = unix.IoctlSetTermios(fd, unix.TCSETSF, t); err != nil {
		f.Close()
		return errors.Annotatef(err, "serial: tcsets device=%s baud=%d", path, baud)
	}
	self.f = f
	self.Log.Debugf("serial: open device=%s baud=%d", path, baud)
	return nil
}

func (self *filePort) Ready() (bool, error) {
	n, err := unix.IoctlGetInt(int(self.f.Fd()), cFIONREAD)
	if err != nil {
		return false, errors.Annotate(err, "serial: fionread")
	}
	return n > 0, nil
}

func (self *filePort) ReadByte() (byte, error) {
	n, err := self.f.Read(self.rbuf[:1])
	if err != nil {
		if pe, ok := err.(*os.PathError); ok && pe.Timeout() {
			return 0, ErrNoData
		}
		return 0, errors.Trace(err)
	}
	if n == 0 {
		return 0, ErrNoData
	}
	return self.rbuf[0], nil
}

func (self *filePort) Write(p []byte) (int, error) {
	n, err := self.f.Write(p)
	return n, errors.Trace(err)
}

func (self *filePort) Close() error {
	if self.f == nil {
		return nil
	}
	err := self.f.Close()
	self.f = nil
	return err
}
