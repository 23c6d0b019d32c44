package serial

// Mock Porter to test frame processing without a tty.

import (
	"bytes"
	"sync"

	"github.com/gpsdo/thunderbolt/helpers"
)

type MockPort struct {
	lk     sync.Mutex
	rx     bytes.Buffer // device -> host
	tx     bytes.Buffer // host -> device
	opened bool
}

func NewMockPort() *MockPort { return &MockPort{} }

func (self *MockPort) Open(path string, baud int) error {
	self.lk.Lock()
	defer self.lk.Unlock()
	self.opened = true
	return nil
}

func (self *MockPort) Ready() (bool, error) {
	self.lk.Lock()
	defer self.lk.Unlock()
	return self.rx.Len() > 0, nil
}

func (self *MockPort) ReadByte() (byte, error) {
	self.lk.Lock()
	defer self.lk.Unlock()
	if self.rx.Len() == 0 {
		return 0, ErrNoData
	}
	return self.rx.ReadByte()
}

func (self *MockPort) Write(p []byte) (int, error) {
	self.lk.Lock()
	defer self.lk.Unlock()
	return self.tx.Write(p)
}

func (self *MockPort) Close() error {
	self.lk.Lock()
	defer self.lk.Unlock()
	self.opened = false
	return nil
}

// Feed queues bytes to be returned by ReadByte.
func (self *MockPort) Feed(p []byte) {
	self.lk.Lock()
	defer self.lk.Unlock()
	self.rx.Write(p)
}

func (self *MockPort) FeedHex(s string) { self.Feed(helpers.MustHex(s)) }

// TxBytes returns everything written to the port so far.
func (self *MockPort) TxBytes() []byte {
	self.lk.Lock()
	defer self.lk.Unlock()
	return append([]byte(nil), self.tx.Bytes()...)
}
