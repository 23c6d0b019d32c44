package tele

import "sync"

// transportMock captures published states for tests.
type transportMock struct {
	lk     sync.Mutex
	states [][]byte
	fail   bool
}

func NewTransportMock() *transportMock { return &transportMock{} }

func (self *transportMock) SendState(payload []byte) bool {
	self.lk.Lock()
	defer self.lk.Unlock()
	if self.fail {
		return false
	}
	self.states = append(self.states, append([]byte(nil), payload...))
	return true
}

func (self *transportMock) Close() {}

func (self *transportMock) States() [][]byte {
	self.lk.Lock()
	defer self.lk.Unlock()
	out := make([][]byte, len(self.states))
	copy(out, self.states)
	return out
}

func (self *transportMock) SetFail(b bool) {
	self.lk.Lock()
	self.fail = b
	self.lk.Unlock()
}
