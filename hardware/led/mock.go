package led

import "sync"

// MockIndicator records output transitions for tests.
type MockIndicator struct {
	lk     sync.Mutex
	OK     bool
	Fault  bool
	OKs    []bool
	Faults []bool
}

func NewMockIndicator() *MockIndicator { return &MockIndicator{} }

func (self *MockIndicator) SetOK(on bool) error {
	self.lk.Lock()
	defer self.lk.Unlock()
	self.OK = on
	self.OKs = append(self.OKs, on)
	return nil
}

func (self *MockIndicator) SetFault(on bool) error {
	self.lk.Lock()
	defer self.lk.Unlock()
	self.Fault = on
	self.Faults = append(self.Faults, on)
	return nil
}

func (self *MockIndicator) Close() error { return nil }

func (self *MockIndicator) Last() (ok, fault bool) {
	self.lk.Lock()
	defer self.lk.Unlock()
	return self.OK, self.Fault
}
