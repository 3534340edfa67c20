package gpio

import "sync"

// Op records a single driver call.
type Op struct {
	Output    string
	Energized bool
}

// FakeDriver is a test double recording SetOutput calls. OnError, if set, is
// returned for calls that energize the matching output.
type FakeDriver struct {
	mu      sync.Mutex
	ops     []Op
	OnError map[string]error // output name -> error returned on energize
}

// NewFakeDriver creates an empty FakeDriver.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{OnError: map[string]error{}}
}

// SetOutput records the call, failing the on-phase when scripted.
func (f *FakeDriver) SetOutput(name string, energized bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, Op{Output: name, Energized: energized})
	if energized {
		if err, ok := f.OnError[name]; ok {
			return err
		}
	}
	return nil
}

// Ops returns a copy of the recorded calls.
func (f *FakeDriver) Ops() []Op {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Op, len(f.ops))
	copy(out, f.ops)
	return out
}

// Last returns the most recent call, if any.
func (f *FakeDriver) Last() (Op, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.ops) == 0 {
		return Op{}, false
	}
	return f.ops[len(f.ops)-1], true
}
