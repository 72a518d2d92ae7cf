package frame

import "sync"

// Pool recycles Frames the way bgpfix's Pipe.Get/Pipe.Put recycle msg.Msg:
// Get returns a clean Frame from the pool or allocates one, Put resets and
// returns it unless the frame is still shared (SHARED flag set) or borrowed
// by the caller.
type Pool struct {
	pool sync.Pool
}

// Get returns an empty Frame.
func (p *Pool) Get() *Frame {
	if f, ok := p.pool.Get().(*Frame); ok {
		return f
	}
	return New()
}

// Put resets f and returns it to the pool. A Frame still referenced by
// another owner (FlagShared with outstanding refs) must not be put back
// until that owner releases its clone; callers that fan out via Clone are
// responsible for calling Put once per Clone, same as bgpfix's p.Put(m).
func (p *Pool) Put(f *Frame) {
	if f == nil {
		return
	}
	f.Reset()
	p.pool.Put(f)
}
