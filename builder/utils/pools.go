package utils

import (
	"bytes"
	"sync"
)

// MaxBufferSize is the largest buffer a pool keeps. Bigger buffers are
// dropped on Put so one oversized response does not pin its memory.
const MaxBufferSize = 1024 * 1024

// BufferPool manages a pool of reusable bytes.Buffer objects
type BufferPool struct {
	pool sync.Pool
}

// NewBufferPool creates a new BufferPool
func NewBufferPool() *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() any {
				return new(bytes.Buffer)
			},
		},
	}
}

// Get retrieves an empty buffer from the pool
func (p *BufferPool) Get() *bytes.Buffer {
	return p.pool.Get().(*bytes.Buffer)
}

// Put resets buf and returns it to the pool
func (p *BufferPool) Put(buf *bytes.Buffer) {
	if buf.Cap() > MaxBufferSize {
		return
	}
	buf.Reset()
	p.pool.Put(buf)
}

// SharedBufferPool is used for HTTP bodies and cache encodings
var SharedBufferPool = NewBufferPool()
