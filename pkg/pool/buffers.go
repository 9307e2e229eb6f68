// Package pool reuses the buffers pages and live renders are written into.
package pool

import (
	"bytes"
	"sync"
)

// MaxBufferSize is the largest buffer kept for reuse. Bigger ones are left
// to the garbage collector.
const MaxBufferSize = 64 << 10

var buffers = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// GetBuffer returns an empty buffer.
func GetBuffer() *bytes.Buffer {
	buf := buffers.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns buf for reuse. buf must not be used afterwards.
func PutBuffer(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > MaxBufferSize {
		return
	}
	buffers.Put(buf)
}
