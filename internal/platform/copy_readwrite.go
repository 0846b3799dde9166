package platform

import (
	"io"
	"os"
	"sync"
)

const bufferSize = 1 << 20 // 1 MiB

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, bufferSize)
		return &b
	},
}

// copyReadWrite streams src into dst using a pooled buffer.
func copyReadWrite(dst, src *os.File) (CopyResult, error) {
	bufp := bufPool.Get().(*[]byte) //nolint:errcheck // pool only holds *[]byte
	defer bufPool.Put(bufp)

	// Wrapping hides ReadFrom/WriteTo so io.CopyBuffer really uses buf.
	n, err := io.CopyBuffer(struct{ io.Writer }{dst}, struct{ io.Reader }{src}, *bufp)
	return CopyResult{BytesWritten: n, Method: ReadWrite}, err
}
