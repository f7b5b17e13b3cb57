//go:build linux

package masshash

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"syscall"
	"unsafe"

	"github.com/google/vectorio"
)

// iovMax is the kernel's UIO_MAXIOV, the most iovecs one writev accepts.
const iovMax = 1024

var newline = []byte{'\n'}

// WriteLines writes each line followed by a newline to f, batching them
// into writev calls. Empty lines produce just the newline.
func WriteLines(f *os.File, lines [][]byte) (int, error) {
	iovecs := make([]syscall.Iovec, 0, 2*len(lines))
	expected := 0
	for _, line := range lines {
		if len(line) > 0 {
			iovecs = append(iovecs, iovecFor(line))
			expected += len(line)
		}
		iovecs = append(iovecs, iovecFor(newline))
		expected++
	}

	written := 0
	for len(iovecs) > 0 {
		batch := iovecs[:min(iovMax, len(iovecs))]
		nw, err := vectorio.WritevRaw(uintptr(f.Fd()), batch)
		if errors.Is(err, syscall.EINTR) {
			continue
		}
		if nw > 0 {
			written += nw
			iovecs = advanceIovecs(iovecs, nw)
		}
		if err != nil {
			return written, fmt.Errorf("failed to write lines: %w", err)
		}
		if nw == 0 {
			return written, fmt.Errorf("failed to write lines: %w", io.ErrShortWrite)
		}
	}
	runtime.KeepAlive(lines)

	if written != expected {
		return written, fmt.Errorf("lines write incomplete: wrote %d bytes, expected %d", written, expected)
	}
	return written, nil
}

// advanceIovecs drops the first n written bytes from iovecs, trimming the
// iovec a short write stopped in.
func advanceIovecs(iovecs []syscall.Iovec, n int) []syscall.Iovec {
	for len(iovecs) > 0 && n >= int(iovecs[0].Len) {
		n -= int(iovecs[0].Len)
		iovecs = iovecs[1:]
	}
	if n > 0 {
		iovecs[0].Base = (*byte)(unsafe.Add(unsafe.Pointer(iovecs[0].Base), n))
		iovecs[0].SetLen(int(iovecs[0].Len) - n)
	}
	return iovecs
}

func iovecFor(b []byte) syscall.Iovec {
	iov := syscall.Iovec{Base: (*byte)(unsafe.Pointer(&b[0]))}
	iov.SetLen(len(b))
	return iov
}
