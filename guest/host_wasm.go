//go:build wasip1

package guest

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"
)

// MaxTotalAllocations bounds the memory pinned for the host at any time.
const MaxTotalAllocations = 100 * 1024 * 1024 // 100 MB

//go:wasmimport ankibridge_host invoke_method
//nolint:revive // intentional snake_case to match WASM import convention
func host_invoke_method(requestPacked uint64) uint64

//go:wasmimport ankibridge_host log_message
//nolint:revive // intentional snake_case to match WASM import convention
func host_log_message(messagePacked uint64)

// pinned keeps buffers handed to the host reachable until they are freed.
var pinned = struct {
	sync.Mutex
	ptrs  map[uint32][]byte
	total int
}{ptrs: make(map[uint32][]byte)}

//go:wasmexport allocate
func allocate(size uint32) uint32 {
	if size == 0 {
		return 0
	}
	pinned.Lock()
	defer pinned.Unlock()

	if pinned.total+int(size) > MaxTotalAllocations {
		panic(fmt.Sprintf("guest: allocation limit exceeded (requested %d, pinned %d)", size, pinned.total))
	}
	buf := make([]byte, size)
	ptr := uint32(uintptr(unsafe.Pointer(&buf[0])))
	pinned.ptrs[ptr] = buf
	pinned.total += int(size)
	return ptr
}

//go:wasmexport deallocate
func deallocate(ptr uint32, _ uint32) {
	pinned.Lock()
	defer pinned.Unlock()

	buf, ok := pinned.ptrs[ptr]
	if !ok {
		return
	}
	delete(pinned.ptrs, ptr)
	pinned.total -= len(buf)
}

// Pack copies data into pinned memory and returns its packed ptr+len.
// The caller owns the buffer and frees it with Free.
func Pack(data []byte) uint64 {
	if len(data) == 0 {
		return 0
	}
	size := uint32(len(data))
	ptr := allocate(size)
	//nolint:gosec // G103: Valid unsafe.Pointer use for WASM linear memory access
	copy(unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), size), data)
	return packPtrLen(ptr, size)
}

// Free releases memory returned by Pack or written by the host.
func Free(packed uint64) {
	ptr, length := unpackPtrLen(packed)
	if ptr != 0 && length > 0 {
		deallocate(ptr, length)
	}
}

func readPacked(packed uint64) []byte {
	ptr, length := unpackPtrLen(packed)
	if ptr == 0 || length == 0 {
		return nil
	}
	//nolint:gosec // G103: Valid unsafe.Pointer use for WASM linear memory access
	src := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), length)
	out := make([]byte, length)
	copy(out, src)
	return out
}

func hostTransport(request []byte) []byte {
	req := Pack(request)
	defer Free(req)

	resp := host_invoke_method(req)
	defer Free(resp)
	return readPacked(resp)
}

func hostLog(message []byte) {
	packed := Pack(message)
	defer Free(packed)
	host_log_message(packed)
}

// Host is the client bound to the ankibridge_host imports.
var Host = NewClient(hostTransport)

func init() {
	slog.SetDefault(slog.New(NewLogHandler(hostLog, slog.LevelInfo)))
}
