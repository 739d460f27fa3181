// SPDX-License-Identifier: Apache-2.0
/*
Copyright (C) 2023 The Falco Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ffi

/*
#include "ffi.h"
*/
import "C"
import (
	"unsafe"
)

// New constructs a native Sample whose stored name is a copy of the bytes
// of name. The bytes are handed over as-is, embedded NULs included.
//
// The returned handle is owned by the caller, which must release it with
// exactly one call to Delete. A nil handle means the native allocation
// failed.
func New(name string) *Sample {
	return (*Sample)(C.Sample_new(stringConst(name)))
}

// NewBytes is like New, but takes the name as a byte slice. The slice is
// only read for the duration of the call: modifying or reusing it
// afterwards does not affect the returned handle.
func NewBytes(name []byte) *Sample {
	return (*Sample)(C.Sample_new(bytesConst(name)))
}

// SayHi makes the native instance print its greeting to the process
// standard output. The handle must be live.
func SayHi(inst *Sample) {
	C.Sample_sayHi(inst.native())
}

// Delete destroys the native instance and releases its memory. The handle
// must be live, and it is dangling once this returns.
//
// The behavior of Delete on a nil, dangling or foreign handle is undefined.
func Delete(inst *Sample) {
	C.Sample_delete(inst.native())
}

// Name returns a copy of the name stored by the native instance. The
// handle must be live.
func Name(inst *Sample) []byte {
	view := C.Sample_name(inst.native())
	name := make([]byte, int(view.length))
	if len(name) > 0 {
		copy(name, unsafe.Slice((*byte)(unsafe.Pointer(view.data)), len(name)))
	}
	return name
}

// LiveCount returns the number of native instances that have been
// constructed and not yet deleted.
func LiveCount() int {
	return int(C.Sample_liveCount())
}

// FlushStdout flushes both the C++ and the C standard output streams.
func FlushStdout() {
	C.Sample_flushStdout()
}
