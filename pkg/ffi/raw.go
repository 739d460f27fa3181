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
#cgo CFLAGS: -I${SRCDIR}/cxx
#cgo CXXFLAGS: -std=c++11 -I${SRCDIR}/cxx

#include "ffi.h"
*/
import "C"
import (
	"unsafe"
)

// Sample is an opaque handle to an instance of the native Sample class.
// Its size and layout are unknown to Go: values of this type cannot be
// created from Go code, and every *Sample in use has been returned by New
// or NewBytes.
type Sample C.Sample

// stringConst returns a view over the bytes of s suitable for constructing
// a std::string on the native side. No copy is made: s must stay reachable
// until the native call that receives the view returns. Empty strings
// produce a zero-length view whose data pointer may be nil.
func stringConst(s string) C.std_string_const {
	return C.std_string_const{
		data:   (*C.char)(unsafe.Pointer(unsafe.StringData(s))),
		length: C.size_t(len(s)),
	}
}

// bytesConst is the []byte counterpart of stringConst.
func bytesConst(b []byte) C.std_string_const {
	return C.std_string_const{
		data:   (*C.char)(unsafe.Pointer(unsafe.SliceData(b))),
		length: C.size_t(len(b)),
	}
}

func (s *Sample) native() *C.Sample {
	return (*C.Sample)(s)
}
