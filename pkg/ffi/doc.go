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

// Package ffi is a hand-written bridge to the native C++ Sample class.
//
// The native side lives in the cxx directory: extern_lib.hpp declares the
// Sample class, and ffi.h/ffi.cpp expose it through plain C functions
// (Sample_new, Sample_sayHi, Sample_delete). This package calls those
// functions through cgo and offers New, SayHi and Delete, which take Go
// strings and hand them to C++ as {data, length} views without copying.
//
// Handles are raw pointers. Nothing here frees them automatically or
// guards against misuse: each handle returned by New must be passed to
// Delete exactly once, and must not be used afterwards. Handles are not
// safe for concurrent use. Tracked offers a checked facade meant for test
// harnesses.
//
// By default the C++ sources are compiled as part of this package. When
// built with the bindgen_prebuilt tag, the package links the static
// archives libbindgen_example_ffi.a and libextern_lib.a instead.
package ffi
