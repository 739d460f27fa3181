//go:build unix

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

// Package capture collects what a process writes to its standard output,
// including writes made by native code through the C and C++ runtimes.
package capture

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

const stdoutFd = 1

// only one capture at a time can own file descriptor 1
var m sync.Mutex

// Stdout runs fn while the process standard output is redirected into a
// pipe, and returns the bytes written during the call. flush, if non-nil,
// is called right before redirecting and right before restoring the
// original output, so that data buffered by native streams ends up on the
// right side of the redirection.
//
// Anything else writing to the standard output concurrently is captured
// as well.
func Stdout(flush func(), fn func()) ([]byte, error) {
	m.Lock()
	defer m.Unlock()

	if flush != nil {
		flush()
	}
	saved, err := unix.Dup(stdoutFd)
	if err != nil {
		return nil, fmt.Errorf("could not duplicate stdout: %w", err)
	}
	defer unix.Close(saved)

	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("could not create pipe: %w", err)
	}
	defer r.Close()

	// drain the pipe while fn runs, large outputs would block otherwise
	var buf bytes.Buffer
	done := make(chan error, 1)
	go func() {
		_, err := io.Copy(&buf, r)
		done <- err
	}()

	if err := unix.Dup2(int(w.Fd()), stdoutFd); err != nil {
		w.Close()
		<-done
		return nil, fmt.Errorf("could not redirect stdout: %w", err)
	}

	restore := func() error {
		if flush != nil {
			flush()
		}
		if err := unix.Dup2(saved, stdoutFd); err != nil {
			return fmt.Errorf("could not restore stdout: %w", err)
		}
		return w.Close()
	}

	func() {
		defer func() {
			if p := recover(); p != nil {
				restore()
				<-done
				panic(p)
			}
		}()
		fn()
	}()

	if err := restore(); err != nil {
		return nil, err
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("could not read captured output: %w", err)
	}
	return buf.Bytes(), nil
}
