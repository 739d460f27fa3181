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

import (
	"fmt"
	"unsafe"

	"github.com/cppbind/bindgen-example/pkg/ledger"
)

// Tracked forwards to New, SayHi and Delete while recording every handle
// it creates in a ledger. Calls on handles the ledger does not hold as live
// are rejected with an error instead of reaching the native side.
//
// Tracked is meant for test harnesses that need to check the lifecycle
// rules of the bridge. It does not free anything by itself.
type Tracked struct {
	Ledger *ledger.Ledger
}

// NewTracked returns a Tracked with an empty ledger.
func NewTracked() *Tracked {
	return &Tracked{Ledger: ledger.New()}
}

func addr(inst *Sample) uintptr {
	return uintptr(unsafe.Pointer(inst))
}

// New is like the package-level New. Only non-nil handles are recorded.
func (t *Tracked) New(name string) (*Sample, error) {
	inst := New(name)
	if inst == nil {
		return nil, nil
	}
	if err := t.Ledger.Created(addr(inst), fmt.Sprintf("%d bytes", len(name))); err != nil {
		return inst, err
	}
	return inst, nil
}

// SayHi is like the package-level SayHi, but fails if inst is not live.
func (t *Tracked) SayHi(inst *Sample) error {
	if !t.Ledger.IsLive(addr(inst)) {
		return fmt.Errorf("sayHi: %w: %#x", ledger.ErrNotLive, addr(inst))
	}
	SayHi(inst)
	return nil
}

// Delete is like the package-level Delete, but fails without touching the
// native side if inst is not live.
func (t *Tracked) Delete(inst *Sample) error {
	if err := t.Ledger.Deleted(addr(inst)); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	Delete(inst)
	return nil
}
