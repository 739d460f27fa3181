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

// Package ledger keeps a record of the lifecycle of native handles.
//
// Native handles are plain addresses: once deleted, nothing distinguishes
// a dangling handle from a live one. A Ledger remembers which addresses are
// live so that test harnesses can assert that every successful construction
// is matched by exactly one destruction, and can refuse to forward calls
// that would otherwise be undefined.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrNilHandle is returned when a nil address is recorded.
	ErrNilHandle = errors.New("nil handle")

	// ErrAliased is returned when an address is recorded as created while
	// the ledger still holds it as live.
	ErrAliased = errors.New("handle aliases a live handle")

	// ErrNotLive is returned when an address that is unknown or already
	// deleted is used or deleted.
	ErrNotLive = errors.New("handle is not live")
)

// Ledger records constructions and destructions of handles, keyed by
// their address. An address may be reused after it has been deleted,
// since native allocators are free to hand it out again.
//
// A Ledger is safe for concurrent use.
type Ledger struct {
	m       sync.Mutex
	live    map[uintptr]string
	created uint64
	deleted uint64
}

// New returns an empty Ledger.
func New() *Ledger {
	return &Ledger{live: make(map[uintptr]string)}
}

// Created records that addr has been returned by a successful
// construction. The label is used to describe the handle in Check errors.
func (l *Ledger) Created(addr uintptr, label string) error {
	if addr == 0 {
		return ErrNilHandle
	}
	l.m.Lock()
	defer l.m.Unlock()
	if _, ok := l.live[addr]; ok {
		return fmt.Errorf("%w: %#x", ErrAliased, addr)
	}
	l.live[addr] = label
	l.created++
	return nil
}

// Deleted records that addr is about to be destroyed. It returns an error,
// and records nothing, if addr is not live.
func (l *Ledger) Deleted(addr uintptr) error {
	if addr == 0 {
		return ErrNilHandle
	}
	l.m.Lock()
	defer l.m.Unlock()
	if _, ok := l.live[addr]; !ok {
		return fmt.Errorf("%w: %#x", ErrNotLive, addr)
	}
	delete(l.live, addr)
	l.deleted++
	return nil
}

// IsLive returns true if addr has been created and not yet deleted.
func (l *Ledger) IsLive(addr uintptr) bool {
	l.m.Lock()
	defer l.m.Unlock()
	_, ok := l.live[addr]
	return ok
}

// Live returns the number of live handles.
func (l *Ledger) Live() int {
	l.m.Lock()
	defer l.m.Unlock()
	return len(l.live)
}

// Counts returns the total number of recorded constructions and
// destructions.
func (l *Ledger) Counts() (created, deleted uint64) {
	l.m.Lock()
	defer l.m.Unlock()
	return l.created, l.deleted
}

// Check returns a non-nil error describing every handle that has been
// created but not deleted.
func (l *Ledger) Check() error {
	l.m.Lock()
	defer l.m.Unlock()
	if len(l.live) == 0 {
		return nil
	}
	leaked := make([]string, 0, len(l.live))
	for addr, label := range l.live {
		leaked = append(leaked, fmt.Sprintf("%#x (%s)", addr, label))
	}
	sort.Strings(leaked)
	return fmt.Errorf("%d handle(s) leaked: %s", len(leaked), strings.Join(leaked, ", "))
}
