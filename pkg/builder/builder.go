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

// Package builder compiles the native sources of the ffi package into
// static archives, so that Go binaries can link them instead of compiling
// the C++ code through cgo.
//
// Every source is compiled to an object file with the configured C++
// compiler, and the objects of each archive are bundled with ar:
//
//	c++ -x c++ -std=c++11 -fPIC -c src/ffi.cpp -o out/bindgen_example_ffi/ffi.o -I src
//	ar crs out/libbindgen_example_ffi.a out/bindgen_example_ffi/ffi.o
package builder

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Runner runs a toolchain command.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands as child processes.
type ExecRunner struct{}

// Run implements the Runner interface. The combined output of a failed
// command is included in the returned error.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		if out.Len() > 0 {
			return fmt.Errorf("%w: %s", err, strings.TrimSpace(out.String()))
		}
		return err
	}
	return nil
}

// Builder produces the static archives described by a Config.
type Builder struct {
	cfg    *Config
	runner Runner
	log    logrus.FieldLogger
}

// Option customizes a Builder.
type Option func(*Builder)

// WithRunner sets the Runner used to invoke the toolchain.
func WithRunner(r Runner) Option {
	return func(b *Builder) {
		b.runner = r
	}
}

// WithLogger sets the logger used to report progress.
func WithLogger(l logrus.FieldLogger) Option {
	return func(b *Builder) {
		b.log = l
	}
}

// New returns a Builder for cfg. By default, commands are run with
// ExecRunner and logged with the standard logrus logger.
func New(cfg *Config, opts ...Option) *Builder {
	b := &Builder{
		cfg:    cfg,
		runner: ExecRunner{},
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build compiles every archive of the configuration in order, and returns
// the paths of the produced archives. The first failure stops the build.
func (b *Builder) Build(ctx context.Context) ([]string, error) {
	if err := os.MkdirAll(b.cfg.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create output directory: %w", err)
	}

	var res []string
	for _, a := range b.cfg.Archives {
		path, err := b.buildArchive(ctx, a)
		if err != nil {
			return res, fmt.Errorf("archive %s: %w", a.Name, err)
		}
		res = append(res, path)
	}
	return res, nil
}

func (b *Builder) buildArchive(ctx context.Context, a Archive) (string, error) {
	name := NormalizeName(a.Name)
	log := b.log.WithField("archive", name)

	objDir := filepath.Join(b.cfg.OutDir, name)
	if err := os.MkdirAll(objDir, 0o755); err != nil {
		return "", err
	}

	objects := make([]string, 0, len(a.Sources))
	for _, src := range a.Sources {
		obj := filepath.Join(objDir, objectName(src))
		args := compileArgs(src, obj, a)
		log.WithFields(logrus.Fields{
			"source": src,
			"cmd":    b.cfg.CXX + " " + strings.Join(args, " "),
		}).Debug("compiling")
		if err := b.runner.Run(ctx, b.cfg.CXX, args...); err != nil {
			return "", fmt.Errorf("compiling %s: %w", src, err)
		}
		objects = append(objects, obj)
	}

	path := filepath.Join(b.cfg.OutDir, LibraryFileName(name))

	// ar only ever adds members, stale objects must not survive a rebuild
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return "", err
	}

	args := append([]string{"crs", path}, objects...)
	log.WithField("cmd", b.cfg.AR+" "+strings.Join(args, " ")).Debug("archiving")
	if err := b.runner.Run(ctx, b.cfg.AR, args...); err != nil {
		return "", fmt.Errorf("archiving: %w", err)
	}
	log.WithField("path", path).Info("archive built")
	return path, nil
}

func compileArgs(src, obj string, a Archive) []string {
	args := []string{"-x", "c++", "-std=c++11", "-fPIC", "-c", src, "-o", obj}
	for _, inc := range a.Includes {
		args = append(args, "-I", inc)
	}
	return append(args, a.Flags...)
}

func objectName(src string) string {
	base := filepath.Base(src)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".o"
}
