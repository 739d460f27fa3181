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

package builder

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	cmds   [][]string
	failOn string
}

func (r *recordingRunner) Run(ctx context.Context, name string, args ...string) error {
	r.cmds = append(r.cmds, append([]string{name}, args...))
	if len(r.failOn) > 0 && strings.Contains(strings.Join(args, " "), r.failOn) {
		return errors.New("exit status 1")
	}
	return nil
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "bindgen_example_ffi", NormalizeName("libbindgen_example_ffi.a"))
	assert.Equal(t, "bindgen_example_ffi", NormalizeName("bindgen_example_ffi"))
	assert.Equal(t, "extern_lib", NormalizeName("extern_lib.a"))
	assert.Equal(t, "libextern_lib.a", LibraryFileName("extern_lib"))
	assert.Equal(t, "libextern_lib.a", LibraryFileName("libextern_lib.a"))
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("CXX", "clang++")
	t.Setenv("AR", "")

	cfg := DefaultConfig("src", "out")
	assert.Equal(t, "clang++", cfg.CXX)
	assert.Equal(t, "ar", cfg.AR)
	assert.Equal(t, "out", cfg.OutDir)
	require.Len(t, cfg.Archives, 2)
	assert.Equal(t, FFIArchive, cfg.Archives[0].Name)
	assert.Equal(t, []string{filepath.Join("src", "ffi.cpp")}, cfg.Archives[0].Sources)
	assert.Equal(t, []string{"src"}, cfg.Archives[0].Includes)
	assert.Equal(t, ExternLibArchive, cfg.Archives[1].Name)
	assert.Equal(t, []string{filepath.Join("src", "extern_lib.cpp")}, cfg.Archives[1].Sources)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("CXX", "")
	t.Setenv("AR", "")

	cfg, err := LoadConfig([]byte(`{
		"outDir": "build/lib",
		"archives": [
			{"name": "libbindgen_example_ffi.a", "sources": ["ffi.cpp"], "includes": ["."]},
			{"name": "extern_lib", "sources": ["extern_lib.cpp"], "flags": ["-O2"]}
		]
	}`))
	require.NoError(t, err)
	assert.Equal(t, "c++", cfg.CXX)
	assert.Equal(t, "ar", cfg.AR)
	assert.Equal(t, "build/lib", cfg.OutDir)
	require.Len(t, cfg.Archives, 2)
	assert.Equal(t, FFIArchive, cfg.Archives[0].Name)
	assert.Equal(t, []string{"-O2"}, cfg.Archives[1].Flags)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed", `{"archives": [`},
		{"no-archives", `{"cxx": "g++"}`},
		{"empty-archives", `{"archives": []}`},
		{"no-sources", `{"archives": [{"name": "foo"}]}`},
		{"bad-name", `{"archives": [{"name": "foo bar", "sources": ["a.cpp"]}]}`},
		{"unknown-field", `{"archives": [{"name": "foo", "sources": ["a.cpp"]}], "debug": true}`},
		{"empty-name", `{"archives": [{"name": "lib.a", "sources": ["a.cpp"]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bindgen.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"archives": [{"name": "foo", "sources": ["a.cpp"]}]}`), 0o644))
	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "foo", cfg.Archives[0].Name)

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	out := t.TempDir()
	cfg := DefaultConfig("cxx", out)
	cfg.CXX = "g++"
	cfg.AR = "gcc-ar"

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	runner := &recordingRunner{}
	paths, err := New(cfg, WithRunner(runner), WithLogger(logger)).Build(context.Background())
	require.NoError(t, err)
	require.Len(t, paths, 2)

	assert.Equal(t, []string{
		filepath.Join(out, "libbindgen_example_ffi.a"),
		filepath.Join(out, "libextern_lib.a"),
	}, paths)

	ffiObj := filepath.Join(out, FFIArchive, "ffi.o")
	libObj := filepath.Join(out, ExternLibArchive, "extern_lib.o")
	assert.Equal(t, [][]string{
		{"g++", "-x", "c++", "-std=c++11", "-fPIC", "-c", filepath.Join("cxx", "ffi.cpp"), "-o", ffiObj, "-I", "cxx"},
		{"gcc-ar", "crs", paths[0], ffiObj},
		{"g++", "-x", "c++", "-std=c++11", "-fPIC", "-c", filepath.Join("cxx", "extern_lib.cpp"), "-o", libObj},
		{"gcc-ar", "crs", paths[1], libObj},
	}, runner.cmds)

	infos := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.InfoLevel {
			infos++
		}
	}
	assert.Equal(t, 2, infos)
}

func TestBuildFailure(t *testing.T) {
	cfg := DefaultConfig("cxx", t.TempDir())
	logger, _ := test.NewNullLogger()
	runner := &recordingRunner{failOn: "extern_lib.cpp"}
	paths, err := New(cfg, WithRunner(runner), WithLogger(logger)).Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive extern_lib")
	assert.Contains(t, err.Error(), "extern_lib.cpp")
	assert.Len(t, paths, 1)

	// nothing is archived after a failed compilation
	assert.Len(t, runner.cmds, 3)
}

func TestBuildToolchain(t *testing.T) {
	cfg := DefaultConfig(filepath.Join("..", "ffi", "cxx"), t.TempDir())
	if _, err := exec.LookPath(cfg.CXX); err != nil {
		t.Skipf("%s not available", cfg.CXX)
	}
	if _, err := exec.LookPath(cfg.AR); err != nil {
		t.Skipf("%s not available", cfg.AR)
	}

	logger, _ := test.NewNullLogger()
	paths, err := New(cfg, WithLogger(logger)).Build(context.Background())
	require.NoError(t, err)
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}
