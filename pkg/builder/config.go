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
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const (
	// FFIArchive is the archive holding the C ABI shim.
	FFIArchive = "bindgen_example_ffi"

	// ExternLibArchive is the archive holding the wrapped C++ class.
	ExternLibArchive = "extern_lib"

	defaultCXX = "c++"
	defaultAR  = "ar"
)

const configSchema = `{
	"$schema": "http://json-schema.org/draft-04/schema#",
	"type": "object",
	"properties": {
		"cxx": {"type": "string", "minLength": 1},
		"ar": {"type": "string", "minLength": 1},
		"outDir": {"type": "string", "minLength": 1},
		"archives": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"properties": {
					"name": {"type": "string", "pattern": "^[A-Za-z0-9_.-]+$"},
					"sources": {
						"type": "array",
						"minItems": 1,
						"items": {"type": "string", "minLength": 1}
					},
					"includes": {"type": "array", "items": {"type": "string"}},
					"flags": {"type": "array", "items": {"type": "string"}}
				},
				"required": ["name", "sources"],
				"additionalProperties": false
			}
		}
	},
	"required": ["archives"],
	"additionalProperties": false
}`

// Archive describes one static archive to produce.
type Archive struct {
	// Name is the library name the linker resolves, as in -l<Name>.
	Name     string   `json:"name"`
	Sources  []string `json:"sources"`
	Includes []string `json:"includes,omitempty"`
	Flags    []string `json:"flags,omitempty"`
}

// Config is the input of a Builder.
type Config struct {
	CXX      string    `json:"cxx,omitempty"`
	AR       string    `json:"ar,omitempty"`
	OutDir   string    `json:"outDir,omitempty"`
	Archives []Archive `json:"archives"`
}

// DefaultConfig returns the configuration producing the two archives
// linked by the bindgen_prebuilt build of the ffi package: the shim,
// compiled with srcDir as include path, and the Sample class.
func DefaultConfig(srcDir, outDir string) *Config {
	cfg := &Config{
		OutDir: outDir,
		Archives: []Archive{
			{
				Name:     FFIArchive,
				Sources:  []string{filepath.Join(srcDir, "ffi.cpp")},
				Includes: []string{srcDir},
			},
			{
				Name:    ExternLibArchive,
				Sources: []string{filepath.Join(srcDir, "extern_lib.cpp")},
			},
		},
	}
	cfg.setDefaults()
	return cfg
}

// LoadConfig parses a JSON configuration. The document is validated
// against the configuration schema first, and the first validation error
// is returned if it does not comply.
func LoadConfig(data []byte) (*Config, error) {
	schema := gojsonschema.NewStringLoader(configSchema)
	document := gojsonschema.NewBytesLoader(data)
	result, err := gojsonschema.Validate(schema, document)
	if err != nil {
		return nil, err
	}
	if !result.Valid() {
		return nil, errors.New(result.Errors()[0].String())
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	for i := range cfg.Archives {
		cfg.Archives[i].Name = NormalizeName(cfg.Archives[i].Name)
		if len(cfg.Archives[i].Name) == 0 {
			return nil, fmt.Errorf("archive #%d has an empty name", i)
		}
	}
	cfg.setDefaults()
	return cfg, nil
}

// LoadConfigFile is like LoadConfig, but reads the document from path.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := LoadConfig(data)
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// setDefaults fills the toolchain fields from the environment, falling
// back to the platform defaults.
func (c *Config) setDefaults() {
	if len(c.CXX) == 0 {
		c.CXX = envOr("CXX", defaultCXX)
	}
	if len(c.AR) == 0 {
		c.AR = envOr("AR", defaultAR)
	}
	if len(c.OutDir) == 0 {
		c.OutDir = "."
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); len(v) > 0 {
		return v
	}
	return def
}

// NormalizeName turns a file-style archive name (libfoo.a) into the
// library name (foo). Names already in library form are returned as-is.
func NormalizeName(name string) string {
	if strings.HasSuffix(name, ".a") {
		name = strings.TrimPrefix(strings.TrimSuffix(name, ".a"), "lib")
	}
	return name
}

// LibraryFileName returns the file name the linker looks for when
// resolving -l<name> against a static archive.
func LibraryFileName(name string) string {
	return "lib" + NormalizeName(name) + ".a"
}
