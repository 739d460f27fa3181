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

// bindgen-build compiles the native sources of the ffi package into the
// static archives libbindgen_example_ffi.a and libextern_lib.a. Go builds
// using the bindgen_prebuilt tag link those archives.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cppbind/bindgen-example/pkg/builder"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "JSON file describing the archives to build",
	}
	srcFlag = &cli.StringFlag{
		Name:  "src",
		Usage: "directory holding the shim sources, also used as include path",
		Value: filepath.Join("pkg", "ffi", "cxx"),
	}
	outFlag = &cli.StringFlag{
		Name:  "out",
		Usage: "output directory of the archives",
		Value: filepath.Join("build", "lib"),
	}
	cxxFlag = &cli.StringFlag{
		Name:    "cxx",
		Usage:   "C++ compiler",
		EnvVars: []string{"CXX"},
	}
	arFlag = &cli.StringFlag{
		Name:    "ar",
		Usage:   "archiver",
		EnvVars: []string{"AR"},
	}
	verboseFlag = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "print every toolchain command",
	}
)

var app = &cli.App{
	Name:   "bindgen-build",
	Usage:  "compile the Sample C ABI shim into static archives",
	Flags:  []cli.Flag{configFlag, srcFlag, outFlag, cxxFlag, arFlag, verboseFlag},
	Action: build,
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func build(ctx *cli.Context) error {
	log := logrus.New()
	if ctx.Bool(verboseFlag.Name) {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	paths, err := builder.New(cfg, builder.WithLogger(log)).Build(ctx.Context)
	if err != nil {
		return err
	}
	log.WithField("count", len(paths)).Info("build completed")
	return nil
}

// loadConfig returns the configuration from the config file if one is
// given, the default one otherwise. Explicit flags win over both.
func loadConfig(ctx *cli.Context) (*builder.Config, error) {
	var cfg *builder.Config
	if path := ctx.String(configFlag.Name); len(path) > 0 {
		var err error
		if cfg, err = builder.LoadConfigFile(path); err != nil {
			return nil, err
		}
		if ctx.IsSet(outFlag.Name) {
			cfg.OutDir = ctx.String(outFlag.Name)
		}
	} else {
		cfg = builder.DefaultConfig(ctx.String(srcFlag.Name), ctx.String(outFlag.Name))
	}
	if v := ctx.String(cxxFlag.Name); len(v) > 0 {
		cfg.CXX = v
	}
	if v := ctx.String(arFlag.Name); len(v) > 0 {
		cfg.AR = v
	}
	return cfg, nil
}
