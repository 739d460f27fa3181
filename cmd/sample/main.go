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

// sample drives the native Sample class through the ffi bridge.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/cppbind/bindgen-example/pkg/capture"
	"github.com/cppbind/bindgen-example/pkg/ffi"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var errAllocation = errors.New("native allocation of Sample failed")

var (
	nameFlag = &cli.StringFlag{
		Name:  "name",
		Usage: "name handed to the native Sample",
		Value: "a rustacean",
	}
	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "capture the native greeting and print it as JSON",
	}
	verboseFlag = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
	}
)

type greetResult struct {
	Name     string `json:"name"`
	Greeting string `json:"greeting"`
}

var app = &cli.App{
	Name:  "sample",
	Usage: "call the native Sample class through its C ABI",
	Flags: []cli.Flag{verboseFlag},
	Before: func(ctx *cli.Context) error {
		if ctx.Bool(verboseFlag.Name) {
			logrus.SetLevel(logrus.DebugLevel)
		}
		logrus.SetOutput(os.Stderr)
		return nil
	},
	Commands: []*cli.Command{
		{
			Name:   "greet",
			Usage:  "construct a Sample, say hi and delete it",
			Flags:  []cli.Flag{nameFlag, jsonFlag},
			Action: greet,
		},
	},
}

func main() {
	if err := app.Run(os.Args); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func greet(ctx *cli.Context) error {
	name := ctx.String(nameFlag.Name)
	inst := ffi.New(name)
	if inst == nil {
		return errAllocation
	}
	defer ffi.Delete(inst)
	logrus.WithField("live", ffi.LiveCount()).Debug("sample constructed")

	if !ctx.Bool(jsonFlag.Name) {
		ffi.SayHi(inst)
		return nil
	}

	out, err := capture.Stdout(ffi.FlushStdout, func() {
		ffi.SayHi(inst)
	})
	if err != nil {
		return fmt.Errorf("could not capture greeting: %w", err)
	}
	return json.NewEncoder(os.Stdout).Encode(greetResult{
		Name:     name,
		Greeting: string(out),
	})
}
