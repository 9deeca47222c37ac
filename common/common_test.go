// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/penny-vault/portana/common"
)

var _ = Describe("Common", func() {
	AfterEach(func() {
		viper.Reset()
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
		log.Logger = log.Output(GinkgoWriter)
	})

	DescribeTable("sets the global log level", func(level string, expected zerolog.Level) {
		viper.Set("log.level", level)
		viper.Set("log.output", "stderr")
		common.SetupLogging()
		Expect(zerolog.GlobalLevel()).To(Equal(expected))
	},
		Entry("debug", "debug", zerolog.DebugLevel),
		Entry("upper case info", "INFO", zerolog.InfoLevel),
		Entry("trace", "trace", zerolog.TraceLevel),
		Entry("error", "error", zerolog.ErrorLevel),
		Entry("unknown defaults to warning", "chatty", zerolog.WarnLevel),
	)

	It("writes logs to a file", func() {
		dir, err := os.MkdirTemp("", "portana")
		Expect(err).To(BeNil())
		DeferCleanup(os.RemoveAll, dir)

		fn := filepath.Join(dir, "portana.log")
		viper.Set("log.level", "info")
		viper.Set("log.output", fn)
		common.SetupLogging()

		log.Info().Str("Check", "file").Msg("hello")

		contents, err := os.ReadFile(fn)
		Expect(err).To(BeNil())
		Expect(string(contents)).To(ContainSubstring(`"Check":"file"`))
	})

	It("builds a version string", func() {
		Expect(common.CurrentVersion.String()).To(Equal("0.1.0-dev"))
		info := common.ReadBuildInfo()
		Expect(info.String()).To(HavePrefix("portana v0.1.0-dev"))
		Expect(info.String()).NotTo(ContainSubstring("Dependencies"))
		Expect(info.BuildDate).NotTo(BeEmpty())
	})

	It("lists dependencies separately", func() {
		info := common.ReadBuildInfo()
		Expect(info.DepString()).To(HavePrefix("Dependencies:"))
		Expect(info.Deps).NotTo(BeNil())
	})
})
