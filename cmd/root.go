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

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/penny-vault/portana/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Logging configuration
	viper.BindEnv("log.level", "PORTANA_LOG_LEVEL")
	rootCmd.PersistentFlags().String("log-level", "warning", "Logging level")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	viper.BindEnv("log.report_caller", "PORTANA_LOG_REPORT_CALLER")
	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	viper.BindPFlag("log.report_caller", rootCmd.PersistentFlags().Lookup("log-report-caller"))

	viper.BindEnv("log.output", "PORTANA_LOG_OUTPUT")
	rootCmd.PersistentFlags().String("log-output", "stderr", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	viper.BindPFlag("log.output", rootCmd.PersistentFlags().Lookup("log-output"))

	viper.BindEnv("log.pretty", "PORTANA_LOG_PRETTY")
	rootCmd.PersistentFlags().Bool("log-pretty", true, "Format log messages for humans instead of as JSON")
	viper.BindPFlag("log.pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))

	// Data source
	viper.BindEnv("data.source", "PORTANA_DATA_SOURCE")
	rootCmd.PersistentFlags().String("source", "sim", "Where security histories come from one of: `sim` or `csv`")
	viper.BindPFlag("data.source", rootCmd.PersistentFlags().Lookup("source"))

	viper.BindEnv("data.kind", "PORTANA_DATA_KIND")
	rootCmd.PersistentFlags().String("kind", "equity", "Kind of security simulated by the sim source: `equity` or `equity-fund`")
	viper.BindPFlag("data.kind", rootCmd.PersistentFlags().Lookup("kind"))

	viper.BindEnv("data.csv_dir", "PORTANA_CSV_DIR")
	rootCmd.PersistentFlags().String("csv-dir", ".", "Directory holding <id>.csv files for the csv source")
	viper.BindPFlag("data.csv_dir", rootCmd.PersistentFlags().Lookup("csv-dir"))

	viper.BindEnv("data.start", "PORTANA_START")
	rootCmd.PersistentFlags().String("start", "2020-01-01", "First date to load (yyyy-mm-dd)")
	viper.BindPFlag("data.start", rootCmd.PersistentFlags().Lookup("start"))

	viper.BindEnv("data.end", "PORTANA_END")
	rootCmd.PersistentFlags().String("end", "", "Last date to load (yyyy-mm-dd); defaults to today")
	viper.BindPFlag("data.end", rootCmd.PersistentFlags().Lookup("end"))

	// Cache
	viper.BindEnv("cache.local_size", "PORTANA_CACHE_LOCAL_SIZE")
	rootCmd.PersistentFlags().Int("cache-local-size", 128, "Number of securities kept in memory")
	viper.BindPFlag("cache.local_size", rootCmd.PersistentFlags().Lookup("cache-local-size"))

	viper.BindEnv("cache.redis", "PORTANA_CACHE_REDIS")
	rootCmd.PersistentFlags().Bool("cache-redis", false, "Share loaded securities through redis")
	viper.BindPFlag("cache.redis", rootCmd.PersistentFlags().Lookup("cache-redis"))

	viper.BindEnv("cache.redis_url", "REDIS_URL")
	rootCmd.PersistentFlags().String("cache-redis-url", "redis://localhost:6379/0", "Redis connection string")
	viper.BindPFlag("cache.redis_url", rootCmd.PersistentFlags().Lookup("cache-redis-url"))

	viper.BindEnv("cache.ttl", "PORTANA_CACHE_TTL")
	rootCmd.PersistentFlags().Duration("cache-ttl", 24*time.Hour, "How long securities stay in redis")
	viper.BindPFlag("cache.ttl", rootCmd.PersistentFlags().Lookup("cache-ttl"))

	// Analysis
	viper.BindEnv("analysis.mode", "PORTANA_MODE")
	rootCmd.PersistentFlags().String("mode", "tr", "Compute statistics on price (`px`) or total return (`tr`)")
	viper.BindPFlag("analysis.mode", rootCmd.PersistentFlags().Lookup("mode"))

	viper.BindEnv("analysis.frequency", "PORTANA_FREQUENCY")
	rootCmd.PersistentFlags().String("frequency", "D", "Sampling frequency of the data used to annualize: D, W, M, Q or Y")
	viper.BindPFlag("analysis.frequency", rootCmd.PersistentFlags().Lookup("frequency"))

	viper.BindEnv("analysis.risk_free_rate", "PORTANA_RISK_FREE_RATE")
	rootCmd.PersistentFlags().Float64("risk-free", 0.0, "Risk free return over the analyzed window used by the Sharpe ratio")
	viper.BindPFlag("analysis.risk_free_rate", rootCmd.PersistentFlags().Lookup("risk-free"))

	viper.BindEnv("analysis.initial_value", "PORTANA_INITIAL_VALUE")
	rootCmd.PersistentFlags().Float64("initial-value", 100.0, "Value rebased indices start at")
	viper.BindPFlag("analysis.initial_value", rootCmd.PersistentFlags().Lookup("initial-value"))
}

var rootCmd = &cobra.Command{
	Use:     "portana",
	Version: common.CurrentVersion.String(),
	Short:   "Portana compares securities and portfolios against a benchmark",
	Long: `Portana aligns the price histories of securities on a common calendar and
computes returns, beta, volatility, Sharpe ratio and drawdowns against a
benchmark. Portfolios of weighted securities can be simulated with or without
periodic rebalancing and analyzed like any other security.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
