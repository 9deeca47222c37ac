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
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	"github.com/penny-vault/portana/analyzer"
	"github.com/penny-vault/portana/calendar"
	"github.com/penny-vault/portana/data"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

// appFs is the file system definitions, csv histories and charts are read from and written to
var appFs = afero.NewOsFs()

// newProvider builds the security provider described by the data.* and
// cache.* configuration keys
func newProvider(ctx context.Context) (data.Provider, error) {
	var source data.Provider

	switch strings.ToLower(viper.GetString("data.source")) {
	case "sim", "simulated", "":
		kind, err := data.ParseKind(viper.GetString("data.kind"))
		if err != nil {
			return nil, err
		}
		sim, err := data.NewSimulatedProvider(kind)
		if err != nil {
			return nil, err
		}
		source = sim
	case "csv":
		source = data.NewCSVProviderFs(appFs, viper.GetString("data.csv_dir"))
	default:
		return nil, fmt.Errorf("unknown data source %q; must be sim or csv", viper.GetString("data.source"))
	}

	size := viper.GetInt("cache.local_size")
	if size <= 0 {
		return source, nil
	}

	cached, err := data.NewCachedProvider(viper.GetString("data.source"), source, size)
	if err != nil {
		return nil, err
	}

	if viper.GetBool("cache.redis") {
		opts, err := redis.ParseURL(viper.GetString("cache.redis_url"))
		if err != nil {
			log.Error().Err(err).Msg("could not parse redis url")
			return nil, err
		}

		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("Addr", opts.Addr).Msg("redis is not reachable; using in-memory cache only")
		} else {
			cached.WithRedis(client, viper.GetDuration("cache.ttl"))
		}
	}

	return cached, nil
}

// dateRange returns the window configured with data.start and data.end
func dateRange() (time.Time, time.Time, error) {
	begin, err := calendar.Parse(viper.GetString("data.start"))
	if err != nil {
		return begin, begin, err
	}

	end := calendar.Normalize(time.Now())
	if s := viper.GetString("data.end"); s != "" {
		if end, err = calendar.Parse(s); err != nil {
			return begin, end, err
		}
	}

	return begin, end, nil
}

type settings struct {
	mode           analyzer.Mode
	periodsPerYear float64
	riskFree       float64
	initialValue   float64
}

// analysisSettings reads and validates the analysis.* configuration keys
func analysisSettings() (*settings, error) {
	mode, err := analyzer.ParseMode(viper.GetString("analysis.mode"))
	if err != nil {
		return nil, err
	}

	freq, err := calendar.ParseFrequency(viper.GetString("analysis.frequency"))
	if err != nil {
		return nil, err
	}

	periodsPerYear, err := freq.PeriodsPerYear()
	if err != nil {
		return nil, err
	}

	return &settings{
		mode:           mode,
		periodsPerYear: periodsPerYear,
		riskFree:       viper.GetFloat64("analysis.risk_free_rate"),
		initialValue:   viper.GetFloat64("analysis.initial_value"),
	}, nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
