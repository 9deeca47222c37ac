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

package data

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/penny-vault/portana/calendar"
	"github.com/penny-vault/portana/timeseries"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// MetadataFile is the optional file in a CSV directory that describes each security
const MetadataFile = "securities.csv"

// CSVProvider reads securities from a directory of CSV files. Each security
// has a file named <id>.csv with the columns date,price,total_return (the
// total_return column is optional). Descriptions and exposures are read from
// securities.csv whose header must contain id; the columns kind, name, ticker
// and fee are descriptive and every other column is an exposure category.
type CSVProvider struct {
	fs  afero.Fs
	dir string
}

// NewCSVProvider reads from dir on the operating system's file system
func NewCSVProvider(dir string) *CSVProvider {
	return NewCSVProviderFs(afero.NewOsFs(), dir)
}

// NewCSVProviderFs reads from dir on the given file system
func NewCSVProviderFs(fs afero.Fs, dir string) *CSVProvider {
	return &CSVProvider{
		fs:  fs,
		dir: dir,
	}
}

func (p *CSVProvider) Security(ctx context.Context, id string, begin, end time.Time) (Security, error) {
	begin = calendar.Normalize(begin)
	end = calendar.Normalize(end)
	if err := checkRange(begin, end); err != nil {
		return nil, err
	}

	subLog := log.With().Str("SecurityID", id).Str("Dir", p.dir).Logger()

	series, err := p.readSeries(id)
	if err != nil {
		subLog.Error().Err(err).Msg("could not read security time series")
		return nil, err
	}
	series = series.Range(begin, end, 1)

	kind, description, exposures, err := p.readMetadata(id)
	if err != nil {
		subLog.Error().Err(err).Msg("could not read security metadata")
		return nil, err
	}

	subLog.Debug().Int("NumRows", series.Len()).Stringer("Kind", kind).Msg("loaded security from csv")
	return NewInstrument(id, kind, series, description, exposures), nil
}

func (p *CSVProvider) readSeries(id string) (*timeseries.TimeSeries, error) {
	fn := filepath.Join(p.dir, id+".csv")
	fh, err := p.fs.Open(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	defer fh.Close()

	header, rows, err := readCSV(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}

	dateCol := columnIndex(header, "date")
	priceCol := columnIndex(header, "price")
	trCol := columnIndex(header, "total_return")
	if dateCol == -1 || priceCol == -1 {
		return nil, fmt.Errorf("%w: %s header must contain date and price", ErrMalformedCSV, fn)
	}

	dates := make([]time.Time, 0, len(rows))
	prices := make([]float64, 0, len(rows))
	var totalReturn []float64
	if trCol != -1 {
		totalReturn = make([]float64, 0, len(rows))
	}

	for lineNo, row := range rows {
		dt, err := calendar.Parse(row[dateCol])
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %s", ErrMalformedCSV, fn, lineNo+2, err)
		}
		dates = append(dates, dt)

		px, err := strconv.ParseFloat(row[priceCol], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %s", ErrMalformedCSV, fn, lineNo+2, err)
		}
		prices = append(prices, px)

		if trCol != -1 {
			tr, err := strconv.ParseFloat(row[trCol], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s line %d: %s", ErrMalformedCSV, fn, lineNo+2, err)
			}
			totalReturn = append(totalReturn, tr)
		}
	}

	return timeseries.New(dates, prices, totalReturn)
}

func (p *CSVProvider) readMetadata(id string) (Kind, map[string]any, map[string]string, error) {
	description := map[string]any{}
	exposures := map[string]string{}

	fn := filepath.Join(p.dir, MetadataFile)
	fh, err := p.fs.Open(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return KindEquity, description, exposures, nil
		}
		return KindEquity, nil, nil, err
	}
	defer fh.Close()

	header, rows, err := readCSV(fh)
	if err != nil {
		return KindEquity, nil, nil, fmt.Errorf("%s: %w", fn, err)
	}

	idCol := columnIndex(header, "id")
	if idCol == -1 {
		return KindEquity, nil, nil, fmt.Errorf("%w: %s header must contain id", ErrMalformedCSV, fn)
	}

	for _, row := range rows {
		if row[idCol] != id {
			continue
		}

		kind := KindEquity
		for idx, colName := range header {
			val := row[idx]
			switch colName {
			case "id":
			case "kind":
				if kind, err = ParseKind(val); err != nil {
					return KindEquity, nil, nil, err
				}
			case DescriptionName, DescriptionTicker, DescriptionFee:
				if val != "" {
					description[colName] = val
				}
			default:
				if val != "" {
					exposures[colName] = val
				}
			}
		}
		return kind, description, exposures, nil
	}

	return KindEquity, description, exposures, nil
}

// readCSV returns the lower-cased header and the remaining records
func readCSV(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrMalformedCSV, err)
	}

	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: missing header", ErrMalformedCSV)
	}

	header := make([]string, len(records[0]))
	for idx, col := range records[0] {
		header[idx] = strings.ToLower(strings.TrimSpace(col))
	}

	return header, records[1:], nil
}

func columnIndex(header []string, name string) int {
	for idx, col := range header {
		if col == name {
			return idx
		}
	}
	return -1
}
