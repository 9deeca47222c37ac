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

package dataframe

import (
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/penny-vault/portana/calendar"
)

// Len returns the number of rows in the dateframe
func (df *DateFrame) Len() int {
	return len(df.Dates)
}

// ColCount returns the number of columns in the dateframe
func (df *DateFrame) ColCount() int {
	return len(df.ColNames)
}

// Column returns the named column or nil if it does not exist
func (df *DateFrame) Column(colName string) []time.Time {
	for idx, val := range df.ColNames {
		if colName == val {
			col := make([]time.Time, len(df.Vals[idx]))
			copy(col, df.Vals[idx])
			return col
		}
	}
	return nil
}

// Table prints an ASCII formatted table
func (df *DateFrame) Table() string {
	if len(df.Dates) == 0 {
		return "<NO DATA>"
	}

	tableCols := append([]string{"Date"}, df.ColNames...)

	s := &strings.Builder{}
	table := tablewriter.NewWriter(s)
	table.SetHeader(tableCols)
	footer := make([]string, len(tableCols))
	footer[0] = fmt.Sprintf("Num Rows: %d", df.Len())
	table.SetFooter(footer)
	table.SetBorder(false)

	for idx, date := range df.Dates {
		row := make([]string, 0, len(df.Vals)+1)
		row = append(row, calendar.Format(date))
		for _, col := range df.Vals {
			row = append(row, calendar.Format(col[idx]))
		}
		table.Append(row)
	}

	table.Render()
	return s.String()
}

func (df *DateFrame) String() string {
	return df.Table()
}
