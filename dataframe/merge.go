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

	"github.com/penny-vault/portana/calendar"
	"github.com/rs/zerolog/log"
)

// Merge stacks the columns of every dataframe, in argument order, into a single
// dataframe. The dataframes must share an identical date index; no trimming or
// resampling is performed.
func Merge(dfs ...*DataFrame) (*DataFrame, error) {
	df := &DataFrame{}
	for idx, v := range dfs {
		if idx == 0 {
			df = v.Copy()
			continue
		}

		if !sameDates(df, v) {
			log.Debug().Time("df1.Start", df.Start()).Time("df1.End", df.End()).Int("df1.Len", df.Len()).
				Time("df2.Start", v.Start()).Time("df2.End", v.End()).Int("df2.Len", v.Len()).
				Msg("date indexes do not match - cannot merge into single dataframe")
			return nil, fmt.Errorf("%w: %s has %d rows from %s to %s, expected %d rows from %s to %s", ErrDateIndexNotAligned,
				v.ColNames, v.Len(), calendar.Format(v.Start()), calendar.Format(v.End()),
				df.Len(), calendar.Format(df.Start()), calendar.Format(df.End()))
		}

		v = v.Copy()
		df.ColNames = append(df.ColNames, v.ColNames...)
		df.Vals = append(df.Vals, v.Vals...)
	}

	return df, nil
}

func sameDates(a, b *DataFrame) bool {
	if len(a.Dates) != len(b.Dates) {
		return false
	}
	for idx := range a.Dates {
		if !a.Dates[idx].Equal(b.Dates[idx]) {
			return false
		}
	}
	return true
}
