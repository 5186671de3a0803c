// Copyright 2023 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package types

import (
	"strings"
	gotime "time"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
)

const (
	secsPerDay      = 24 * 60 * 60
	microsPerSecond = int64(gotime.Second / gotime.Microsecond)
	microsPerDay    = secsPerDay * microsPerSecond

	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

// Date counts days since 1970-01-01
type Date int32

// Timestamp counts microseconds since 1970-01-01 00:00:00 UTC
type Timestamp int64

func (d Date) String() string {
	return gotime.Unix(int64(d)*secsPerDay, 0).UTC().Format(dateLayout)
}

func (d Date) ToTimestamp() Timestamp {
	return Timestamp(int64(d) * microsPerDay)
}

func ParseDate(s string) (Date, error) {
	t, err := gotime.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, moerr.NewBadArgumentsNoCtx("invalid date '%s'", s)
	}
	return Date(t.Unix() / secsPerDay), nil
}

func (ts Timestamp) String() string {
	t := ts.ToTime()
	if ts%Timestamp(microsPerSecond) != 0 {
		return t.Format(timestampLayout + ".000000")
	}
	return t.Format(timestampLayout)
}

func (ts Timestamp) ToTime() gotime.Time {
	return gotime.UnixMicro(int64(ts)).UTC()
}

// ToDate truncates towards the start of the day
func (ts Timestamp) ToDate() Date {
	days := int64(ts) / microsPerDay
	if int64(ts) < 0 && int64(ts)%microsPerDay != 0 {
		days--
	}
	return Date(days)
}

func TimestampFromTime(t gotime.Time) Timestamp {
	return Timestamp(t.UnixMicro())
}

// ParseTimestamp accepts 'YYYY-MM-DD[ hh:mm:ss[.ffffff]]', also with a T separator
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{
		timestampLayout + ".999999999",
		"2006-01-02T15:04:05.999999999",
		gotime.RFC3339Nano,
		dateLayout,
	} {
		if t, err := gotime.Parse(layout, s); err == nil {
			return TimestampFromTime(t), nil
		}
	}
	return 0, moerr.NewBadArgumentsNoCtx("invalid timestamp '%s'", s)
}
