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

package sessions

import (
	goruntime "runtime"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/matrixorigin/fusequery/pkg/catalog"
	"github.com/matrixorigin/fusequery/pkg/common/moerr"
)

const (
	MaxThreads            = "max_threads"
	MaxBlockSize          = "max_block_size"
	FlightClientTimeout   = "flight_client_timeout"
	StorageReadBufferSize = "storage_read_buffer_size"
)

type setting struct {
	value uint64
	def   uint64
	desc  string
}

// Settings are the numeric knobs of a session, changed by SET.
type Settings struct {
	mu     sync.RWMutex
	values map[string]*setting
}

// NewSettings uses numCPUs for max_threads, the cpu count when it is 0.
func NewSettings(numCPUs int) *Settings {
	if numCPUs <= 0 {
		numCPUs = goruntime.NumCPU()
	}
	s := &Settings{values: make(map[string]*setting)}
	s.define(MaxThreads, uint64(numCPUs), "The maximum number of threads to execute the request.")
	s.define(MaxBlockSize, 10000, "Maximum block size for reading.")
	s.define(FlightClientTimeout, 60, "Max duration the flight client request is allowed to take in seconds.")
	s.define(StorageReadBufferSize, 1024*1024, "The size of buffer in bytes for buffered reader of dal.")
	return s
}

func (s *Settings) define(name string, def uint64, desc string) {
	s.values[name] = &setting{value: def, def: def, desc: desc}
}

func unknownSetting(name string) error {
	return moerr.NewBadArgumentsNoCtx("Unknown variable: %s", name)
}

// Get returns the current value of name, case-insensitive.
func (s *Settings) Get(name string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[strings.ToLower(name)]
	if !ok {
		return 0, unknownSetting(name)
	}
	return v.value, nil
}

func (s *Settings) Set(name string, value uint64) error {
	key := strings.ToLower(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return unknownSetting(name)
	}
	if key == MaxThreads && value == 0 {
		return moerr.NewBadArgumentsNoCtx("%s must be positive", MaxThreads)
	}
	v.value = value
	return nil
}

// SetString parses value the way SET does.
func (s *Settings) SetString(name, value string) error {
	n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil {
		if _, err := s.Get(name); err != nil {
			return err
		}
		return moerr.NewBadArgumentsNoCtx("%s expects an unsigned integer, got %q", name, value)
	}
	return s.Set(name, n)
}

func (s *Settings) mustGet(name string) uint64 {
	v, err := s.Get(name)
	if err != nil {
		// only called with the names defined above
		panic(err)
	}
	return v
}

func (s *Settings) GetMaxThreads() uint64            { return s.mustGet(MaxThreads) }
func (s *Settings) GetMaxBlockSize() uint64          { return s.mustGet(MaxBlockSize) }
func (s *Settings) GetFlightClientTimeout() uint64   { return s.mustGet(FlightClientTimeout) }
func (s *Settings) GetStorageReadBufferSize() uint64 { return s.mustGet(StorageReadBufferSize) }

func (s *Settings) SetMaxThreads(v uint64) error { return s.Set(MaxThreads, v) }

// Items lists every setting ordered by name.
func (s *Settings) Items() []catalog.SettingItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]catalog.SettingItem, 0, len(s.values))
	for name, v := range s.values {
		items = append(items, catalog.SettingItem{
			Name:    name,
			Value:   strconv.FormatUint(v.value, 10),
			Default: strconv.FormatUint(v.def, 10),
			Desc:    v.desc,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}
