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
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/matrixorigin/fusequery/pkg/catalog/databases"
	"github.com/matrixorigin/fusequery/pkg/catalog/metastore"
	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/common/runtime"
	"github.com/matrixorigin/fusequery/pkg/config"
	"github.com/matrixorigin/fusequery/pkg/fileservice"
	"github.com/matrixorigin/fusequery/pkg/logutil"
	"github.com/matrixorigin/fusequery/pkg/perfcounter"
	"github.com/matrixorigin/fusequery/pkg/users"
	v2 "github.com/matrixorigin/fusequery/pkg/util/metric/v2"
)

// SessionManager owns what sessions share: the catalog, the users, the
// worker pool and the storage backend.
type SessionManager struct {
	conf     *config.Config
	rt       *runtime.Runtime
	store    metastore.Store
	backend  fileservice.DataAccessor
	catalog  *databases.Catalog
	userMgr  *users.UserMgr
	// storage access of every query since start
	counters perfcounter.CounterSet

	mu struct {
		sync.Mutex
		closed   bool
		sessions map[string]*Session
	}
}

func NewSessionManager(ctx context.Context, conf *config.Config) (*SessionManager, error) {
	store, err := metastore.NewStore(ctx, conf.Meta)
	if err != nil {
		return nil, err
	}
	backend, err := fileservice.NewDataAccessor(ctx, conf.Storage)
	if err != nil {
		return nil, multierr.Append(err, store.Close())
	}
	meta := metastore.NewCatalogMeta(store)
	registries, err := databases.NewRegistries(meta, fileservice.NewRetryAccessor(backend))
	if err != nil {
		return nil, multierr.Append(err, store.Close())
	}
	cat, err := databases.NewCatalog(ctx, meta, registries)
	if err != nil {
		return nil, multierr.Append(err, store.Close())
	}
	rt, err := runtime.NewRuntime(conf.Query.NumCPUs)
	if err != nil {
		return nil, multierr.Append(err, store.Close())
	}
	m := &SessionManager{
		conf:    conf,
		rt:      rt,
		store:   store,
		backend: backend,
		catalog: cat,
		userMgr: users.NewUserMgr(store, conf.Query.TenantID),
	}
	m.mu.sessions = make(map[string]*Session)
	logutil.Info("session manager started",
		zap.String("storage", backend.Name()),
		zap.String("meta", conf.Meta.Backend),
		zap.Int("workers", rt.Cap()))
	return m, nil
}

func (m *SessionManager) GetConfig() *config.Config            { return m.conf }
func (m *SessionManager) GetCatalog() *databases.Catalog       { return m.catalog }
func (m *SessionManager) GetUserManager() *users.UserMgr       { return m.userMgr }
func (m *SessionManager) GetRuntime() *runtime.Runtime         { return m.rt }
func (m *SessionManager) GetBackend() fileservice.DataAccessor { return m.backend }

// GetCounters returns the storage access counters summed over all queries.
func (m *SessionManager) GetCounters() *perfcounter.CounterSet { return &m.counters }

// CreateSession fails with Aborted once max-active-sessions are alive or
// the manager is shut down.
func (m *SessionManager) CreateSession(typ string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mu.closed {
		return nil, moerr.NewAbortedNoCtx("server is shutting down")
	}
	if len(m.mu.sessions) >= m.conf.Query.MaxActiveSessions {
		return nil, moerr.NewAbortedNoCtx("too many sessions, max active sessions is %d", m.conf.Query.MaxActiveSessions)
	}
	s := newSession(uuid.NewString(), typ, m)
	m.mu.sessions[s.id] = s
	v2.ActiveSessionGauge.Inc()
	logutil.Debug("session created", zap.String("session-id", s.id), zap.String("type", typ))
	return s, nil
}

func (m *SessionManager) GetSession(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.mu.sessions[id]
	return s, ok
}

func (m *SessionManager) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.mu.sessions)
}

// DestroySession forgets the session. A running query keeps going until
// its contexts are released.
func (m *SessionManager) DestroySession(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.mu.sessions[id]; ok {
		delete(m.mu.sessions, id)
		v2.ActiveSessionGauge.Dec()
		logutil.Debug("session destroyed", zap.String("session-id", id))
	}
}

// Shutdown refuses new sessions, aborts the running queries and waits
// for them to release, then closes the shared resources.
func (m *SessionManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.mu.closed = true
	sessions := make([]*Session, 0, len(m.mu.sessions))
	for _, s := range m.mu.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Kill()
	}
	for _, s := range sessions {
		if err := s.waitIdle(ctx); err != nil {
			logutil.Warn("session did not finish before shutdown",
				zap.String("session-id", s.id),
				zap.Error(err))
		}
		s.Close()
	}
	m.rt.Release()
	fields := append([]zap.Field{zap.Int("sessions", len(sessions))},
		perfcounter.NewCounterLogExporter(&m.counters).Export()...)
	logutil.Info("session manager stopped", fields...)
	return m.store.Close()
}
