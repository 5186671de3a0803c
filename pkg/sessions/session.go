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

	"github.com/matrixorigin/fusequery/pkg/users"
)

// Session is one client connection. It runs at most one query at a time;
// every QueryContext of that query shares one QueryContextShared.
type Session struct {
	id       string
	typ      string
	mgr      *SessionManager
	settings *Settings

	mu struct {
		sync.Mutex
		currentDatabase string
		user            *users.UserInfo
		shared          *QueryContextShared
	}
}

func newSession(id, typ string, mgr *SessionManager) *Session {
	s := &Session{
		id:       id,
		typ:      typ,
		mgr:      mgr,
		settings: NewSettings(mgr.conf.Query.NumCPUs),
	}
	s.mu.currentDatabase = mgr.conf.Query.DefaultDatabase
	s.mu.user = users.RootUser()
	return s
}

func (s *Session) GetID() string                      { return s.id }
func (s *Session) GetType() string                    { return s.typ }
func (s *Session) GetSettings() *Settings             { return s.settings }
func (s *Session) GetSessionManager() *SessionManager { return s.mgr }

func (s *Session) GetCurrentDatabase() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mu.currentDatabase
}

func (s *Session) setCurrentDatabase(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mu.currentDatabase = name
}

func (s *Session) GetCurrentUser() *users.UserInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mu.user
}

func (s *Session) SetCurrentUser(user *users.UserInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mu.user = user
}

// CreateQueryContext joins the running query of the session, or starts a
// new one whose tasks see a context derived from parent.
func (s *Session) CreateQueryContext(parent context.Context) *QueryContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mu.shared == nil {
		s.mu.shared = newQueryContextShared(parent, s)
	}
	return newQueryContext(s.mu.shared)
}

// release drops one reference of shared and reports whether it was the
// last one. The session lock orders it against CreateQueryContext.
func (s *Session) release(shared *QueryContextShared) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if shared.refs.Add(-1) != 0 {
		return false
	}
	if s.mu.shared == shared {
		s.mu.shared = nil
	}
	return true
}

func (s *Session) current() *QueryContextShared {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mu.shared
}

// Kill aborts the running query, if any.
func (s *Session) Kill() {
	if shared := s.current(); shared != nil {
		shared.abort()
	}
}

// waitIdle returns once the running query tore down.
func (s *Session) waitIdle(ctx context.Context) error {
	shared := s.current()
	if shared == nil {
		return nil
	}
	select {
	case <-shared.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close unregisters the session from its manager.
func (s *Session) Close() {
	s.mgr.DestroySession(s.id)
}
