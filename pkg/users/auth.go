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

package users

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/json"
	"strings"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
)

type AuthType uint8

const (
	AuthNone AuthType = iota
	AuthPlainText
	AuthSha256
	AuthDoubleSha1
)

// DefaultAuthType is used by IDENTIFIED BY without an explicit kind.
const DefaultAuthType = AuthSha256

var authTypeNames = [...]string{
	AuthNone:       "no_password",
	AuthPlainText:  "plaintext_password",
	AuthSha256:     "sha256_password",
	AuthDoubleSha1: "double_sha1_password",
}

func (a AuthType) String() string {
	if int(a) < len(authTypeNames) {
		return authTypeNames[a]
	}
	return "unknown"
}

func ParseAuthType(name string) (AuthType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range authTypeNames {
		if n == name {
			return AuthType(i), nil
		}
	}
	return 0, moerr.NewBadArgumentsNoCtx("unknown auth type %s", name)
}

func (a AuthType) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *AuthType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	t, err := ParseAuthType(name)
	if err != nil {
		return err
	}
	*a = t
	return nil
}

// EncodePassword returns the stored form of pwd.
func EncodePassword(t AuthType, pwd []byte) []byte {
	switch t {
	case AuthNone:
		return nil
	case AuthPlainText:
		return append([]byte{}, pwd...)
	case AuthSha256:
		sum := sha256.Sum256(pwd)
		return sum[:]
	case AuthDoubleSha1:
		first := sha1.Sum(pwd)
		second := sha1.Sum(first[:])
		return second[:]
	}
	return nil
}
