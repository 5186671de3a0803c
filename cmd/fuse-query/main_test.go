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

package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/fusequery/pkg/config"
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/interpreters"
)

func TestWriteResult(t *testing.T) {
	schema := types.NewSchema(
		types.NewField("name", types.T_varchar, false),
		types.NewField("value", types.T_int64, true),
	)
	bat, err := batch.FromValues(schema, [][]types.DataValue{
		{types.NewString("a"), types.NewInt64(1)},
		{types.NewString("longer"), types.NewNull(types.T_int64)},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, &interpreters.Result{Schema: schema, Blocks: []*batch.Batch{bat}}))
	require.Equal(t, "name    value\na       1\nlonger  NULL\n(2 rows)\n", buf.String())

	buf.Reset()
	require.NoError(t, writeResult(&buf, &interpreters.Result{Schema: types.NewSchema()}))
	require.Empty(t, buf.String())
}

func TestExecCommand(t *testing.T) {
	cmd := rootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"exec", "-e", "SELECT sum(number) AS s FROM numbers(10)"})
	t.Setenv(config.EnvName(config.EnvPrefix, "storage", "type"), config.StorageTypeMemory)
	require.NoError(t, cmd.Execute())
	require.Equal(t, "s\n45\n(1 rows)\n", buf.String())

	cmd = rootCommand()
	cmd.SetArgs([]string{"exec"})
	require.Error(t, cmd.Execute())
}

func TestVersionCommand(t *testing.T) {
	cmd := rootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	require.Contains(t, buf.String(), "fuse-query")
}

func TestServeStops(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Storage.Type = config.StorageTypeMemory
	cfg.Query.MetricAddress = "127.0.0.1:0"
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, serve(ctx, cfg))
}
