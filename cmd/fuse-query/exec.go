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
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/matrixorigin/fusequery/pkg/config"
	"github.com/matrixorigin/fusequery/pkg/interpreters"
	"github.com/matrixorigin/fusequery/pkg/sessions"
)

func execCommand() *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "exec",
		Short: "Run statements in one session and print their results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if strings.TrimSpace(query) == "" {
				return fmt.Errorf("nothing to execute, pass statements with -e")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			// without a configuration nothing is persisted
			if _, ok := os.LookupEnv(config.EnvName(config.EnvPrefix, "storage", "type")); !ok && configFile == "" {
				cfg.Storage.Type = config.StorageTypeMemory
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			mgr, err := sessions.NewSessionManager(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				err = multierr.Append(err, mgr.Shutdown(context.Background()))
			}()
			s, err := mgr.CreateSession("cli")
			if err != nil {
				return err
			}
			defer mgr.DestroySession(s.GetID())

			results, err := interpreters.ExecuteQuery(ctx, s, query)
			for _, r := range results {
				if werr := writeResult(cmd.OutOrStdout(), r); werr != nil {
					return werr
				}
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&query, "execute", "e", "", "semicolon separated statements")
	return cmd
}

// writeResult prints r as an aligned table with a header row. Statements
// without output columns print nothing.
func writeResult(w io.Writer, r *interpreters.Result) error {
	if r.Schema == nil || r.Schema.Len() == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(r.Schema.Names(), "\t"))
	cells := make([]string, r.Schema.Len())
	for _, bat := range r.Blocks {
		for i := 0; i < bat.RowCount(); i++ {
			for j, v := range bat.Row(i) {
				cells[j] = v.String()
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t"))
		}
	}
	fmt.Fprintf(tw, "(%d rows)\n", r.RowCount())
	return tw.Flush()
}
