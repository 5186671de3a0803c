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

package fuse

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/matrixorigin/fusequery/pkg/catalog"
	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/fileservice"
	"github.com/matrixorigin/fusequery/pkg/logutil"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/streams"
	v2 "github.com/matrixorigin/fusequery/pkg/util/metric/v2"
	"github.com/matrixorigin/fusequery/pkg/vm/engine/fuse/blockio"
	"github.com/matrixorigin/fusequery/pkg/vm/engine/fuse/meta"
)

const (
	// SnapshotLocationOption is the table option naming the current snapshot.
	SnapshotLocationOption = "SNAPSHOT_LOCATION"

	maxCommitRetries = 10
)

var now = func() int64 { return time.Now().UnixMicro() }

// Table stores its data as parquet blocks grouped in segments. The
// snapshot named by SNAPSHOT_LOCATION lists the live segments.
type Table struct {
	catalog.TableBase
}

func Open(info *catalog.TableInfo) (catalog.Table, error) {
	if info.Schema == nil {
		return nil, moerr.NewInternalErrorNoCtx("fuse table %s has no schema", info.Desc)
	}
	return &Table{TableBase: catalog.TableBase{Info: info}}, nil
}

func NewEngine() catalog.TableEngine {
	return catalog.TableEngineFunc{Desc: "FUSE Storage Engine", OpenFunc: Open}
}

// Prefix is the root of the table objects.
func (t *Table) Prefix() string {
	return blockio.TablePrefix(t.Info.DatabaseID, t.Info.ID)
}

// ReadSnapshot loads the current snapshot, nil when the table never
// committed.
func (t *Table) ReadSnapshot(ctx context.Context, da fileservice.DataAccessor) (*meta.TableSnapshot, string, error) {
	return readSnapshotOf(ctx, da, t.Info)
}

func readSnapshotOf(ctx context.Context, da fileservice.DataAccessor, info *catalog.TableInfo) (*meta.TableSnapshot, string, error) {
	location, ok := info.Option(SnapshotLocationOption)
	if !ok || location == "" {
		return nil, "", nil
	}
	ss, err := blockio.ReadSnapshot(ctx, da, location)
	if err != nil {
		return nil, "", err
	}
	return ss, location, nil
}

func (t *Table) AppendData(ctx context.Context, tctx catalog.TableContext, input streams.Stream) (streams.Stream, error) {
	if !input.Schema().Equal(t.Schema()) {
		input = streams.NewCastStream(input, t.Schema())
	}
	appender := blockio.NewBlockAppender(tctx.GetDataAccessor(), t.Prefix(), tctx.GetMaxBlockSize())
	done := false
	return streams.NewFuncStream(meta.AppendLogSchema, func(ctx context.Context) (*batch.Batch, error) {
		if done {
			return nil, nil
		}
		done = true
		entry, err := appender.AppendBlocks(ctx, input)
		if err != nil || entry == nil {
			return nil, err
		}
		return entry.ToBatch()
	}), nil
}

// Commit merges the segments of logs into a new snapshot. A racing commit
// is retried on the reloaded table.
func (t *Table) Commit(ctx context.Context, tctx catalog.TableContext, logs []*batch.Batch, overwrite bool) error {
	var entries []meta.AppendLogEntry
	for _, bat := range logs {
		es, err := meta.AppendLogEntriesFromBatch(bat)
		if err != nil {
			return err
		}
		entries = append(entries, es...)
	}
	if len(entries) == 0 && !overwrite {
		return nil
	}
	return t.commit(ctx, tctx, func(prev *meta.TableSnapshot, prevLoc string) (*meta.TableSnapshot, bool, error) {
		var segments []string
		summaries := make([]meta.Statistics, 0, len(entries)+1)
		if prev != nil && !overwrite {
			segments = append(segments, prev.Segments...)
			summaries = append(summaries, prev.Summary)
		}
		for _, e := range entries {
			segments = append(segments, e.SegmentLocation)
			summaries = append(summaries, e.SegmentInfo.Summary)
		}
		summary, err := meta.ReduceStatistics(summaries...)
		if err != nil {
			return nil, false, err
		}
		return &meta.TableSnapshot{Segments: segments, Summary: summary}, false, nil
	})
}

// commit writes the snapshot build returns and points the table at it.
// Unless build asks for a root, the snapshot links to its predecessor.
func (t *Table) commit(
	ctx context.Context,
	tctx catalog.TableContext,
	build func(prev *meta.TableSnapshot, prevLoc string) (ss *meta.TableSnapshot, root bool, err error),
) error {
	da := tctx.GetDataAccessor()
	cat := tctx.GetCatalog()
	info := t.Info
	for attempt := 0; ; attempt++ {
		prev, prevLoc, err := readSnapshotOf(ctx, da, info)
		if err != nil {
			return err
		}
		ss, root, err := build(prev, prevLoc)
		if err != nil {
			return err
		}
		ss.Schema = info.Schema
		if ss.Segments == nil {
			ss.Segments = []string{}
		}

		var version uint64 = 1
		var prevTs int64
		if prev != nil {
			prevTs = prev.Timestamp
			if !root {
				loc := prevLoc
				ss.PrevSnapshotID = &loc
			}
			v, err := blockio.SnapshotVersion(prevLoc)
			if err != nil {
				return err
			}
			version = v + 1
		}
		ss.Timestamp = meta.NextTimestamp(prevTs, now())

		location := blockio.GenSnapshotLocation(blockio.TablePrefix(info.DatabaseID, info.ID), blockio.SnapshotName(version))
		if err = blockio.WriteSnapshot(ctx, da, location, ss); err != nil {
			return err
		}
		_, err = cat.UpsertTableOption(ctx, info.ID, info.Version, SnapshotLocationOption, location)
		if err == nil {
			v2.FuseCommitOKCounter.Inc()
			logutil.InfoCtx(ctx, "fuse snapshot committed",
				zap.String("table", info.Desc),
				zap.String("path", location),
				zap.Int("segments", len(ss.Segments)),
				zap.Uint64("rows", ss.Summary.RowCount))
			return nil
		}
		if !moerr.IsMoErrCode(err, moerr.ErrConflict) || attempt+1 >= maxCommitRetries {
			return err
		}
		v2.FuseCommitConflictCounter.Inc()
		logutil.WarnCtx(ctx, "fuse commit conflict, retrying",
			zap.String("table", info.Desc),
			zap.String("orphan", location),
			zap.Int("attempt", attempt+1))
		tbl, err := cat.GetTableByID(ctx, info.ID)
		if err != nil {
			return err
		}
		info = tbl.GetTableInfo()
	}
}

// Truncate commits an empty snapshot. With purge the objects of every
// previous snapshot are deleted and the new snapshot starts a new chain.
func (t *Table) Truncate(ctx context.Context, tctx catalog.TableContext, purge bool) error {
	da := tctx.GetDataAccessor()
	var garbage []string
	err := t.commit(ctx, tctx, func(prev *meta.TableSnapshot, prevLoc string) (*meta.TableSnapshot, bool, error) {
		ss := &meta.TableSnapshot{Segments: []string{}}
		if !purge || prev == nil {
			return ss, false, nil
		}
		history, err := readHistory(ctx, da, prev, prevLoc)
		if err != nil {
			return nil, false, err
		}
		garbage, err = collectObjects(ctx, da, history)
		if err != nil {
			return nil, false, err
		}
		return ss, true, nil
	})
	if err != nil {
		return err
	}
	if len(garbage) > 0 {
		if err = da.Delete(ctx, garbage...); err != nil {
			return err
		}
		logutil.InfoCtx(ctx, "fuse table purged",
			zap.String("table", t.Info.Desc),
			zap.Int("objects", len(garbage)))
	}
	return nil
}

func (t *Table) ReadPartitions(ctx context.Context, tctx catalog.TableContext, push plan.PushDowns) (plan.Statistics, []plan.Partition, error) {
	da := tctx.GetDataAccessor()
	ss, _, err := t.ReadSnapshot(ctx, da)
	if err != nil || ss == nil {
		return plan.Statistics{IsExact: true}, nil, err
	}
	segments, err := loadSegments(ctx, da, ss.Segments, tctx.GetMaxThreads())
	if err != nil {
		return plan.Statistics{}, nil, err
	}
	return t.prune(segments, push)
}

func (t *Table) Read(ctx context.Context, tctx catalog.TableContext, source *plan.ReadDataSourcePlan) (streams.Stream, error) {
	reader := blockio.NewBlockReader(tctx.GetDataAccessor(), t.Schema(), source.PushDowns.Projection, tctx.GetStorageReadBufferSize())
	return catalog.NewPartitionStream(tctx, reader.OutputSchema(), func(ctx context.Context, part plan.Partition) ([]*batch.Batch, error) {
		bat, err := reader.Read(ctx, part.Name, int64(part.ByteSize))
		if err != nil {
			logutil.ErrorCtx(ctx, "read fuse block",
				zap.String("path", part.Name),
				zap.Error(err))
			return nil, err
		}
		return []*batch.Batch{bat}, nil
	}), nil
}
