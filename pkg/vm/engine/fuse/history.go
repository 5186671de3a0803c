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

	"golang.org/x/sync/errgroup"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/fileservice"
	"github.com/matrixorigin/fusequery/pkg/vm/engine/fuse/blockio"
	"github.com/matrixorigin/fusequery/pkg/vm/engine/fuse/meta"
)

// SnapshotEntry is one link of a snapshot chain.
type SnapshotEntry struct {
	Location string
	Snapshot *meta.TableSnapshot
}

// History walks the snapshot chain from the current snapshot to its root.
func (t *Table) History(ctx context.Context, da fileservice.DataAccessor) ([]SnapshotEntry, error) {
	ss, location, err := t.ReadSnapshot(ctx, da)
	if err != nil || ss == nil {
		return nil, err
	}
	return readHistory(ctx, da, ss, location)
}

func readHistory(ctx context.Context, da fileservice.DataAccessor, ss *meta.TableSnapshot, location string) ([]SnapshotEntry, error) {
	history := []SnapshotEntry{{Location: location, Snapshot: ss}}
	seen := map[string]bool{location: true}
	for ss.PrevSnapshotID != nil && *ss.PrevSnapshotID != "" {
		prev := *ss.PrevSnapshotID
		if seen[prev] {
			return nil, moerr.NewInternalError(ctx, "snapshot chain of %s loops at %s", location, prev)
		}
		seen[prev] = true
		next, err := blockio.ReadSnapshot(ctx, da, prev)
		if err != nil {
			return nil, err
		}
		if next.Timestamp >= ss.Timestamp {
			return nil, moerr.NewInternalError(ctx, "snapshot %s is not older than its successor", prev)
		}
		ss = next
		history = append(history, SnapshotEntry{Location: prev, Snapshot: ss})
	}
	return history, nil
}

// loadSegments reads the segments in parallel, keeping their order.
func loadSegments(ctx context.Context, da fileservice.DataAccessor, locations []string, parallel int) ([]*meta.SegmentInfo, error) {
	segments := make([]*meta.SegmentInfo, len(locations))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(parallel, 1))
	for i, location := range locations {
		i, location := i, location
		g.Go(func() error {
			seg, err := blockio.ReadSegment(ctx, da, location)
			if err != nil {
				return err
			}
			segments[i] = seg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return segments, nil
}

// collectObjects lists every snapshot, segment and block the history
// refers to.
func collectObjects(ctx context.Context, da fileservice.DataAccessor, history []SnapshotEntry) ([]string, error) {
	seen := make(map[string]bool)
	var objects []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			objects = append(objects, p)
		}
	}
	var segLocs []string
	for _, h := range history {
		add(h.Location)
		for _, loc := range h.Snapshot.Segments {
			if !seen[loc] {
				segLocs = append(segLocs, loc)
			}
			add(loc)
		}
	}
	segments, err := loadSegments(ctx, da, segLocs, 4)
	if err != nil {
		return nil, err
	}
	for _, seg := range segments {
		for _, blk := range seg.Blocks {
			add(blk.Location)
		}
	}
	return objects, nil
}
