package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/predictarb/predictarb/internal/domain"
)

// Archiver implements domain.SnapshotArchiver: every published snapshot is
// serialized to JSON and uploaded under a date-partitioned key so history
// survives process restarts and stays queryable with offline tooling.
//
// Key schema:
//
//	snapshots/YYYY/MM/DD/{version}.json
type Archiver struct {
	writer domain.BlobWriter
}

// NewArchiver creates an Archiver that writes through the given blob writer.
func NewArchiver(writer domain.BlobWriter) *Archiver {
	return &Archiver{writer: writer}
}

// Archive uploads one snapshot. The write is idempotent: re-archiving the
// same version overwrites the same key.
func (a *Archiver) Archive(ctx context.Context, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("s3blob: marshal snapshot %d: %w", snap.Version, err)
	}

	path := snapshotPath(snap)
	if err := a.writer.Put(ctx, path, bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("s3blob: archive snapshot %d: %w", snap.Version, err)
	}
	return nil
}

func snapshotPath(snap domain.Snapshot) string {
	t := snap.ComputedAt.UTC()
	return fmt.Sprintf("snapshots/%s/%d.json", t.Format("2006/01/02"), snap.Version)
}

var _ domain.SnapshotArchiver = (*Archiver)(nil)
