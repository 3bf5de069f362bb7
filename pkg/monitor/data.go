package monitor

import (
	"context"
	"sort"

	"github.com/thorbis/fieldsync/internal/db"
	"github.com/thorbis/fieldsync/internal/models"
)

// maxRecentRecords caps the recent-records panel.
const maxRecentRecords = 10

// SyncSource is the slice of the orchestrator the monitor reads from
// and pokes. *syncer.Manager satisfies it.
type SyncSource interface {
	Status() models.SyncStatus
	TriggerSync(ctx context.Context) error
	GetOfflineData(ctx context.Context, store models.Store, filters db.RecordFilters) ([]models.Record, error)
}

// snapshot is one refresh worth of dashboard data.
type snapshot struct {
	status models.SyncStatus
	recent []models.Record
}

// loadSnapshot reads current status and the newest pending records
// across all stores.
func loadSnapshot(ctx context.Context, src SyncSource) (snapshot, error) {
	snap := snapshot{status: src.Status()}

	unsynced := false
	for _, store := range models.Stores() {
		recs, err := src.GetOfflineData(ctx, store, db.RecordFilters{
			Synced: &unsynced,
			Limit:  maxRecentRecords,
		})
		if err != nil {
			return snap, err
		}
		snap.recent = append(snap.recent, recs...)
	}

	sort.Slice(snap.recent, func(i, j int) bool {
		return snap.recent[i].CreatedAt.After(snap.recent[j].CreatedAt)
	})
	if len(snap.recent) > maxRecentRecords {
		snap.recent = snap.recent[:maxRecentRecords]
	}
	return snap, nil
}
