package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/marisol-apps/pantrylog-backend/pkg/config"
	"github.com/marisol-apps/pantrylog-backend/pkg/db/models"
	"github.com/marisol-apps/pantrylog-backend/pkg/enums"
	pkgerrors "github.com/marisol-apps/pantrylog-backend/pkg/errors"
	"github.com/marisol-apps/pantrylog-backend/pkg/logger"
	"github.com/marisol-apps/pantrylog-backend/pkg/metrics"
)

// trackedTables lists every syncable entity, in push order.
var trackedTables = []string{
	models.Store{}.TableName(),
	models.InventoryItem{}.TableName(),
	models.ShoppingList{}.TableName(),
	models.ListItem{}.TableName(),
	models.CartItem{}.TableName(),
	models.PriceRecord{}.TableName(),
}

// Report summarizes one SyncNow run. Err aggregates per-record failures and
// is informational; the caller decides whether to surface it.
type Report struct {
	Outcome enums.SyncOutcome
	Pushed  int
	Failed  int
	Err     error
}

// Engine drains dirty rows to the remote store. It runs as a discrete,
// cancellable operation; it never retries inside a call, so a failed or
// offline run simply leaves rows dirty for the next one.
type Engine struct {
	db      *gorm.DB
	remote  RemoteStore
	cfg     config.SyncConfig
	tier    enums.SubscriptionTier
	metrics *metrics.SyncMetrics
	logg    *logger.Logger
}

func NewEngine(db *gorm.DB, remote RemoteStore, cfg config.SyncConfig, m *metrics.SyncMetrics, logg *logger.Logger) (*Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	tier, err := enums.ParseSubscriptionTier(cfg.Tier)
	if err != nil {
		return nil, err
	}
	if tier.CanSync() && remote == nil {
		return nil, fmt.Errorf("remote store required for tier %q", tier)
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = 200
	}
	return &Engine{db: db, remote: remote, cfg: cfg, tier: tier, metrics: m, logg: logg}, nil
}

// pending is one row captured in the snapshot, remembered by table so flag
// flips land on the right entity.
type pending struct {
	table string
	id    uuid.UUID
}

// SyncNow performs one complete sync pass for the user. Free-tier engines
// report local-only without touching the network; an offline remote reports
// offline immediately. Flags flip to clean for exactly the rows the remote
// confirmed, and back to dirty for everything else.
func (e *Engine) SyncNow(ctx context.Context, userID string) Report {
	start := time.Now()
	report := e.run(ctx, userID)
	if e.metrics != nil {
		e.metrics.ObserveRun(string(report.Outcome), time.Since(start), report.Pushed, report.Failed)
	}
	if e.logg != nil {
		e.logg.Info(e.logg.WithFields(ctx, map[string]any{
			"outcome": string(report.Outcome),
			"pushed":  report.Pushed,
			"failed":  report.Failed,
		}), "sync run finished")
	}
	return report
}

func (e *Engine) run(ctx context.Context, userID string) Report {
	if !e.tier.CanSync() {
		return Report{Outcome: enums.SyncOutcomeLocalOnly}
	}

	probeCtx, cancel := context.WithTimeout(ctx, e.cfg.ProbeTimeout)
	err := e.remote.Probe(probeCtx)
	cancel()
	if err != nil {
		return Report{Outcome: enums.SyncOutcomeOffline, Err: err}
	}

	records, snapshot, err := e.snapshot(ctx, userID)
	if err != nil {
		return Report{Outcome: enums.SyncOutcomeFailed, Err: err}
	}
	if len(records) == 0 {
		return Report{Outcome: enums.SyncOutcomeNoop}
	}

	pushCtx, cancel := context.WithTimeout(ctx, e.cfg.PushTimeout)
	result, err := e.remote.Push(pushCtx, userID, records)
	cancel()
	if err != nil {
		outcome := enums.SyncOutcomeFailed
		if pkgerrors.CodeOf(err) == pkgerrors.CodeOffline {
			outcome = enums.SyncOutcomeOffline
		}
		// nothing confirmed: every captured row goes back to dirty
		if revertErr := e.flip(ctx, snapshot, allIDs(snapshot), enums.SyncStateDirty); revertErr != nil {
			err = multierr.Append(err, revertErr)
		}
		return Report{Outcome: outcome, Failed: len(snapshot), Err: err}
	}

	confirmed := map[uuid.UUID]struct{}{}
	for _, id := range result.Succeeded {
		confirmed[id] = struct{}{}
	}
	var failedIDs []uuid.UUID
	var errs error
	for _, row := range snapshot {
		if _, ok := confirmed[row.id]; ok {
			continue
		}
		failedIDs = append(failedIDs, row.id)
		if reason, ok := result.Failed[row.id]; ok {
			errs = multierr.Append(errs, fmt.Errorf("%s %s: %s", row.table, row.id, reason))
		}
	}

	if err := e.flip(ctx, snapshot, result.Succeeded, enums.SyncStateClean); err != nil {
		errs = multierr.Append(errs, err)
	}
	if err := e.flip(ctx, snapshot, failedIDs, enums.SyncStateDirty); err != nil {
		errs = multierr.Append(errs, err)
	}

	report := Report{Pushed: len(result.Succeeded), Failed: len(failedIDs), Err: errs}
	switch {
	case report.Failed == 0:
		report.Outcome = enums.SyncOutcomeSynced
	case report.Pushed == 0:
		report.Outcome = enums.SyncOutcomeFailed
	default:
		report.Outcome = enums.SyncOutcomePartial
	}
	return report
}

// snapshot captures dirty rows for the user across all tracked tables and
// flips them to syncing in the same transaction, so mutations made during
// the push re-dirty rows rather than being silently absorbed.
func (e *Engine) snapshot(ctx context.Context, userID string) ([]Record, []pending, error) {
	var records []Record
	var captured []pending

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range trackedTables {
			var rows []map[string]any
			err := tx.Table(table).
				Where("user_id = ? AND sync_state = ?", userID, enums.SyncStateDirty).
				Limit(e.cfg.BatchLimit - len(captured)).
				Find(&rows).Error
			if err != nil {
				return err
			}

			var ids []uuid.UUID
			for _, row := range rows {
				id, err := rowID(row)
				if err != nil {
					return err
				}
				row["sync_state"] = string(enums.SyncStateSyncing)
				data, err := json.Marshal(row)
				if err != nil {
					return err
				}
				records = append(records, Record{Entity: table, ID: id, Data: data})
				captured = append(captured, pending{table: table, id: id})
				ids = append(ids, id)
			}
			if len(ids) > 0 {
				err := tx.Table(table).
					Where("id IN ?", ids).
					Update("sync_state", string(enums.SyncStateSyncing)).Error
				if err != nil {
					return err
				}
			}
			if len(captured) >= e.cfg.BatchLimit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return records, captured, nil
}

// flip moves the given rows to state, but only while they are still syncing.
// A row the user mutated mid-push is dirty again and must stay dirty.
func (e *Engine) flip(ctx context.Context, snapshot []pending, ids []uuid.UUID, state enums.SyncState) error {
	if len(ids) == 0 {
		return nil
	}
	wanted := map[uuid.UUID]struct{}{}
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	byTable := map[string][]uuid.UUID{}
	for _, row := range snapshot {
		if _, ok := wanted[row.id]; ok {
			byTable[row.table] = append(byTable[row.table], row.id)
		}
	}
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for table, tableIDs := range byTable {
			err := tx.Table(table).
				Where("id IN ? AND sync_state = ?", tableIDs, enums.SyncStateSyncing).
				Update("sync_state", string(state)).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func allIDs(snapshot []pending) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(snapshot))
	for _, row := range snapshot {
		ids = append(ids, row.id)
	}
	return ids
}

// PendingCounts reports how many rows per tracked table still await a push
// for the user. A row mid-push counts as pending too.
func (e *Engine) PendingCounts(ctx context.Context, userID string) (map[string]int64, error) {
	counts := make(map[string]int64, len(trackedTables))
	for _, table := range trackedTables {
		var n int64
		err := e.db.WithContext(ctx).
			Table(table).
			Where("user_id = ? AND sync_state IN ?", userID,
				[]enums.SyncState{enums.SyncStateDirty, enums.SyncStateSyncing}).
			Count(&n).Error
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("counting pending rows in %s", table))
		}
		counts[table] = n
	}
	return counts, nil
}

// DirtyUsers returns every user with at least one dirty tracked row. The
// background daemon uses it to decide whose turn it is.
func (e *Engine) DirtyUsers(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	var users []string
	for _, table := range trackedTables {
		var ids []string
		err := e.db.WithContext(ctx).
			Table(table).
			Where("sync_state = ?", enums.SyncStateDirty).
			Distinct("user_id").
			Pluck("user_id", &ids).Error
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("listing dirty users in %s", table))
		}
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			users = append(users, id)
		}
	}
	return users, nil
}

func rowID(row map[string]any) (uuid.UUID, error) {
	raw, ok := row["id"]
	if !ok {
		return uuid.Nil, fmt.Errorf("tracked row missing id column")
	}
	// gorm's map scan hands back column values boxed as *interface{} on
	// the sqlite driver; unwrap before inspecting the concrete type
	for {
		ptr, isPtr := raw.(*any)
		if !isPtr {
			break
		}
		if ptr == nil {
			return uuid.Nil, fmt.Errorf("tracked row has nil id column")
		}
		raw = *ptr
	}
	switch v := raw.(type) {
	case string:
		return uuid.Parse(v)
	case []byte:
		return uuid.Parse(string(v))
	default:
		return uuid.Parse(fmt.Sprint(v))
	}
}
