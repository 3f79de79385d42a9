package core

// reconcile.go diffs a freshly normalized record set against the
// previously persisted set and produces an idempotent upsert plan.
//
// Reconciliation is a pure comparison: no network or storage I/O
// happens here. UNCHANGED entries carry no write cost; keys present
// only in the previous set are reported as removals for the store to
// decide deletion policy.

import "sort"

// Reconcile indexes both record sets by identity key and classifies
// every key in current as INSERT, UPDATE, or UNCHANGED. Diffs come
// out sorted by key so the plan is order-independent of the inputs.
//
// Duplicate keys within one input with materially different values do
// not abort the pass: the later-supplied record wins and the conflict
// is reported in Collisions.
func Reconcile(previous, current []TicketRecord) ReconcileResult {
	var result ReconcileResult

	prev, prevCollisions := indexByKey(previous)
	curr, currCollisions := indexByKey(current)
	result.Collisions = append(prevCollisions, currCollisions...)

	currKeys := make([]RecordKey, 0, len(curr))
	for k := range curr {
		currKeys = append(currKeys, k)
	}
	sortKeys(currKeys)

	for _, k := range currKeys {
		newRec := curr[k]
		diff := SyncDiff{Key: k, New: &newRec}

		if oldRec, ok := prev[k]; ok {
			old := oldRec
			diff.Old = &old
			if oldRec.Equal(newRec) {
				diff.Action = ActionUnchanged
			} else {
				diff.Action = ActionUpdate
			}
		} else {
			diff.Action = ActionInsert
		}

		result.Diffs = append(result.Diffs, diff)
	}

	prevKeys := make([]RecordKey, 0, len(prev))
	for k := range prev {
		if _, ok := curr[k]; !ok {
			prevKeys = append(prevKeys, k)
		}
	}
	sortKeys(prevKeys)
	for _, k := range prevKeys {
		result.Removed = append(result.Removed, prev[k])
	}

	return result
}

// indexByKey builds the key index for one record sequence. When two
// records share a key, the later one wins; if their values differ
// materially the conflict is reported rather than swallowed.
func indexByKey(records []TicketRecord) (map[RecordKey]TicketRecord, []KeyCollision) {
	idx := make(map[RecordKey]TicketRecord, len(records))
	var collisions []KeyCollision

	for _, rec := range records {
		k := rec.Key()
		if existing, ok := idx[k]; ok && !existing.Equal(rec) {
			collisions = append(collisions, KeyCollision{
				Key:     k,
				Kept:    rec,
				Dropped: existing,
				KeptRow: rec.SourceRow,
				DropRow: existing.SourceRow,
			})
		}
		idx[k] = rec
	}

	return idx, collisions
}

func sortKeys(keys []RecordKey) {
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Theater != b.Theater {
			return a.Theater < b.Theater
		}
		if a.Event != b.Event {
			return a.Event < b.Event
		}
		return a.SoldDate < b.SoldDate
	})
}
