package core

// availability.go is the single ordered rule engine deciding which
// events are sellable on which platforms.
//
// Rules run in a fixed priority order and short-circuit per pair:
//
//	1. PLATFORM_MISMATCH  no record of the event sells on the platform
//	2. SOLD_OUT           every record of the pair sold on or before asOf
//	3. WINDOW_CLOSED      asOf is outside the configured sellable window
//	4. OK                 otherwise
//
// Reasons are mutually exclusive by construction once the order is
// fixed. Records are grouped by (event, platform) before any rule
// runs, so arbitrary input row order never changes the output.

import (
	"sort"
	"time"
)

// Evaluate produces exactly one AvailabilityDecision per distinct
// (event, platform) pair observed in the input: every event seen in
// records crossed with the mapping's platform universe plus any
// platform named directly on a record. Output is sorted by
// (event, platform) and is deterministic for a given input set.
func Evaluate(records []TicketRecord, mapping *TheaterMapping, asOf time.Time, window WindowConfig) []AvailabilityDecision {
	events := distinctEvents(records)
	platforms := platformUniverse(records, mapping)
	if len(events) == 0 || len(platforms) == 0 {
		return nil
	}

	type pair struct {
		event    string
		platform string
	}
	groups := make(map[pair][]TicketRecord)
	for _, rec := range records {
		for _, p := range recordPlatforms(rec, mapping) {
			k := pair{event: rec.Event, platform: p}
			groups[k] = append(groups[k], rec)
		}
	}

	asOfDay := dateOnly(asOf)
	decisions := make([]AvailabilityDecision, 0, len(events)*len(platforms))

	for _, event := range events {
		for _, platform := range platforms {
			group := groups[pair{event: event, platform: platform}]
			d := AvailabilityDecision{Event: event, Platform: platform}

			switch {
			case len(group) == 0:
				d.Reason = ReasonPlatformMismatch
			case allSold(group, asOfDay):
				d.Reason = ReasonSoldOut
			case windowClosed(group, asOfDay, window):
				d.Reason = ReasonWindowClosed
			default:
				d.Available = true
				d.Reason = ReasonOK
			}

			decisions = append(decisions, d)
		}
	}

	return decisions
}

// recordPlatforms returns the platforms a record sells on: the mapped
// platforms of its theater, plus the platform named on the record
// itself when present.
func recordPlatforms(rec TicketRecord, mapping *TheaterMapping) []string {
	platforms := mapping.Resolve(rec.Theater)
	if rec.Platform.Valid && rec.Platform.String != "" {
		found := false
		for _, p := range platforms {
			if p == rec.Platform.String {
				found = true
				break
			}
		}
		if !found {
			platforms = append(platforms, rec.Platform.String)
		}
	}
	return platforms
}

// allSold reports whether every record of a pair carries a non-null
// sold date on or before asOf. A single unsold record keeps the pair
// available as far as this rule is concerned.
func allSold(group []TicketRecord, asOf time.Time) bool {
	for _, rec := range group {
		if !rec.SoldDate.Valid {
			return false
		}
		if dateOnly(rec.SoldDate.Time).After(asOf) {
			return false
		}
	}
	return true
}

// windowClosed checks asOf against the sellable window anchored on the
// pair's next performance: the earliest known event date in the group.
// Pairs with no known event date have no window and stay open.
func windowClosed(group []TicketRecord, asOf time.Time, window WindowConfig) bool {
	var next time.Time
	for _, rec := range group {
		if !rec.EventDate.Valid {
			continue
		}
		d := dateOnly(rec.EventDate.Time)
		if next.IsZero() || d.Before(next) {
			next = d
		}
	}
	if next.IsZero() {
		return false
	}

	lastSellable := next.AddDate(0, 0, -window.CutoffDays)
	if asOf.After(lastSellable) {
		return true
	}
	if window.MaxAdvanceDays > 0 {
		firstSellable := next.AddDate(0, 0, -window.MaxAdvanceDays)
		if asOf.Before(firstSellable) {
			return true
		}
	}
	return false
}

func distinctEvents(records []TicketRecord) []string {
	seen := make(map[string]bool)
	var events []string
	for _, rec := range records {
		if !seen[rec.Event] {
			seen[rec.Event] = true
			events = append(events, rec.Event)
		}
	}
	sort.Strings(events)
	return events
}

// platformUniverse is the sorted union of the mapping's platforms and
// any platform named directly on a record.
func platformUniverse(records []TicketRecord, mapping *TheaterMapping) []string {
	seen := make(map[string]bool)
	platforms := mapping.Platforms()
	for _, p := range platforms {
		seen[p] = true
	}
	for _, rec := range records {
		if rec.Platform.Valid && rec.Platform.String != "" && !seen[rec.Platform.String] {
			seen[rec.Platform.String] = true
			platforms = append(platforms, rec.Platform.String)
		}
	}
	sort.Strings(platforms)
	return platforms
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
