package core

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

func testMapping() *TheaterMapping {
	return NewTheaterMapping([]MappingEntry{
		{Theater: "Grand Theatre", Platform: "TicketWeb"},
		{Theater: "Grand Theatre", Platform: "SeatGeek"},
		{Theater: "Buell Theatre", Platform: "AXS"},
	})
}

func rec(theater, event, soldDate string) TicketRecord {
	return TicketRecord{
		Theater:  theater,
		Event:    event,
		SoldDate: ParseDate(soldDate),
	}
}

func recWithEventDate(theater, event, soldDate, eventDate string) TicketRecord {
	r := rec(theater, event, soldDate)
	r.EventDate = ParseDate(eventDate)
	return r
}

func asOf(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func decisionFor(t *testing.T, decisions []AvailabilityDecision, event, platform string) AvailabilityDecision {
	t.Helper()
	for _, d := range decisions {
		if d.Event == event && d.Platform == platform {
			return d
		}
	}
	t.Fatalf("no decision for (%s, %s)", event, platform)
	return AvailabilityDecision{}
}

func TestEvaluate_RulePriority(t *testing.T) {
	// "Unknown Hall" maps to no platform, and its only record is sold.
	// The platform rule must win over the sold-out rule: the pair never
	// reports SOLD_OUT for a platform that does not sell the event.
	records := []TicketRecord{
		rec("Unknown Hall", "Hamilton", "2024-01-01"),
	}

	decisions := Evaluate(records, testMapping(), asOf("2024-06-01"), WindowConfig{})

	for _, d := range decisions {
		if d.Event != "Hamilton" {
			continue
		}
		if d.Reason != ReasonPlatformMismatch {
			t.Errorf("(%s, %s): reason = %s, want PLATFORM_MISMATCH", d.Event, d.Platform, d.Reason)
		}
		if d.Available {
			t.Errorf("(%s, %s): should not be available", d.Event, d.Platform)
		}
	}
}

func TestEvaluate_UnmappedTheaterMismatchEverywhere(t *testing.T) {
	records := []TicketRecord{
		rec("Unknown Hall", "Hamilton", ""),
	}

	decisions := Evaluate(records, testMapping(), asOf("2024-06-01"), WindowConfig{})

	// One decision per mapping platform, all mismatches.
	if len(decisions) != 3 {
		t.Fatalf("got %d decisions, want 3: %v", len(decisions), decisions)
	}
	for _, d := range decisions {
		if d.Reason != ReasonPlatformMismatch || d.Available {
			t.Errorf("(%s, %s): got %s available=%v, want PLATFORM_MISMATCH", d.Event, d.Platform, d.Reason, d.Available)
		}
	}
}

func TestEvaluate_SoldOut(t *testing.T) {
	tests := []struct {
		name     string
		records  []TicketRecord
		asOf     string
		platform string
		want     Reason
		avail    bool
	}{
		{
			name: "all records sold before asOf",
			records: []TicketRecord{
				rec("Buell Theatre", "Wicked", "2024-01-01"),
				rec("Buell Theatre", "Wicked", "2024-02-15"),
			},
			asOf:     "2024-06-01",
			platform: "AXS",
			want:     ReasonSoldOut,
		},
		{
			name: "sold exactly on asOf counts as sold",
			records: []TicketRecord{
				rec("Buell Theatre", "Wicked", "2024-06-01"),
			},
			asOf:     "2024-06-01",
			platform: "AXS",
			want:     ReasonSoldOut,
		},
		{
			name: "mixed sold and unsold stays available",
			records: []TicketRecord{
				rec("Buell Theatre", "Wicked", "2024-01-01"),
				rec("Buell Theatre", "Wicked", ""),
			},
			asOf:     "2024-06-01",
			platform: "AXS",
			want:     ReasonOK,
			avail:    true,
		},
		{
			name: "future sale stays available",
			records: []TicketRecord{
				rec("Buell Theatre", "Wicked", "2024-07-01"),
			},
			asOf:     "2024-06-01",
			platform: "AXS",
			want:     ReasonOK,
			avail:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decisions := Evaluate(tt.records, testMapping(), asOf(tt.asOf), WindowConfig{})
			d := decisionFor(t, decisions, "Wicked", tt.platform)
			if d.Reason != tt.want {
				t.Errorf("reason = %s, want %s", d.Reason, tt.want)
			}
			if d.Available != tt.avail {
				t.Errorf("available = %v, want %v", d.Available, tt.avail)
			}
		})
	}
}

func TestEvaluate_Window(t *testing.T) {
	tests := []struct {
		name   string
		record TicketRecord
		asOf   string
		window WindowConfig
		want   Reason
	}{
		{
			name:   "event date passed",
			record: recWithEventDate("Buell Theatre", "Wicked", "", "2024-05-01"),
			asOf:   "2024-06-01",
			window: WindowConfig{},
			want:   ReasonWindowClosed,
		},
		{
			name:   "inside cutoff",
			record: recWithEventDate("Buell Theatre", "Wicked", "", "2024-06-05"),
			asOf:   "2024-06-01",
			window: WindowConfig{CutoffDays: 7},
			want:   ReasonWindowClosed,
		},
		{
			name:   "exactly on cutoff boundary still open",
			record: recWithEventDate("Buell Theatre", "Wicked", "", "2024-06-08"),
			asOf:   "2024-06-01",
			window: WindowConfig{CutoffDays: 7},
			want:   ReasonOK,
		},
		{
			name:   "too far in advance",
			record: recWithEventDate("Buell Theatre", "Wicked", "", "2025-06-01"),
			asOf:   "2024-06-01",
			window: WindowConfig{MaxAdvanceDays: 180},
			want:   ReasonWindowClosed,
		},
		{
			name:   "inside advance bound",
			record: recWithEventDate("Buell Theatre", "Wicked", "", "2024-09-01"),
			asOf:   "2024-06-01",
			window: WindowConfig{MaxAdvanceDays: 180},
			want:   ReasonOK,
		},
		{
			name:   "no event date leaves window open",
			record: rec("Buell Theatre", "Wicked", ""),
			asOf:   "2024-06-01",
			window: WindowConfig{CutoffDays: 7, MaxAdvanceDays: 30},
			want:   ReasonOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decisions := Evaluate([]TicketRecord{tt.record}, testMapping(), asOf(tt.asOf), tt.window)
			d := decisionFor(t, decisions, "Wicked", "AXS")
			if d.Reason != tt.want {
				t.Errorf("reason = %s, want %s", d.Reason, tt.want)
			}
			if d.Available != (tt.want == ReasonOK) {
				t.Errorf("available = %v with reason %s", d.Available, d.Reason)
			}
		})
	}
}

func TestEvaluate_SoldOutBeatsWindow(t *testing.T) {
	// A pair that is both fully sold and past its event date reports
	// SOLD_OUT, never WINDOW_CLOSED.
	records := []TicketRecord{
		recWithEventDate("Buell Theatre", "Wicked", "2024-01-01", "2024-05-01"),
	}
	decisions := Evaluate(records, testMapping(), asOf("2024-06-01"), WindowConfig{})
	d := decisionFor(t, decisions, "Wicked", "AXS")
	if d.Reason != ReasonSoldOut {
		t.Errorf("reason = %s, want SOLD_OUT", d.Reason)
	}
}

func TestEvaluate_RecordPlatformExtendsUniverse(t *testing.T) {
	r := rec("Unknown Hall", "Hamilton", "")
	r.Platform = pgtype.Text{String: "DirectBox", Valid: true}

	decisions := Evaluate([]TicketRecord{r}, testMapping(), asOf("2024-06-01"), WindowConfig{})

	d := decisionFor(t, decisions, "Hamilton", "DirectBox")
	if d.Reason != ReasonOK || !d.Available {
		t.Errorf("record-level platform should be sellable: %+v", d)
	}
	if got := decisionFor(t, decisions, "Hamilton", "AXS"); got.Reason != ReasonPlatformMismatch {
		t.Errorf("unrelated platform should mismatch: %+v", got)
	}
}

func TestEvaluate_OneDecisionPerPair(t *testing.T) {
	records := []TicketRecord{
		rec("Grand Theatre", "Hamilton", "2024-01-01"),
		rec("Grand Theatre", "Hamilton", ""),
		rec("Buell Theatre", "Wicked", ""),
	}

	decisions := Evaluate(records, testMapping(), asOf("2024-06-01"), WindowConfig{})

	// 2 events x 3 platforms.
	if len(decisions) != 6 {
		t.Fatalf("got %d decisions, want 6", len(decisions))
	}
	seen := make(map[[2]string]bool)
	for _, d := range decisions {
		k := [2]string{d.Event, d.Platform}
		if seen[k] {
			t.Errorf("duplicate decision for %v", k)
		}
		seen[k] = true
	}
}

func TestEvaluate_DeterministicUnderShuffle(t *testing.T) {
	records := []TicketRecord{
		rec("Grand Theatre", "Hamilton", "2024-01-01"),
		rec("Grand Theatre", "Hamilton", ""),
		recWithEventDate("Buell Theatre", "Wicked", "2024-01-05", "2024-08-01"),
		rec("Buell Theatre", "Chicago", ""),
		rec("Unknown Hall", "Cats", "2024-02-01"),
	}

	mapping := testMapping()
	when := asOf("2024-06-01")
	window := WindowConfig{CutoffDays: 7}

	want := Evaluate(records, mapping, when, window)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		shuffled := append([]TicketRecord(nil), records...)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		got := Evaluate(shuffled, mapping, when, window)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("shuffle %d changed output:\ngot  %v\nwant %v", i, got, want)
		}
	}
}

func TestEvaluate_EmptyInputs(t *testing.T) {
	if got := Evaluate(nil, testMapping(), asOf("2024-06-01"), WindowConfig{}); got != nil {
		t.Errorf("no records should yield no decisions, got %v", got)
	}

	empty := NewTheaterMapping(nil)
	records := []TicketRecord{rec("Grand Theatre", "Hamilton", "")}
	if got := Evaluate(records, empty, asOf("2024-06-01"), WindowConfig{}); got != nil {
		t.Errorf("empty platform universe should yield no decisions, got %v", got)
	}
}
