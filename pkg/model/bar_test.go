package model

import (
	"math"
	"testing"
)

func TestNormalizeSortsAndComputesDerived(t *testing.T) {
	d := &DailyDataset{
		Symbol: "600519",
		Bars: []DailyBar{
			{Date: "2025-01-03", Close: 110},
			{Date: "2025-01-01", Close: 100},
			{Date: "2025-01-02", Close: 105},
		},
	}
	if err := d.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if d.Bars[0].Date != "2025-01-01" || d.Bars[2].Date != "2025-01-03" {
		t.Fatalf("bars not sorted: %+v", d.Bars)
	}
	if d.Bars[0].Change != 0 || d.Bars[0].PctChange != 0 {
		t.Fatalf("first bar derived fields should be zero: %+v", d.Bars[0])
	}
	if d.Bars[1].Change != 5 {
		t.Fatalf("change = %v, want 5", d.Bars[1].Change)
	}
	if math.Abs(d.Bars[1].PctChange-5.0) > 1e-9 {
		t.Fatalf("pct_change = %v, want 5.0", d.Bars[1].PctChange)
	}
	if math.Abs(d.Bars[2].PctChange-100*5.0/105.0) > 1e-9 {
		t.Fatalf("pct_change = %v", d.Bars[2].PctChange)
	}
}

func TestNormalizeDedupKeepsLater(t *testing.T) {
	d := &DailyDataset{
		Symbol: "600519",
		Bars: []DailyBar{
			{Date: "2025-01-01", Close: 100},
			{Date: "2025-01-02", Close: 101},
			{Date: "2025-01-02", Close: 102},
		},
	}
	if err := d.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(d.Bars) != 2 {
		t.Fatalf("expected 2 bars after dedup, got %d", len(d.Bars))
	}
	if d.Bars[1].Close != 102 {
		t.Fatalf("dedup should keep the later record, got close %v", d.Bars[1].Close)
	}
}

func TestNormalizeEmptyDataset(t *testing.T) {
	d := &DailyDataset{Symbol: "600519"}
	if err := d.Normalize(); err == nil {
		t.Fatalf("expected error for empty dataset")
	}
}

func TestLatest(t *testing.T) {
	d := &DailyDataset{}
	if d.Latest() != nil {
		t.Fatalf("Latest on empty dataset should be nil")
	}
	d.Bars = []DailyBar{{Date: "2025-01-01"}, {Date: "2025-01-02"}}
	if got := d.Latest(); got == nil || got.Date != "2025-01-02" {
		t.Fatalf("Latest = %+v", got)
	}
}
