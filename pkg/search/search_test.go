package search

import (
	"context"
	"strings"
	"sync"
	"testing"
)

func TestIsAvailable(t *testing.T) {
	if NewService(nil, nil).IsAvailable() {
		t.Fatalf("no keys should be unavailable")
	}
	if !NewService([]string{"bk"}, nil).IsAvailable() {
		t.Fatalf("bocha key should enable service")
	}
	if !NewService(nil, []string{"tk"}).IsAvailable() {
		t.Fatalf("tavily key should enable service")
	}
}

func TestSearchComprehensiveIntelUnavailable(t *testing.T) {
	if _, err := NewService(nil, nil).SearchComprehensiveIntel(context.Background(), "600519", "贵州茅台", 2); err == nil {
		t.Fatalf("expected error when no keys configured")
	}
}

func TestNextKeyRotates(t *testing.T) {
	s := NewService([]string{"k1", "k2", "k3"}, nil)
	got := []string{
		s.nextKey(s.bochaKeys),
		s.nextKey(s.bochaKeys),
		s.nextKey(s.bochaKeys),
		s.nextKey(s.bochaKeys),
	}
	want := []string{"k1", "k2", "k3", "k1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rotation = %v, want %v", got, want)
		}
	}
}

func TestNextKeyConcurrent(t *testing.T) {
	s := NewService([]string{"k1", "k2", "k3"}, nil)

	const goroutines = 8
	const perGoroutine = 30
	results := make(chan string, goroutines*perGoroutine)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				results <- s.nextKey(s.bochaKeys)
			}
		}()
	}
	wg.Wait()
	close(results)

	counts := map[string]int{}
	for key := range results {
		counts[key]++
	}
	want := goroutines * perGoroutine / 3
	for _, key := range []string{"k1", "k2", "k3"} {
		if counts[key] != want {
			t.Fatalf("key %s served %d times, want %d (counts=%v)", key, counts[key], want, counts)
		}
	}
}

func TestFormatIntelReport(t *testing.T) {
	s := NewService([]string{"k"}, nil)
	bundle := &IntelBundle{Items: []IntelItem{
		{Title: "茅台发布年报", Snippet: "营收同比增长", Source: "证券时报"},
		{Title: "白酒板块走强"},
	}}
	report := s.FormatIntelReport(bundle, "贵州茅台")

	for _, want := range []string{"贵州茅台", "1. 茅台发布年报", "营收同比增长", "证券时报", "2. 白酒板块走强"} {
		if !strings.Contains(report, want) {
			t.Fatalf("report missing %q:\n%s", want, report)
		}
	}
}

func TestFormatIntelReportEmpty(t *testing.T) {
	s := NewService([]string{"k"}, nil)
	if got := s.FormatIntelReport(nil, "x"); got != "" {
		t.Fatalf("nil bundle should yield empty report, got %q", got)
	}
	if got := s.FormatIntelReport(&IntelBundle{}, "x"); got != "" {
		t.Fatalf("empty bundle should yield empty report, got %q", got)
	}
}
