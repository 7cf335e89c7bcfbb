package collector

import (
	"fmt"
	"testing"
	"time"
)

func TestParseChart(t *testing.T) {
	day := func(s string) int64 {
		ts, _ := time.Parse("2006-01-02", s)
		return ts.Unix()
	}
	body := []byte(fmt.Sprintf(`{
		"chart": {
			"result": [{
				"timestamp": [%d, %d, %d],
				"indicators": {
					"quote": [{
						"open":   [42000.0, 42500.0, 43000.0],
						"high":   [43000.0, 43500.0, 44000.0],
						"low":    [41000.0, 42000.0, 42500.0],
						"close":  [42500.0, null, 43800.0],
						"volume": [1000, 1100, 1200]
					}]
				}
			}],
			"error": null
		}
	}`, day("2025-01-01"), day("2025-01-02"), day("2025-01-03")))

	bars, err := parseChart(body, "BTC-USD")
	if err != nil {
		t.Fatalf("parseChart: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("null closes should be skipped, got %d bars", len(bars))
	}
	if bars[0].Date != "2025-01-01" || bars[0].Close != 42500.0 {
		t.Fatalf("unexpected bar: %+v", bars[0])
	}
	if bars[1].Date != "2025-01-03" || bars[1].Volume != 1200 {
		t.Fatalf("unexpected bar: %+v", bars[1])
	}
}

func TestParseChartError(t *testing.T) {
	body := []byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	if _, err := parseChart(body, "NOPE-USD"); err == nil {
		t.Fatalf("expected error for chart error response")
	}
}
