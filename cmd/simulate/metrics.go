package main

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[percentileIndex(len(latencies), 50)]
	p95 = latencies[percentileIndex(len(latencies), 95)]

	return avg, min, max, p50, p95
}

func percentileIndex(n, p int) int {
	idx := n * p / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

type Metrics struct {
	Booking   OperationMetrics
	Cancel    OperationMetrics
	Complete  OperationMetrics
	ReadByID  OperationMetrics
	ListByDay OperationMetrics
	SlotCheck OperationMetrics
}

func (m *Metrics) Print(duration time.Duration, workers int) {
	fmt.Printf("\nSIMULATION REPORT (duration=%s workers=%d)\n", duration, workers)

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Operation", "Total", "Success", "Conflict", "Error", "Avg", "P50", "P95", "Max"})
	for _, op := range []struct {
		name string
		om   *OperationMetrics
	}{
		{"Booking", &m.Booking},
		{"Cancel", &m.Cancel},
		{"Complete", &m.Complete},
		{"Read by ID", &m.ReadByID},
		{"List by day", &m.ListByDay},
		{"Slot check", &m.SlotCheck},
	} {
		total := atomic.LoadInt64(&op.om.Total)
		if total == 0 {
			continue
		}
		avg, _, max, p50, p95 := op.om.Stats()
		tw.AppendRow(table.Row{
			op.name,
			total,
			atomic.LoadInt64(&op.om.Success),
			atomic.LoadInt64(&op.om.Conflict),
			atomic.LoadInt64(&op.om.Error),
			avg.Round(time.Millisecond),
			p50.Round(time.Millisecond),
			p95.Round(time.Millisecond),
			max.Round(time.Millisecond),
		})
	}
	tw.Render()
}
