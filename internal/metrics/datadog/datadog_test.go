package datadog

import (
	"net"
	"reflect"
	"strings"
	"testing"
	"time"

	"csvreduce/internal/metrics"
)

func TestNewBackend_RequiresAddr(t *testing.T) {
	t.Parallel()

	b, err := NewBackend(Config{})
	if err == nil || b != nil {
		t.Fatalf("NewBackend(empty) = %v, %v; want nil, error", b, err)
	}
}

func TestLabelsToTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   metrics.Labels
		want []string
	}{
		{name: "nil", in: nil, want: nil},
		{name: "empty", in: metrics.Labels{}, want: nil},
		{
			name: "sorted",
			in:   metrics.Labels{"step": "reduce", "job": "daily", "status": "success"},
			want: []string{"job:daily", "status:success", "step:reduce"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := labelsToTags(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("labelsToTags(%v) = %v; want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestZeroBackendIsNoop(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter(metrics.RecordsTotal, 1, metrics.Labels{"kind": "rows"})
	b.ObserveHistogram(metrics.StepDurationSeconds, 1, nil)
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() = %v", err)
	}
}

// TestFlushSendsPackets points the client at a local UDP socket and checks
// that a counter arrives with its tags after Flush.
func TestFlushSendsPackets(t *testing.T) {
	t.Parallel()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("udp listen: %v", err)
	}
	defer conn.Close()

	b, err := NewBackend(Config{Addr: conn.LocalAddr().String(), Namespace: "test."})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	b.IncCounter(metrics.RecordsTotal, 3, metrics.Labels{"kind": "selected"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 65536)
	var seen []string
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			t.Fatalf("counter not received (%v); packets=%q", err, seen)
		}
		pkt := string(buf[:n])
		seen = append(seen, pkt)
		for _, line := range strings.Split(pkt, "\n") {
			if strings.HasPrefix(line, "test.csvreduce_records_total:3|c") && strings.Contains(line, "kind:selected") {
				return
			}
		}
	}
}
