package observability

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/matzehuels/crosssection/pkg/errors"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnLayoutStart(ctx, 1, 3)
	p.OnLayoutComplete(ctx, 3, time.Second, nil)
	p.OnRenderStart(ctx, []string{"svg"})
	p.OnRenderComplete(ctx, []string{"svg"}, time.Second, nil)
	p.OnRejected(ctx, "ALL_ZEROS")

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "layout")
	c.OnCacheMiss(ctx, "layout")
	c.OnCacheSet(ctx, "artifact", 1024)

	NoopHTTPHooks{}.OnRequest(ctx, "POST", "/render", 200, time.Millisecond)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}
	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}
	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testPipelineHooks{}
	SetPipelineHooks(custom)
	SetPipelineHooks(nil)

	if Pipeline() != custom {
		t.Error("SetPipelineHooks(nil) should be ignored")
	}
}

func TestPrometheus(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.OnLayoutComplete(ctx, 4, 2*time.Millisecond, nil)
	p.OnLayoutComplete(ctx, 0, time.Millisecond, errors.New(errors.ErrCodeAllZeros, "nothing"))
	p.OnRenderComplete(ctx, []string{"svg"}, time.Millisecond, nil)
	p.OnRejected(ctx, "ALL_ZEROS")
	p.OnRejected(ctx, "ALL_ZEROS")
	p.OnCacheHit(ctx, "layout")
	p.OnCacheMiss(ctx, "artifact")
	p.OnCacheSet(ctx, "artifact", 512)
	p.OnRequest(ctx, "POST", "/render", 200, time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}

	tests := []struct {
		name   string
		labels map[string]string
		want   float64
	}{
		{"crosssection_rejected_total", map[string]string{"code": "ALL_ZEROS"}, 2},
		{"crosssection_cache_events_total", map[string]string{"kind": "layout", "event": "hit"}, 1},
		{"crosssection_cache_events_total", map[string]string{"kind": "artifact", "event": "set"}, 1},
		{"crosssection_cache_written_bytes_total", map[string]string{"kind": "artifact"}, 512},
		{"crosssection_http_requests_total", map[string]string{"route": "/render", "status": "200"}, 1},
		{"crosssection_stage_duration_seconds", map[string]string{"stage": "layout", "outcome": "ALL_ZEROS"}, 1},
		{"crosssection_stage_duration_seconds", map[string]string{"stage": "layout", "outcome": "ok"}, 1},
		{"crosssection_layout_segments", nil, 1},
	}
	for _, tt := range tests {
		if got := sample(families, tt.name, tt.labels); got != tt.want {
			t.Errorf("%s%v = %v, want %v", tt.name, tt.labels, got, tt.want)
		}
	}
}

// sample returns the counter value, or the histogram sample count, of the
// first metric in family name whose labels include want.
func sample(families []*dto.MetricFamily, name string, want map[string]string) float64 {
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			have := map[string]string{}
			for _, lp := range m.GetLabel() {
				have[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if have[k] != v {
					continue metrics
				}
			}
			if m.GetCounter() != nil {
				return m.GetCounter().GetValue()
			}
			if m.GetHistogram() != nil {
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return -1
}

type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
