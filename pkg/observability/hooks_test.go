package observability

import (
	"context"
	"testing"
	"time"
)

type testPipelineHooks struct {
	NoopPipelineHooks
	parseStarts int
}

func (h *testPipelineHooks) OnParseStart(ctx context.Context, dir string) {
	h.parseStarts++
}

type testCacheHooks struct {
	NoopCacheHooks
	hits int
}

func (h *testCacheHooks) OnCacheHit(ctx context.Context, keyType string) {
	h.hits++
}

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnParseStart(ctx, "./infra")
	p.OnParseComplete(ctx, "./infra", 42, time.Second, nil)
	p.OnLayoutStart(ctx, 7)
	p.OnLayoutComplete(ctx, time.Second)
	p.OnRenderStart(ctx, []string{"svg"})
	p.OnRenderComplete(ctx, []string{"svg"}, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "state")
	c.OnCacheMiss(ctx, "artifact")
	c.OnCacheSet(ctx, "artifact", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != PipelineHooks(customPipeline) {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != CacheHooks(customCache) {
		t.Error("SetCacheHooks should set custom hooks")
	}

	Pipeline().OnParseStart(context.Background(), ".")
	if customPipeline.parseStarts != 1 {
		t.Error("registered hooks should receive events")
	}

	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testPipelineHooks{}
	SetPipelineHooks(custom)
	SetPipelineHooks(nil)

	if Pipeline() != PipelineHooks(custom) {
		t.Error("SetPipelineHooks(nil) should keep the previous hooks")
	}

	SetCacheHooks(nil)
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("SetCacheHooks(nil) should keep the no-op default")
	}

	Reset()
}
