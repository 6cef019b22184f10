package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	j := NoopJobHooks{}
	j.OnJobSubmit(ctx, "pagerank")
	j.OnJobComplete(ctx, "pagerank", time.Second, nil)
	j.OnSuperstep(ctx, "pagerank", 3, time.Millisecond)

	r := NoopRegistryHooks{}
	r.OnGraphSealed(ctx, 1, 100, 400)
	r.OnGraphDropped(ctx, 1)
	r.OnGraphInUse(ctx, 1, 2)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "/v1/pagerank")
	h.OnResponse(ctx, "POST", "/v1/pagerank", 200, time.Second)
	h.OnError(ctx, "POST", "/v1/pagerank", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Job().(NoopJobHooks); !ok {
		t.Error("Job() should return NoopJobHooks by default")
	}
	if _, ok := Registry().(NoopRegistryHooks); !ok {
		t.Error("Registry() should return NoopRegistryHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customJob := &testJobHooks{}
	SetJobHooks(customJob)
	if Job() != customJob {
		t.Error("SetJobHooks should set custom hooks")
	}

	customRegistry := &testRegistryHooks{}
	SetRegistryHooks(customRegistry)
	if Registry() != customRegistry {
		t.Error("SetRegistryHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Job().(NoopJobHooks); !ok {
		t.Error("Reset() should restore NoopJobHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testJobHooks{}
	SetJobHooks(custom)
	SetJobHooks(nil)

	if Job() != custom {
		t.Error("SetJobHooks(nil) should be ignored")
	}

	Reset()
}

type testJobHooks struct{ NoopJobHooks }
type testRegistryHooks struct{ NoopRegistryHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
