package runner

import (
	"testing"
	"time"
)

func TestRegistrySerializesRuns(t *testing.T) {
	r := NewRegistry()

	if err := r.Begin(); err != nil {
		t.Fatalf("首次 Begin 失败: %v", err)
	}
	if err := r.Begin(); err != ErrRunInProgress {
		t.Fatalf("并发 Begin 应被拒绝, 实际 %v", err)
	}
	if !r.Running() {
		t.Error("Running 应为真")
	}

	res := &Result{ID: "run-1", StartedAt: time.Now()}
	r.Complete(res)

	if r.Running() {
		t.Error("Complete 后应释放执行权")
	}
	if err := r.Begin(); err != nil {
		t.Errorf("释放后应可再次 Begin: %v", err)
	}
	r.Fail(ErrRunInProgress)
	if r.Running() {
		t.Error("Fail 后应释放执行权")
	}
	if r.LastError() == nil {
		t.Error("失败后应记下错误")
	}
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Latest(); ok {
		t.Error("空登记表不应有最近结果")
	}

	_ = r.Begin()
	r.Complete(&Result{ID: "run-1"})
	_ = r.Begin()
	r.Complete(&Result{ID: "run-2"})

	if res, ok := r.Get("run-1"); !ok || res.ID != "run-1" {
		t.Errorf("Get run-1 = %v, %v", res, ok)
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("不存在的 ID 不应命中")
	}
	latest, ok := r.Latest()
	if !ok || latest.ID != "run-2" {
		t.Errorf("Latest = %v", latest)
	}
}
