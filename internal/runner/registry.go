package runner

import (
	"errors"
	"sync"
)

// ErrRunInProgress 已有报表任务在执行
var ErrRunInProgress = errors.New("a report run is already in progress")

// Registry 运行结果登记表，内存保存，进程重启即清空
// 同一时刻最多允许一个任务在执行，串行化由这里负责
type Registry struct {
	mu      sync.Mutex
	runs    map[string]*Result
	order   []string
	running bool
	lastErr error
}

// NewRegistry 创建空登记表
func NewRegistry() *Registry {
	return &Registry{runs: make(map[string]*Result)}
}

// Begin 声明开始一次运行，已有任务在跑时拒绝
func (r *Registry) Begin() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return ErrRunInProgress
	}
	r.running = true
	return nil
}

// Complete 登记运行结果并释放执行权
// 结果登记后不可变，查询方只读
func (r *Registry) Complete(res *Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	r.lastErr = nil
	if res != nil {
		r.runs[res.ID] = res
		r.order = append(r.order, res.ID)
	}
}

// Fail 运行失败且无结果可登记时释放执行权并记下错误
func (r *Registry) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	r.lastErr = err
}

// LastError 最近一次失败运行的错误，成功后清空
func (r *Registry) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Running 是否有任务在执行
func (r *Registry) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Get 按运行 ID 查结果
func (r *Registry) Get(id string) (*Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.runs[id]
	return res, ok
}

// Latest 最近一次完成的运行
func (r *Registry) Latest() (*Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.order) == 0 {
		return nil, false
	}
	return r.runs[r.order[len(r.order)-1]], true
}
