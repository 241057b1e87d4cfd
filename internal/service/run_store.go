package service

import (
	"sync"

	"ragus-eval/internal/model"
)

// RunStore 进程内保存评测运行，按创建顺序列出
type RunStore struct {
	mu    sync.RWMutex
	runs  map[string]*model.EvaluationRun
	order []string
}

func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[string]*model.EvaluationRun)}
}

func (s *RunStore) Put(run *model.EvaluationRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; !ok {
		s.order = append(s.order, run.ID)
	}
	s.runs[run.ID] = run
}

func (s *RunStore) Get(id string) (*model.EvaluationRun, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	return run, ok
}

// List 最新的在前
func (s *RunStore) List() []*model.EvaluationRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.EvaluationRun, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.runs[s.order[i]])
	}
	return out
}

func (s *RunStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
