package server

import (
	"container/heap"
	"time"
)

// task 延迟执行的房间任务，every 非零时重复执行
type task struct {
	at    time.Time
	every time.Duration
	name  string
	fn    func(now time.Time)
	seq   uint64
	index int
}

type taskQueue []*task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].at.Equal(q[j].at) {
		return q[i].seq < q[j].seq
	}
	return q[i].at.Before(q[j].at)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x any) {
	t := x.(*task)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}

// Scheduler 按到期时间排序的任务队列，由房间协程消费（非并发安全）
type Scheduler struct {
	q       taskQueue
	seq     uint64
	stopped bool
}

func NewScheduler() *Scheduler { return &Scheduler{} }

// At 在首次 now >= at 的 RunDue 中执行一次 fn
func (s *Scheduler) At(at time.Time, name string, fn func(now time.Time)) {
	s.push(&task{at: at, name: name, fn: fn})
}

// Every 从 start 开始每隔 every 执行一次 fn
func (s *Scheduler) Every(start time.Time, every time.Duration, name string, fn func(now time.Time)) {
	if every <= 0 {
		return
	}
	s.push(&task{at: start, every: every, name: name, fn: fn})
}

func (s *Scheduler) push(t *task) {
	if s.stopped {
		return
	}
	s.seq++
	t.seq = s.seq
	heap.Push(&s.q, t)
}

// RunDue 按到期顺序取出所有已到期任务交给 run
// 执行中新排入且已到期的任务在同一轮执行
// 重复任务在 run 之前重新排期，每轮最多触发一次
func (s *Scheduler) RunDue(now time.Time, run func(name string, fn func())) int {
	n := 0
	var repeats []*task
	for !s.stopped && s.q.Len() > 0 && !s.q[0].at.After(now) {
		t := heap.Pop(&s.q).(*task)
		if t.every > 0 {
			next := t.at.Add(t.every)
			if !next.After(now) {
				next = now.Add(t.every)
			}
			t.at = next
			repeats = append(repeats, t)
		}
		fn := t.fn
		run(t.name, func() { fn(now) })
		n++
	}
	for _, t := range repeats {
		s.push(t)
	}
	return n
}

// Stop 丢弃所有待执行任务，之后的 At/Every 调用被忽略
func (s *Scheduler) Stop() {
	s.stopped = true
	s.q = nil
}

func (s *Scheduler) Len() int { return s.q.Len() }

// Next 返回最早的到期时间
func (s *Scheduler) Next() (time.Time, bool) {
	if s.q.Len() == 0 {
		return time.Time{}, false
	}
	return s.q[0].at, true
}
