package server

import (
	"reflect"
	"testing"
	"time"
)

func runAll(s *Scheduler, now time.Time) {
	s.RunDue(now, func(_ string, fn func()) { fn() })
}

func TestSchedulerRunsInDeadlineOrder(t *testing.T) {
	base := time.Unix(1000, 0)
	s := NewScheduler()
	var got []string
	add := func(name string, d time.Duration) {
		s.At(base.Add(d), name, func(time.Time) { got = append(got, name) })
	}
	add("c", 3*time.Second)
	add("a", time.Second)
	add("b", 2*time.Second)
	add("a2", time.Second)

	runAll(s, base.Add(2*time.Second))
	if want := []string{"a", "a2", "b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("ran %v, want %v", got, want)
	}
	if s.Len() != 1 {
		t.Fatalf("pending = %d", s.Len())
	}
	next, ok := s.Next()
	if !ok || !next.Equal(base.Add(3*time.Second)) {
		t.Fatalf("next = %v %v", next, ok)
	}
}

func TestSchedulerRepeats(t *testing.T) {
	base := time.Unix(1000, 0)
	s := NewScheduler()
	runs := 0
	s.Every(base.Add(10*time.Second), 10*time.Second, "topUp", func(time.Time) { runs++ })

	runAll(s, base.Add(9*time.Second))
	if runs != 0 {
		t.Fatalf("ran early")
	}
	runAll(s, base.Add(10*time.Second))
	runAll(s, base.Add(20*time.Second))
	if runs != 2 {
		t.Fatalf("runs = %d, want 2", runs)
	}
	// 长时间卡顿只触发一次，不为每个错过的周期补触发
	runAll(s, base.Add(95*time.Second))
	if runs != 3 {
		t.Fatalf("runs after stall = %d, want 3", runs)
	}
	next, _ := s.Next()
	if !next.Equal(base.Add(105 * time.Second)) {
		t.Fatalf("next = %v", next.Sub(base))
	}
}

func TestSchedulerTaskCanScheduleDueWork(t *testing.T) {
	base := time.Unix(1000, 0)
	s := NewScheduler()
	var got []string
	s.At(base, "first", func(now time.Time) {
		got = append(got, "first")
		s.At(now, "chained", func(time.Time) { got = append(got, "chained") })
	})
	runAll(s, base)
	if want := []string{"first", "chained"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("ran %v", got)
	}
}

func TestSchedulerStop(t *testing.T) {
	base := time.Unix(1000, 0)
	s := NewScheduler()
	ran := false
	s.At(base, "x", func(time.Time) { ran = true })
	s.Stop()
	s.At(base, "y", func(time.Time) { ran = true })
	runAll(s, base.Add(time.Hour))
	if ran || s.Len() != 0 {
		t.Fatalf("stopped scheduler ran tasks")
	}
}

func TestSessionRegistry(t *testing.T) {
	s := NewSessionRegistry()
	s.Bind("u1", "c1")
	s.Bind("u2", "c2")
	s.Bind("u1", "c3")
	if id, _ := s.Lookup("u1"); id != "c3" {
		t.Fatalf("u1 -> %q", id)
	}
	s.Release("c1")
	if _, ok := s.Lookup("u1"); !ok {
		t.Fatalf("releasing a stale connection dropped the live binding")
	}
	s.Release("c3")
	if _, ok := s.Lookup("u1"); ok {
		t.Fatalf("binding survived release")
	}
	stale := s.Sweep(func(id string) bool { return id != "c2" })
	if !reflect.DeepEqual(stale, []string{"u2"}) || s.Len() != 0 {
		t.Fatalf("sweep = %v len %d", stale, s.Len())
	}
}
