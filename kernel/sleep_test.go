package kernel

import "testing"

func TestSleepSetPopDueOrder(t *testing.T) {
	pool := newTestPool()
	var s sleepSet
	s.reset(pool)

	s.insert(0, 30)
	s.insert(1, 10)
	s.insert(2, 20)
	s.insert(3, 10)

	if id, ok := s.popDue(9); ok {
		t.Fatalf("popDue(9) = %d, want nothing due", id)
	}

	tests := []struct {
		now  uint64
		want []TaskID
	}{
		{now: 10, want: []TaskID{1, 3}},
		{now: 25, want: []TaskID{2}},
		{now: 29, want: nil},
		{now: 100, want: []TaskID{0}},
	}
	for _, tt := range tests {
		var got []TaskID
		for {
			id, ok := s.popDue(tt.now)
			if !ok {
				break
			}
			got = append(got, id)
		}
		if len(got) != len(tt.want) {
			t.Fatalf("popDue(%d) = %v, want %v", tt.now, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("popDue(%d) = %v, want %v", tt.now, got, tt.want)
			}
		}
	}
	if s.len() != 0 {
		t.Fatalf("len() = %d, want 0", s.len())
	}
}

func TestSleepSetRemove(t *testing.T) {
	pool := newTestPool()
	var s sleepSet
	s.reset(pool)

	for i := 0; i < 6; i++ {
		s.insert(TaskID(i), uint64(100-i*10))
	}
	s.remove(3)
	s.remove(3)

	if s.contains(3) {
		t.Fatal("contains(3) = true after remove")
	}
	if next, ok := s.next(); !ok || next != 50 {
		t.Fatalf("next() = %d, %v, want 50, true", next, ok)
	}

	var got []TaskID
	for {
		id, ok := s.popDue(1000)
		if !ok {
			break
		}
		got = append(got, id)
	}
	want := []TaskID{5, 4, 2, 1, 0}
	if len(got) != len(want) {
		t.Fatalf("drained %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("drained %v, want %v", got, want)
		}
	}
}
