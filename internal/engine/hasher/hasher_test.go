package hasher

import "testing"

func TestSumDeterministic(t *testing.T) {
	h1 := New(16)
	h2 := New(16)
	words := []string{"cat", "dog", "κόσμος", "123", ""}
	for _, w := range words {
		if h1.Sum(w) != h2.Sum(w) {
			t.Errorf("Sum(%q) differs across instances", w)
		}
		if h1.Sum(w) != h1.Sum(w) {
			t.Errorf("Sum(%q) differs across calls", w)
		}
	}
}

func TestPartitionRange(t *testing.T) {
	for _, n := range []int{1, 2, 16, 127} {
		h := New(n)
		for _, w := range []string{"alpha", "beta", "gamma", "delta", "epsilon"} {
			id := h.Partition(h.Sum(w))
			if id < 0 || id >= n {
				t.Errorf("Partition(%q) = %d, want in [0, %d)", w, id, n)
			}
		}
	}
}

func TestPartitionStable(t *testing.T) {
	h := New(8)
	key := h.Sum("stable")
	first := h.Partition(key)
	for i := 0; i < 100; i++ {
		if got := h.Partition(key); got != first {
			t.Fatalf("Partition flapped: %d then %d", first, got)
		}
	}
}

func TestSumAllPreservesOrderAndDuplicates(t *testing.T) {
	h := New(4)
	words := []string{"the", "cat", "the"}
	keys := h.SumAll(words)
	if len(keys) != 3 {
		t.Fatalf("SumAll returned %d keys, want 3", len(keys))
	}
	if keys[0] != keys[2] {
		t.Error("duplicate word hashed to different keys")
	}
	if keys[0] != h.Sum("the") || keys[1] != h.Sum("cat") {
		t.Error("SumAll disagrees with Sum")
	}
}

func TestNewPanicsOnZeroPartitions(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("New(0) did not panic")
		}
	}()
	New(0)
}
