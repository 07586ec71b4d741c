package cache

import "testing"

func TestBuildKeyIsOrderSensitive(t *testing.T) {
	// "cat dog" and "dog cat" are different phrase queries and must never
	// share a cache entry.
	a := buildKey([]string{"cat", "dog"}, 10)
	b := buildKey([]string{"dog", "cat"}, 10)
	if a == b {
		t.Error("reordered words produced the same cache key")
	}
}

func TestBuildKeyIncludesLimit(t *testing.T) {
	a := buildKey([]string{"cat"}, 10)
	b := buildKey([]string{"cat"}, 20)
	if a == b {
		t.Error("different limits produced the same cache key")
	}
}

func TestBuildKeyDeterministic(t *testing.T) {
	a := buildKey([]string{"cat", "dog"}, 10)
	b := buildKey([]string{"cat", "dog"}, 10)
	if a != b {
		t.Errorf("same query produced different keys: %s vs %s", a, b)
	}
}
