package cache

import "testing"

func TestLRU_EvictsLeastRecent(t *testing.T) {
	c := New[string, int](2)
	c.Add("a", 1)
	c.Add("b", 2)
	if _, ok := c.Get("a"); !ok { // a becomes MRU
		t.Fatal("a missing")
	}
	c.Add("c", 3) // evicts b

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("a = %d, %v", v, ok)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d", c.Len())
	}

	c.Add("a", 10)
	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("update lost: %d", v)
	}

	c.Purge()
	if c.Len() != 0 {
		t.Error("Purge left entries")
	}
}
