package cache

import "testing"

func TestTableGetOrCreate(t *testing.T) {
	tab := New[int]()
	created := 0
	create := func() int { created++; return 42 }

	if v := tab.GetOrCreate(7, create); v != 42 {
		t.Fatalf("GetOrCreate() = %d, want 42", v)
	}
	if v := tab.GetOrCreate(7, create); v != 42 {
		t.Fatalf("GetOrCreate() = %d, want 42", v)
	}
	if created != 1 {
		t.Errorf("create called %d times, want 1", created)
	}

	s := tab.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Len != 1 {
		t.Errorf("Stats() = %+v, want 1 hit, 1 miss, len 1", s)
	}
	if got := s.HitRate(); got != 0.5 {
		t.Errorf("HitRate() = %v, want 0.5", got)
	}
}

func TestTableInsertionOrder(t *testing.T) {
	tab := New[string]()
	tab.Put(30, "c")
	tab.Put(10, "a")
	tab.Put(20, "b")
	tab.Put(10, "a2")

	var got []string
	tab.Each(func(_ uint64, v string) { got = append(got, v) })
	want := []string{"c", "a2", "b"}
	if len(got) != len(want) {
		t.Fatalf("Each visited %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Each[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTableDelete(t *testing.T) {
	tab := New[int]()
	for k := uint64(1); k <= 4; k++ {
		tab.Put(k, int(k*10))
	}

	if v, ok := tab.Delete(2); !ok || v != 20 {
		t.Fatalf("Delete(2) = %d, %v, want 20, true", v, ok)
	}
	if _, ok := tab.Delete(2); ok {
		t.Error("second Delete(2) reported found")
	}
	if v, ok := tab.Peek(4); !ok || v != 40 {
		t.Errorf("Peek(4) = %d, %v after delete, want 40, true", v, ok)
	}
	if tab.Len() != 3 {
		t.Errorf("Len() = %d, want 3", tab.Len())
	}
}

func TestTableResetDestroysAll(t *testing.T) {
	tab := New[int]()
	tab.Put(1, 1)
	tab.Put(2, 2)
	tab.Get(1)

	var destroyed []int
	tab.Reset(func(v int) { destroyed = append(destroyed, v) })

	if len(destroyed) != 2 {
		t.Errorf("destroyed %v, want two entries", destroyed)
	}
	if tab.Len() != 0 {
		t.Errorf("Len() = %d after Reset, want 0", tab.Len())
	}
	if _, ok := tab.Peek(1); ok {
		t.Error("Peek(1) found an entry after Reset")
	}
	if tab.Stats().Hits != 1 {
		t.Errorf("Reset cleared statistics: %+v", tab.Stats())
	}
}

func TestHasherDistinguishesFields(t *testing.T) {
	sum := func(fn func(h *Hasher)) uint64 {
		var h Hasher
		h.Reset()
		fn(&h)
		return h.Sum()
	}

	a := sum(func(h *Hasher) { h.Uint32(1); h.Uint32(2) })
	b := sum(func(h *Hasher) { h.Uint32(2); h.Uint32(1) })
	c := sum(func(h *Hasher) { h.Uint32(1); h.Uint32(2) })
	if a == b {
		t.Error("hash ignores field order")
	}
	if a != c {
		t.Error("hash is not deterministic")
	}

	s1 := sum(func(h *Hasher) { h.String("ab"); h.String("c") })
	s2 := sum(func(h *Hasher) { h.String("a"); h.String("bc") })
	if s1 == s2 {
		t.Error("string fields are not length-delimited")
	}
}

func BenchmarkTableGet(b *testing.B) {
	tab := New[int]()
	for k := uint64(0); k < 100; k++ {
		tab.Put(k, int(k))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tab.Get(50)
	}
}

func BenchmarkHasher(b *testing.B) {
	var h Hasher
	for i := 0; i < b.N; i++ {
		h.Reset()
		h.Uint32(5)
		h.Uint32(1)
		h.Uint32(6)
		_ = h.Sum()
	}
}
