package random

import "testing"

func TestNewSeedVaries(t *testing.T) {
	seen := make(map[int64]bool)
	for range 8 {
		seed, err := NewSeed()
		if err != nil {
			t.Fatalf("NewSeed() error = %v", err)
		}
		seen[seed] = true
	}
	if len(seen) < 2 {
		t.Fatal("expected distinct seeds")
	}
}

func TestResolveSeed(t *testing.T) {
	fixed := int64(42)
	seed, generated, err := ResolveSeed(&fixed)
	if err != nil || seed != 42 || generated {
		t.Fatalf("ResolveSeed(&42) = %d, %v, %v", seed, generated, err)
	}
	_, generated, err = ResolveSeed(nil)
	if err != nil || !generated {
		t.Fatalf("ResolveSeed(nil) generated = %v, err = %v", generated, err)
	}
}
