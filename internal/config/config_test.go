package config

import (
	"testing"
	"time"
)

func TestSettersClamp(t *testing.T) {
	defer SetViewDistance(GetViewDistance())
	defer SetLodCacheCapacity(GetLodCacheCapacity())
	defer SetTickBudget(GetTickBudget())

	SetViewDistance(0)
	if GetViewDistance() != 1 {
		t.Fatalf("view distance = %d, want clamped to 1", GetViewDistance())
	}
	SetViewDistance(1000)
	if GetViewDistance() != 64 {
		t.Fatalf("view distance = %d, want clamped to 64", GetViewDistance())
	}
	if GetChunkLoadRadius() != 65 || GetChunkEvictRadius() != 128 {
		t.Fatalf("radii %d/%d do not follow view distance", GetChunkLoadRadius(), GetChunkEvictRadius())
	}

	SetLodCacheCapacity(0)
	if GetLodCacheCapacity() != 1 {
		t.Fatalf("cache capacity = %d, want 1", GetLodCacheCapacity())
	}

	SetTickBudget(time.Hour)
	if GetTickBudget() != 100*time.Millisecond {
		t.Fatalf("tick budget = %v, want 100ms", GetTickBudget())
	}
}

func TestDefaults(t *testing.T) {
	if GetLodCacheCapacity() != 2 {
		t.Fatalf("default cache capacity = %d, want 2", GetLodCacheCapacity())
	}
	if GetTickBudget() != time.Second/120 {
		t.Fatalf("default tick budget = %v", GetTickBudget())
	}
	if GetWorkers() < 1 {
		t.Fatalf("workers = %d", GetWorkers())
	}
}
