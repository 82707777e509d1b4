package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	rediscontainer "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saviobatista/fuelbal/internal/types"
)

func TestClient_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := rediscontainer.Run(ctx, "redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections"),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate Redis container: %v", err)
		}
	}()

	addr, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client, err := New(addr)
	if err != nil {
		t.Fatalf("Failed to create Redis client: %v", err)
	}
	defer client.Close()

	if _, err := client.LoadFlightState(ctx); !errors.Is(err, types.ErrNoSavedState) {
		t.Fatalf("Expected ErrNoSavedState on empty Redis, got %v", err)
	}

	state := &types.FlightState{Flying: true, Preset: types.PresetTabs, CurrentTank: types.LMain, Phase: types.PhaseMains}
	if err := client.SaveFlightState(ctx, state); err != nil {
		t.Fatalf("SaveFlightState() failed: %v", err)
	}
	loaded, err := client.LoadFlightState(ctx)
	if err != nil {
		t.Fatalf("LoadFlightState() failed: %v", err)
	}
	if loaded.Preset != types.PresetTabs || !loaded.Flying {
		t.Errorf("Loaded state mismatch: %+v", loaded)
	}

	if err := client.SaveFlightState(ctx, nil); err != nil {
		t.Fatalf("SaveFlightState(nil) failed: %v", err)
	}
	if _, err := client.LoadFlightState(ctx); !errors.Is(err, types.ErrNoSavedState) {
		t.Errorf("Expected ErrNoSavedState after delete, got %v", err)
	}
}
