package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/saviobatista/fuelbal/internal/types"
)

// Key names under which the tracker state lives. Values never expire.
const (
	KeyFlightState    = "fuelbal:flight_state"
	KeyCurrentTrip    = "fuelbal:current_trip"
	KeyAircraft       = "fuelbal:aircraft"
	KeyArchivedTrips  = "fuelbal:archived_trips"
	KeyOpenLegs       = "fuelbal:open_legs"
	KeyOpenFuelStops  = "fuelbal:open_fuel_stops"
	KeyCustomAircraft = "fuelbal:custom_aircraft"
)

// RedisClientInterface defines the Redis operations used by our client
type RedisClientInterface interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// Client manages Redis connections and operations
type Client struct {
	client RedisClientInterface
}

// New creates a new Redis client
func New(addr string) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // no password set
		DB:       0,  // use default DB
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{client: client}, nil
}

// NewWithClient creates a new Redis client with a custom RedisClientInterface (useful for testing)
func NewWithClient(client RedisClientInterface) *Client {
	return &Client{client: client}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}

// setData marshals value under key, or deletes the key when isNil is set
func (c *Client) setData(ctx context.Context, key string, value interface{}, isNil bool, dataType string) error {
	if isNil {
		if err := c.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to delete %s data: %w", dataType, err)
		}
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s data: %w", dataType, err)
	}
	if err := c.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store %s data: %w", dataType, err)
	}
	return nil
}

// getData retrieves data from Redis and unmarshals it into the target
func (c *Client) getData(ctx context.Context, key string, target interface{}, dataType string) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return types.ErrNoSavedState
	}
	if err != nil {
		return fmt.Errorf("failed to get %s data: %w", dataType, err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to unmarshal %s data: %w: %v", dataType, types.ErrCorruptState, err)
	}

	return nil
}

// SaveFlightState stores the live flight, removing it when state is nil
func (c *Client) SaveFlightState(ctx context.Context, state *types.FlightState) error {
	return c.setData(ctx, KeyFlightState, state, state == nil, "flight state")
}

// LoadFlightState retrieves the live flight
func (c *Client) LoadFlightState(ctx context.Context) (*types.FlightState, error) {
	var state types.FlightState
	if err := c.getData(ctx, KeyFlightState, &state, "flight state"); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) SaveCurrentTrip(ctx context.Context, trip *types.Trip) error {
	return c.setData(ctx, KeyCurrentTrip, trip, trip == nil, "current trip")
}

func (c *Client) LoadCurrentTrip(ctx context.Context) (*types.Trip, error) {
	var trip types.Trip
	if err := c.getData(ctx, KeyCurrentTrip, &trip, "current trip"); err != nil {
		return nil, err
	}
	return &trip, nil
}

// SaveAircraft stores the aircraft selected for the live flight
func (c *Client) SaveAircraft(ctx context.Context, aircraft *types.Aircraft) error {
	return c.setData(ctx, KeyAircraft, aircraft, aircraft == nil, "aircraft")
}

func (c *Client) LoadAircraft(ctx context.Context) (*types.Aircraft, error) {
	var aircraft types.Aircraft
	if err := c.getData(ctx, KeyAircraft, &aircraft, "aircraft"); err != nil {
		return nil, err
	}
	return &aircraft, nil
}

func (c *Client) SaveArchivedTrips(ctx context.Context, trips []types.Trip) error {
	return c.setData(ctx, KeyArchivedTrips, trips, trips == nil, "archived trips")
}

func (c *Client) LoadArchivedTrips(ctx context.Context) ([]types.Trip, error) {
	var trips []types.Trip
	if err := c.getData(ctx, KeyArchivedTrips, &trips, "archived trips"); err != nil {
		return nil, err
	}
	return trips, nil
}

// SaveOpenLegs stores the legs not yet assembled into a trip
func (c *Client) SaveOpenLegs(ctx context.Context, legs []types.FlightLeg) error {
	return c.setData(ctx, KeyOpenLegs, legs, legs == nil, "open legs")
}

func (c *Client) LoadOpenLegs(ctx context.Context) ([]types.FlightLeg, error) {
	var legs []types.FlightLeg
	if err := c.getData(ctx, KeyOpenLegs, &legs, "open legs"); err != nil {
		return nil, err
	}
	return legs, nil
}

// SaveOpenFuelStops stores the fuel stops not yet assembled into a trip
func (c *Client) SaveOpenFuelStops(ctx context.Context, stops []types.FuelStop) error {
	return c.setData(ctx, KeyOpenFuelStops, stops, stops == nil, "open fuel stops")
}

func (c *Client) LoadOpenFuelStops(ctx context.Context) ([]types.FuelStop, error) {
	var stops []types.FuelStop
	if err := c.getData(ctx, KeyOpenFuelStops, &stops, "open fuel stops"); err != nil {
		return nil, err
	}
	return stops, nil
}

// SaveCustomAircraft stores the user-defined aircraft list
func (c *Client) SaveCustomAircraft(ctx context.Context, aircraft []types.Aircraft) error {
	return c.setData(ctx, KeyCustomAircraft, aircraft, aircraft == nil, "custom aircraft")
}

func (c *Client) LoadCustomAircraft(ctx context.Context) ([]types.Aircraft, error) {
	var aircraft []types.Aircraft
	if err := c.getData(ctx, KeyCustomAircraft, &aircraft, "custom aircraft"); err != nil {
		return nil, err
	}
	return aircraft, nil
}
