package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/saviobatista/fuelbal/internal/types"
)

// ErrTripNotFound is returned when no archived trip has the requested id
var ErrTripNotFound = errors.New("archived trip not found")

type Client struct {
	db *sql.DB
}

// New creates a new database client
func New(connStr string) (*Client, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	return &Client{db: db}, nil
}

// NewWithDB wraps an open database handle
func NewWithDB(db *sql.DB) *Client {
	return &Client{db: db}
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

// Ping checks that the database is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// tankArray encodes quantities in tank order
func tankArray(q types.TankQuantities) interface{} {
	v := q[:]
	return pq.Array(v)
}

func quantities(a []float64) types.TankQuantities {
	var q types.TankQuantities
	copy(q[:], a)
	return q
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func nullFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	v := n.Time
	return &v
}

// ArchiveTrip writes a closed trip with its legs, swaps and fuel stops.
// Archiving the same trip again replaces its rows.
func (c *Client) ArchiveTrip(ctx context.Context, trip *types.Trip) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM trips WHERE id = $1`, trip.ID); err != nil {
		return fmt.Errorf("failed to clear trip %s: %w", trip.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO trips (id, name, start_date, end_date, archived)
		VALUES ($1, $2, $3, $4, $5)
	`, trip.ID, trip.Name, trip.StartDate, nullTime(trip.EndDate), trip.Archived)
	if err != nil {
		return fmt.Errorf("failed to insert trip %s: %w", trip.ID, err)
	}

	for i := range trip.Legs {
		if err := insertLeg(ctx, tx, trip.ID, &trip.Legs[i]); err != nil {
			return err
		}
	}

	for i := range trip.FuelStops {
		if err := insertStop(ctx, tx, trip.ID, &trip.FuelStops[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trip %s: %w", trip.ID, err)
	}
	return nil
}

func insertLeg(ctx context.Context, tx *sql.Tx, tripID string, leg *types.FlightLeg) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO flight_legs (
			id, trip_id, leg_number, preset, aircraft_id, start_time, end_time,
			starting_fuel, ending_fuel, end_tank, end_phase, end_mode, engine_time_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		leg.ID, tripID, leg.LegNumber, string(leg.Preset), leg.AircraftID,
		leg.StartTime, nullTime(leg.EndTime),
		tankArray(leg.StartingFuel), tankArray(leg.EndingFuel),
		leg.EndTank.Key(), string(leg.EndPhase), string(leg.EndMode),
		leg.EngineTime.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert leg %s: %w", leg.ID, err)
	}

	for _, e := range leg.SwapLog {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO swap_entries (
				id, leg_id, swap_number, tank, totalizer, burned, elapsed_ms, shutdown
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, e.ID, leg.ID, e.Number, e.Tank.Key(), e.Totalizer, e.Burned, e.Elapsed.Milliseconds(), e.Shutdown)
		if err != nil {
			return fmt.Errorf("failed to insert swap %s: %w", e.ID, err)
		}
	}
	return nil
}

func insertStop(ctx context.Context, tx *sql.Tx, tripID string, stop *types.FuelStop) error {
	var post interface{}
	if stop.PostFuelLevels != nil {
		post = tankArray(*stop.PostFuelLevels)
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO fuel_stops (
			id, trip_id, leg_id, timestamp, fuel_added, price_per_gallon,
			total_cost, misc_cost, location, notes, post_fuel_levels
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		stop.ID, tripID, stop.LegID, stop.Timestamp, tankArray(stop.FuelAdded),
		nullFloat(stop.PricePerGallon), nullFloat(stop.TotalCost), nullFloat(stop.MiscCost),
		stop.Location, stop.Notes, post,
	)
	if err != nil {
		return fmt.Errorf("failed to insert fuel stop %s: %w", stop.ID, err)
	}
	return nil
}

// GetTrips lists archived trip headers, newest first. Legs and stops are
// not loaded.
func (c *Client) GetTrips(ctx context.Context, limit int) ([]types.Trip, error) {
	query := `
		SELECT id, name, start_date, end_date, archived
		FROM trips
		ORDER BY start_date DESC
		LIMIT $1
	`
	rows, err := c.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	var trips []types.Trip
	for rows.Next() {
		var (
			t   types.Trip
			end sql.NullTime
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.StartDate, &end, &t.Archived); err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		t.EndDate = timePtr(end)
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

// GetTrip loads one archived trip with its legs, swaps and fuel stops
func (c *Client) GetTrip(ctx context.Context, id string) (*types.Trip, error) {
	var (
		trip types.Trip
		end  sql.NullTime
	)
	err := c.db.QueryRowContext(ctx, `
		SELECT id, name, start_date, end_date, archived
		FROM trips
		WHERE id = $1
	`, id).Scan(&trip.ID, &trip.Name, &trip.StartDate, &end, &trip.Archived)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTripNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip %s: %w", id, err)
	}
	trip.EndDate = timePtr(end)

	if trip.Legs, err = c.getLegs(ctx, id); err != nil {
		return nil, err
	}
	if err := c.attachSwaps(ctx, id, trip.Legs); err != nil {
		return nil, err
	}
	if trip.FuelStops, err = c.getStops(ctx, id); err != nil {
		return nil, err
	}
	return &trip, nil
}

func (c *Client) getLegs(ctx context.Context, tripID string) ([]types.FlightLeg, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, leg_number, preset, aircraft_id, start_time, end_time,
			starting_fuel, ending_fuel, end_tank, end_phase, end_mode, engine_time_ms
		FROM flight_legs
		WHERE trip_id = $1
		ORDER BY leg_number
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to query legs: %w", err)
	}
	defer rows.Close()

	var legs []types.FlightLeg
	for rows.Next() {
		var (
			leg          types.FlightLeg
			preset       string
			end          sql.NullTime
			starting     []float64
			ending       []float64
			endTank      string
			endPhase     string
			endMode      string
			engineTimeMs int64
		)
		if err := rows.Scan(
			&leg.ID, &leg.LegNumber, &preset, &leg.AircraftID, &leg.StartTime, &end,
			pq.Array(&starting), pq.Array(&ending), &endTank, &endPhase, &endMode, &engineTimeMs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan leg: %w", err)
		}
		tank, err := types.ParseTank(endTank)
		if err != nil {
			return nil, fmt.Errorf("failed to decode leg %s: %w", leg.ID, err)
		}
		leg.Preset = types.Preset(preset)
		leg.EndTime = timePtr(end)
		leg.StartingFuel = quantities(starting)
		leg.EndingFuel = quantities(ending)
		leg.EndTank = tank
		leg.EndPhase = types.Phase(endPhase)
		leg.EndMode = types.FlightMode(endMode)
		leg.EngineTime = time.Duration(engineTimeMs) * time.Millisecond
		legs = append(legs, leg)
	}
	return legs, rows.Err()
}

func (c *Client) attachSwaps(ctx context.Context, tripID string, legs []types.FlightLeg) error {
	rows, err := c.db.QueryContext(ctx, `
		SELECT s.id, s.leg_id, s.swap_number, s.tank, s.totalizer, s.burned, s.elapsed_ms, s.shutdown
		FROM swap_entries s
		JOIN flight_legs l ON l.id = s.leg_id
		WHERE l.trip_id = $1
		ORDER BY l.leg_number, s.swap_number
	`, tripID)
	if err != nil {
		return fmt.Errorf("failed to query swaps: %w", err)
	}
	defer rows.Close()

	byLeg := make(map[string]int, len(legs))
	for i := range legs {
		byLeg[legs[i].ID] = i
	}
	for rows.Next() {
		var (
			e         types.SwapEntry
			legID     string
			tank      string
			elapsedMs int64
		)
		if err := rows.Scan(&e.ID, &legID, &e.Number, &tank, &e.Totalizer, &e.Burned, &elapsedMs, &e.Shutdown); err != nil {
			return fmt.Errorf("failed to scan swap: %w", err)
		}
		if e.Tank, err = types.ParseTank(tank); err != nil {
			return fmt.Errorf("failed to decode swap %s: %w", e.ID, err)
		}
		e.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		if i, ok := byLeg[legID]; ok {
			legs[i].SwapLog = append(legs[i].SwapLog, e)
		}
	}
	return rows.Err()
}

func (c *Client) getStops(ctx context.Context, tripID string) ([]types.FuelStop, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, leg_id, timestamp, fuel_added, price_per_gallon,
			total_cost, misc_cost, location, notes, post_fuel_levels
		FROM fuel_stops
		WHERE trip_id = $1
		ORDER BY timestamp
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fuel stops: %w", err)
	}
	defer rows.Close()

	var stops []types.FuelStop
	for rows.Next() {
		var (
			s                  types.FuelStop
			added              []float64
			price, total, misc sql.NullFloat64
			post               pq.Float64Array
		)
		if err := rows.Scan(
			&s.ID, &s.LegID, &s.Timestamp, pq.Array(&added), &price,
			&total, &misc, &s.Location, &s.Notes, &post,
		); err != nil {
			return nil, fmt.Errorf("failed to scan fuel stop: %w", err)
		}
		s.FuelAdded = quantities(added)
		s.PricePerGallon = floatPtr(price)
		s.TotalCost = floatPtr(total)
		s.MiscCost = floatPtr(misc)
		if post != nil {
			q := quantities(post)
			s.PostFuelLevels = &q
		}
		stops = append(stops, s)
	}
	return stops, rows.Err()
}

func counter(stats map[string]interface{}, key string) int64 {
	switch v := stats[key].(type) {
	case uint64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}

// StoreSessionStats stores a snapshot of the tracker counters
func (c *Client) StoreSessionStats(stats map[string]interface{}) error {
	query := `
		INSERT INTO session_stats (
			time, swaps_logged, swaps_undone, rejected_readings,
			legs_started, legs_completed, fuel_stops, rest_stops,
			trips_archived, gph_observations, persist_failures, uptime_seconds
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	`

	var uptime int64
	if d, ok := stats["uptime"].(time.Duration); ok {
		uptime = int64(d.Seconds())
	}

	_, err := c.db.Exec(query,
		time.Now(),
		counter(stats, "swaps_logged"),
		counter(stats, "swaps_undone"),
		counter(stats, "rejected_readings"),
		counter(stats, "legs_started"),
		counter(stats, "legs_completed"),
		counter(stats, "fuel_stops"),
		counter(stats, "rest_stops"),
		counter(stats, "trips_archived"),
		counter(stats, "gph_observations"),
		counter(stats, "persist_failures"),
		uptime,
	)
	if err != nil {
		return fmt.Errorf("failed to store session stats: %w", err)
	}
	return nil
}

// GetSessionStats retrieves session statistics for a time range
func (c *Client) GetSessionStats(start, end time.Time) ([]map[string]interface{}, error) {
	query := `
		SELECT
			time, swaps_logged, swaps_undone, rejected_readings,
			legs_started, legs_completed, fuel_stops, rest_stops,
			trips_archived, gph_observations, persist_failures, uptime_seconds
		FROM session_stats
		WHERE time BETWEEN $1 AND $2
		ORDER BY time DESC
	`

	rows, err := c.db.Query(query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []map[string]interface{}
	for rows.Next() {
		var (
			timestamp        time.Time
			swapsLogged      int64
			swapsUndone      int64
			rejectedReadings int64
			legsStarted      int64
			legsCompleted    int64
			fuelStops        int64
			restStops        int64
			tripsArchived    int64
			gphObservations  int64
			persistFailures  int64
			uptimeSeconds    int64
		)

		if err := rows.Scan(
			&timestamp,
			&swapsLogged,
			&swapsUndone,
			&rejectedReadings,
			&legsStarted,
			&legsCompleted,
			&fuelStops,
			&restStops,
			&tripsArchived,
			&gphObservations,
			&persistFailures,
			&uptimeSeconds,
		); err != nil {
			return nil, err
		}

		stats = append(stats, map[string]interface{}{
			"time":              timestamp,
			"swaps_logged":      swapsLogged,
			"swaps_undone":      swapsUndone,
			"rejected_readings": rejectedReadings,
			"legs_started":      legsStarted,
			"legs_completed":    legsCompleted,
			"fuel_stops":        fuelStops,
			"rest_stops":        restStops,
			"trips_archived":    tripsArchived,
			"gph_observations":  gphObservations,
			"persist_failures":  persistFailures,
			"uptime_seconds":    uptimeSeconds,
		})
	}

	return stats, rows.Err()
}
