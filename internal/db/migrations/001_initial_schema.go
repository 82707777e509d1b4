package migrations

import "time"

// InitialSchema creates the trip archive tables
var InitialSchema = &Migration{
	ID:   "001_initial_schema",
	Name: "001_initial_schema",
	UpSQL: `
		-- Archived trips
		CREATE TABLE IF NOT EXISTS trips (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			start_date TIMESTAMPTZ NOT NULL,
			end_date TIMESTAMPTZ,
			archived BOOLEAN NOT NULL DEFAULT TRUE
		);

		CREATE INDEX IF NOT EXISTS idx_trips_start_date ON trips (start_date);

		-- Legs of an archived trip; tank vectors are in lTip, lMain, rMain, rTip order
		CREATE TABLE IF NOT EXISTS flight_legs (
			id TEXT PRIMARY KEY,
			trip_id TEXT NOT NULL REFERENCES trips (id) ON DELETE CASCADE,
			leg_number INTEGER NOT NULL,
			preset TEXT NOT NULL,
			aircraft_id TEXT NOT NULL DEFAULT '',
			start_time TIMESTAMPTZ NOT NULL,
			end_time TIMESTAMPTZ,
			starting_fuel DOUBLE PRECISION[] NOT NULL,
			ending_fuel DOUBLE PRECISION[] NOT NULL,
			end_tank TEXT NOT NULL,
			end_phase TEXT NOT NULL DEFAULT '',
			end_mode TEXT NOT NULL DEFAULT '',
			engine_time_ms BIGINT NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_flight_legs_trip_id ON flight_legs (trip_id);

		-- Swap log lines of a leg
		CREATE TABLE IF NOT EXISTS swap_entries (
			id TEXT PRIMARY KEY,
			leg_id TEXT NOT NULL REFERENCES flight_legs (id) ON DELETE CASCADE,
			swap_number INTEGER NOT NULL,
			tank TEXT NOT NULL,
			totalizer DOUBLE PRECISION NOT NULL,
			burned DOUBLE PRECISION NOT NULL,
			elapsed_ms BIGINT NOT NULL,
			shutdown BOOLEAN NOT NULL DEFAULT FALSE
		);

		CREATE INDEX IF NOT EXISTS idx_swap_entries_leg_id ON swap_entries (leg_id);

		-- Refuels and rest stops
		CREATE TABLE IF NOT EXISTS fuel_stops (
			id TEXT PRIMARY KEY,
			trip_id TEXT NOT NULL REFERENCES trips (id) ON DELETE CASCADE,
			leg_id TEXT NOT NULL DEFAULT '',
			timestamp TIMESTAMPTZ NOT NULL,
			fuel_added DOUBLE PRECISION[] NOT NULL,
			price_per_gallon DOUBLE PRECISION,
			total_cost DOUBLE PRECISION,
			misc_cost DOUBLE PRECISION,
			location TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			post_fuel_levels DOUBLE PRECISION[]
		);

		CREATE INDEX IF NOT EXISTS idx_fuel_stops_trip_id ON fuel_stops (trip_id);

		-- Tracker counters
		CREATE TABLE IF NOT EXISTS session_stats (
			time TIMESTAMPTZ NOT NULL,
			swaps_logged BIGINT NOT NULL,
			swaps_undone BIGINT NOT NULL,
			rejected_readings BIGINT NOT NULL,
			legs_started BIGINT NOT NULL,
			legs_completed BIGINT NOT NULL,
			fuel_stops BIGINT NOT NULL,
			rest_stops BIGINT NOT NULL,
			trips_archived BIGINT NOT NULL,
			gph_observations BIGINT NOT NULL,
			persist_failures BIGINT NOT NULL,
			uptime_seconds BIGINT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_session_stats_time ON session_stats (time);
	`,
	DownSQL: `
		DROP TABLE IF EXISTS session_stats;
		DROP TABLE IF EXISTS fuel_stops;
		DROP TABLE IF EXISTS swap_entries;
		DROP TABLE IF EXISTS flight_legs;
		DROP TABLE IF EXISTS trips;
	`,
	CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
}
