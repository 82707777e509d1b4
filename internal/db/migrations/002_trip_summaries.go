package migrations

import "time"

// TripSummaries adds per-trip totals used by reports
var TripSummaries = &Migration{
	ID:   "002_trip_summaries",
	Name: "002_trip_summaries",
	UpSQL: `
	-- Fuel burned per trip
	CREATE OR REPLACE VIEW trip_fuel_burned AS
	SELECT
		l.trip_id,
		COUNT(DISTINCT l.id) AS leg_count,
		COALESCE(SUM(s.burned), 0) AS total_burned
	FROM flight_legs l
	LEFT JOIN swap_entries s ON s.leg_id = l.id
	GROUP BY l.trip_id;

	-- Fuel cost per trip
	CREATE OR REPLACE VIEW trip_fuel_cost AS
	SELECT
		trip_id,
		COUNT(*) AS stop_count,
		SUM(COALESCE(total_cost, 0) + COALESCE(misc_cost, 0)) AS total_cost
	FROM fuel_stops
	GROUP BY trip_id;

	-- Prune counter snapshots older than 90 days
	CREATE INDEX IF NOT EXISTS idx_session_stats_time_desc ON session_stats (time DESC);
	DELETE FROM session_stats WHERE time < NOW() - INTERVAL '90 days';
	`,
	DownSQL: `
	DROP INDEX IF EXISTS idx_session_stats_time_desc;
	DROP VIEW IF EXISTS trip_fuel_cost;
	DROP VIEW IF EXISTS trip_fuel_burned;
	`,
	CreatedAt: time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
}
