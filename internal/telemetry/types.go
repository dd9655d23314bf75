// Telemetry wire types shared by the generator and the swarm dispatcher.
package telemetry

import "time"

// Reading is one telemetry record as accepted by the ingestion service.
// Position fields are only populated when a position provider is configured
// and has produced at least one sample for this satellite.
type Reading struct {
	SatelliteID string `json:"satellite_id"`
	Timestamp   string `json:"timestamp"`

	BatteryChargePercent float64 `json:"battery_charge_percent"`
	StorageUsageMB       float64 `json:"storage_usage_mb"`
	SignalStrengthDBM    float64 `json:"signal_strength_dbm"`

	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	AltitudeKM   *float64 `json:"altitude_km,omitempty"`
	VelocityKMPH *float64 `json:"velocity_kmph,omitempty"`
}

// RFC3339Micro is the timestamp layout used on the wire.
const RFC3339Micro = "2006-01-02T15:04:05.000000Z07:00"

// PositionSample is a point-in-time orbital position for one satellite.
// Latitude is in degrees [-90,90], longitude normalized to [-180,180],
// altitude in km above the surface, speed in km/h.
type PositionSample struct {
	Latitude     float64
	Longitude    float64
	AltitudeKM   float64
	VelocityKMPH float64
}

// PositionProvider resolves a satellite name to its position at a given time.
// Implementations must be cheap and safe to call repeatedly; a failed or
// unknown lookup returns ok=false and is never fatal to the caller.
type PositionProvider interface {
	Position(satellite string, at time.Time) (PositionSample, bool)
}

// Named anomaly patterns injected by the generator.
const (
	AnomalyPowerCritical    = "power_critical"
	AnomalyStorageSaturated = "storage_saturated"
	AnomalySignalLost       = "signal_lost"
	AnomalySuddenDischarge  = "sudden_discharge"
)
