package telemetry

import (
	"math"
	"math/rand"
	"time"
)

// GeneratorConfig configures one telemetry generator instance.
type GeneratorConfig struct {
	// AnomalyRate is the probability in [0,1] that a reading is anomalous.
	AnomalyRate float64
	// Satellite is the entity name used for position lookups. Position
	// decoration is skipped unless both Satellite and Provider are set.
	Satellite string
	Provider  PositionProvider
	// Seed fixes the generator's random stream; 0 picks a random seed.
	Seed int64
}

// Generator evolves one satellite's telemetry channels as bounded random
// walks and occasionally injects a named anomaly pattern. State is owned
// exclusively by one satellite's send loop and is not safe for concurrent
// use.
type Generator struct {
	rnd *rand.Rand

	power   float64 // percent, [0,100]
	storage float64 // MB, >= 0
	signal  float64 // dBm, [-120,-30]

	// Walk constants, sampled once per instance.
	drainRate  float64
	growthRate float64
	volatility float64

	anomalyRate float64
	satellite   string
	provider    PositionProvider
	lastPos     *PositionSample
}

// NewGenerator creates a generator with freshly sampled walk constants and
// its own random stream, so satellites stay statistically independent.
func NewGenerator(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	rnd := rand.New(rand.NewSource(seed))
	return &Generator{
		rnd:         rnd,
		power:       100.0,
		storage:     0.0,
		signal:      -50.0,
		drainRate:   rnd.NormFloat64()*0.01 + 0.05,
		growthRate:  rnd.NormFloat64()*2.0 + 10.0,
		volatility:  rnd.NormFloat64()*0.1 + 0.5,
		anomalyRate: cfg.AnomalyRate,
		satellite:   cfg.Satellite,
		provider:    cfg.Provider,
	}
}

// Generate produces the next reading. It never fails: numeric excursions
// are clamped and position-provider failures degrade to the last known
// sample or to omitted fields.
func (g *Generator) Generate() Reading {
	var power, storage, signal float64
	if g.rnd.Float64() < g.anomalyRate {
		power, storage, signal = g.anomalous()
	} else {
		power, storage, signal = g.step()
	}

	r := Reading{
		BatteryChargePercent: round2(power),
		StorageUsageMB:       round2(storage),
		SignalStrengthDBM:    round2(signal),
	}
	g.attachPosition(&r)
	return r
}

// step advances the random walk one tick and returns the new state.
func (g *Generator) step() (power, storage, signal float64) {
	g.power -= g.drainRate
	g.power += g.rnd.NormFloat64() * 0.5
	g.power = clamp(g.power, 0, 100)

	g.storage += g.growthRate
	g.storage += g.rnd.NormFloat64() * 5
	g.storage = math.Max(0, g.storage)

	g.signal += g.rnd.NormFloat64() * g.volatility
	g.signal = clamp(g.signal, -120, -30)

	// Downlink: occasionally transmit accumulated data when near capacity.
	if g.storage > 90000 && g.rnd.Float64() < 0.1 {
		g.storage -= g.uniform(5000, 20000)
		g.storage = math.Max(0, g.storage)
	}

	// Recharge: occasionally catch sunlight when the battery runs low.
	if g.power < 30 && g.rnd.Float64() < 0.05 {
		g.power += g.uniform(5, 15)
	}
	g.power = clamp(g.power, 0, 100)

	return g.power, g.storage, g.signal
}

// anomalous returns a one-off extreme reading. Anomalies are transient:
// the walk state is left untouched so the next normal reading continues
// from where the drift left off.
func (g *Generator) anomalous() (power, storage, signal float64) {
	patterns := [...]string{
		AnomalyPowerCritical,
		AnomalyStorageSaturated,
		AnomalySignalLost,
		AnomalySuddenDischarge,
	}
	switch patterns[g.rnd.Intn(len(patterns))] {
	case AnomalyPowerCritical:
		power = g.uniform(0, 10)
		storage = g.storage + g.uniform(0, 100)
		signal = g.signal + g.uniform(-5, 5)
	case AnomalyStorageSaturated:
		power = g.power + g.uniform(-2, 2)
		storage = g.uniform(95000, 100000)
		signal = g.signal + g.uniform(-5, 5)
	case AnomalySignalLost:
		power = g.power + g.uniform(-2, 2)
		storage = g.storage + g.uniform(0, 100)
		signal = g.uniform(-120, -110)
	case AnomalySuddenDischarge:
		power = g.power - g.uniform(20, 40)
		storage = g.storage + g.uniform(0, 100)
		signal = g.signal + g.uniform(-5, 5)
	}

	power = clamp(power, 0, 100)
	storage = math.Max(0, storage)
	signal = clamp(signal, -120, -30)
	return power, storage, signal
}

// attachPosition decorates the reading with the satellite's position. A
// fresh sample replaces the cached one; on provider failure the cached
// sample is reused; with no cache the fields stay omitted.
func (g *Generator) attachPosition(r *Reading) {
	if g.provider == nil || g.satellite == "" {
		return
	}
	if pos, ok := g.provider.Position(g.satellite, time.Now().UTC()); ok {
		sample := PositionSample{
			Latitude:     round6(pos.Latitude),
			Longitude:    round6(pos.Longitude),
			AltitudeKM:   round2(pos.AltitudeKM),
			VelocityKMPH: round2(pos.VelocityKMPH),
		}
		g.lastPos = &sample
	}
	if g.lastPos == nil {
		return
	}
	lat, lon := g.lastPos.Latitude, g.lastPos.Longitude
	alt, vel := g.lastPos.AltitudeKM, g.lastPos.VelocityKMPH
	r.Latitude = &lat
	r.Longitude = &lon
	r.AltitudeKM = &alt
	r.VelocityKMPH = &vel
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rnd.Float64()*(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
