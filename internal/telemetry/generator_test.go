package telemetry

import (
	"math"
	"testing"
	"time"
)

// stubProvider returns a scripted sequence of position results.
type stubProvider struct {
	samples []PositionSample
	oks     []bool
	calls   int
}

func (p *stubProvider) Position(satellite string, at time.Time) (PositionSample, bool) {
	i := p.calls
	p.calls++
	if i >= len(p.oks) {
		return PositionSample{}, false
	}
	return p.samples[i], p.oks[i]
}

func TestGenerateKeepsChannelsInBounds(t *testing.T) {
	gen := NewGenerator(GeneratorConfig{AnomalyRate: 0.05, Seed: 1})
	for i := 0; i < 2000; i++ {
		r := gen.Generate()
		if r.BatteryChargePercent < 0 || r.BatteryChargePercent > 100 {
			t.Fatalf("iteration %d: battery out of range: %f", i, r.BatteryChargePercent)
		}
		if r.StorageUsageMB < 0 {
			t.Fatalf("iteration %d: negative storage: %f", i, r.StorageUsageMB)
		}
		if r.SignalStrengthDBM < -120 || r.SignalStrengthDBM > -30 {
			t.Fatalf("iteration %d: signal out of range: %f", i, r.SignalStrengthDBM)
		}
	}
}

func TestNormalDriftHasNoAnomalyJumps(t *testing.T) {
	gen := NewGenerator(GeneratorConfig{AnomalyRate: 0, Seed: 2})
	prev := gen.Generate()
	for i := 0; i < 1000; i++ {
		r := gen.Generate()
		if diff := math.Abs(r.BatteryChargePercent - prev.BatteryChargePercent); diff > 50 {
			t.Fatalf("iteration %d: battery jumped %f in one step without anomalies", i, diff)
		}
		prev = r
	}
}

func TestAnomalyRateOneProducesAllPatterns(t *testing.T) {
	gen := NewGenerator(GeneratorConfig{AnomalyRate: 1, Seed: 3})
	var critical, saturated, lost, discharge bool
	for i := 0; i < 1000; i++ {
		r := gen.Generate()
		if r.BatteryChargePercent < 10 {
			critical = true
		}
		if r.StorageUsageMB > 95000 {
			saturated = true
		}
		if r.SignalStrengthDBM < -110 {
			lost = true
		}
		// Anomalies never advance the walk, so the baseline stays at 100%.
		if 100-r.BatteryChargePercent >= 20 {
			discharge = true
		}
	}
	if !critical {
		t.Error("power_critical never observed")
	}
	if !saturated {
		t.Error("storage_saturated never observed")
	}
	if !lost {
		t.Error("signal_lost never observed")
	}
	if !discharge {
		t.Error("sudden_discharge never observed")
	}
}

func TestRoundingIsIdempotent(t *testing.T) {
	provider := &stubProvider{
		samples: []PositionSample{{Latitude: 51.1234567, Longitude: -170.7654321, AltitudeKM: 421.23456, VelocityKMPH: 27576.98765}},
		oks:     []bool{true},
	}
	gen := NewGenerator(GeneratorConfig{AnomalyRate: 0.5, Satellite: "SAT-0001", Provider: provider, Seed: 4})
	round := func(v float64, digits int) float64 {
		p := math.Pow(10, float64(digits))
		return math.Round(v*p) / p
	}
	for i := 0; i < 1000; i++ {
		r := gen.Generate()
		if round(r.BatteryChargePercent, 2) != r.BatteryChargePercent {
			t.Fatalf("battery not rounded to 2 decimals: %v", r.BatteryChargePercent)
		}
		if round(r.StorageUsageMB, 2) != r.StorageUsageMB {
			t.Fatalf("storage not rounded to 2 decimals: %v", r.StorageUsageMB)
		}
		if round(r.SignalStrengthDBM, 2) != r.SignalStrengthDBM {
			t.Fatalf("signal not rounded to 2 decimals: %v", r.SignalStrengthDBM)
		}
		if r.Latitude != nil && round(*r.Latitude, 6) != *r.Latitude {
			t.Fatalf("latitude not rounded to 6 decimals: %v", *r.Latitude)
		}
		if r.AltitudeKM != nil && round(*r.AltitudeKM, 2) != *r.AltitudeKM {
			t.Fatalf("altitude not rounded to 2 decimals: %v", *r.AltitudeKM)
		}
	}
}

func TestPositionOmittedWithoutProvider(t *testing.T) {
	gen := NewGenerator(GeneratorConfig{AnomalyRate: 0, Seed: 5})
	for i := 0; i < 10; i++ {
		r := gen.Generate()
		if r.Latitude != nil || r.Longitude != nil || r.AltitudeKM != nil || r.VelocityKMPH != nil {
			t.Fatalf("position fields present without a provider: %+v", r)
		}
	}
}

func TestPositionOmittedWithoutSatelliteName(t *testing.T) {
	provider := &stubProvider{samples: []PositionSample{{Latitude: 1}}, oks: []bool{true}}
	gen := NewGenerator(GeneratorConfig{AnomalyRate: 0, Provider: provider, Seed: 6})
	r := gen.Generate()
	if r.Latitude != nil {
		t.Fatalf("position fields present without a satellite name: %+v", r)
	}
	if provider.calls != 0 {
		t.Fatalf("provider probed %d times without a satellite name", provider.calls)
	}
}

func TestPositionOmittedUntilFirstSuccess(t *testing.T) {
	provider := &stubProvider{
		samples: []PositionSample{{}, {Latitude: 10.5, Longitude: 20.25, AltitudeKM: 400, VelocityKMPH: 27000}},
		oks:     []bool{false, true},
	}
	gen := NewGenerator(GeneratorConfig{AnomalyRate: 0, Satellite: "SAT-0002", Provider: provider, Seed: 7})

	first := gen.Generate()
	if first.Latitude != nil {
		t.Fatalf("position present before any provider success: %+v", first)
	}
	second := gen.Generate()
	if second.Latitude == nil || *second.Latitude != 10.5 {
		t.Fatalf("expected fresh position on second reading, got %+v", second)
	}
}

func TestPositionFailureReusesLastKnown(t *testing.T) {
	provider := &stubProvider{
		samples: []PositionSample{{Latitude: 42.1234564, Longitude: -71.5, AltitudeKM: 415.555, VelocityKMPH: 27500.009}, {}},
		oks:     []bool{true, false},
	}
	gen := NewGenerator(GeneratorConfig{AnomalyRate: 0, Satellite: "SAT-0003", Provider: provider, Seed: 8})

	first := gen.Generate()
	second := gen.Generate()
	if first.Latitude == nil || second.Latitude == nil {
		t.Fatalf("expected position on both readings: %+v / %+v", first, second)
	}
	if *second.Latitude != *first.Latitude ||
		*second.Longitude != *first.Longitude ||
		*second.AltitudeKM != *first.AltitudeKM ||
		*second.VelocityKMPH != *first.VelocityKMPH {
		t.Fatalf("second reading should reuse first position exactly: %+v vs %+v", second, first)
	}
	if *first.Latitude != 42.123456 {
		t.Fatalf("latitude should be rounded to 6 decimals before caching, got %v", *first.Latitude)
	}
}

func TestWalkConstantsDifferAcrossGenerators(t *testing.T) {
	a := NewGenerator(GeneratorConfig{Seed: 100})
	b := NewGenerator(GeneratorConfig{Seed: 200})
	if a.drainRate == b.drainRate && a.growthRate == b.growthRate && a.volatility == b.volatility {
		t.Error("independently seeded generators share all walk constants")
	}
}
