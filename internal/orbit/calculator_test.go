package orbit

import (
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"orbitstream-sim/internal/tle"
)

var issTLE = tle.TLE{
	Name:  "ISS (ZARYA)",
	Line1: "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927",
	Line2: "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537",
}

func testCatalog() map[string]tle.TLE {
	return map[string]tle.TLE{issTLE.Name: issTLE}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseElements(t *testing.T) {
	el, err := parseElements(issTLE)
	if err != nil {
		t.Fatalf("parseElements: %v", err)
	}
	if got := el.inclination * 180 / math.Pi; math.Abs(got-51.6416) > 1e-6 {
		t.Errorf("inclination = %f deg, want 51.6416", got)
	}
	if math.Abs(el.eccentricity-0.0006703) > 1e-9 {
		t.Errorf("eccentricity = %f, want 0.0006703", el.eccentricity)
	}
	// ~15.72 revs/day puts the ISS in a ~6730 km orbit.
	if el.semiMajor < 6600 || el.semiMajor > 6900 {
		t.Errorf("semi-major axis = %f km, out of LEO range", el.semiMajor)
	}
	if el.epoch.Year() != 2008 {
		t.Errorf("epoch year = %d, want 2008", el.epoch.Year())
	}
}

func TestPositionIsPhysicallyPlausible(t *testing.T) {
	c := NewCalculator(testCatalog(), testLogger())
	at := time.Date(2008, time.September, 21, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 200; i++ {
		pos, ok := c.Position("ISS (ZARYA)", at.Add(time.Duration(i)*time.Minute))
		if !ok {
			t.Fatalf("position lookup failed at step %d", i)
		}
		if pos.Latitude < -90 || pos.Latitude > 90 {
			t.Fatalf("latitude out of range: %f", pos.Latitude)
		}
		// The subpoint latitude can never exceed the inclination.
		if math.Abs(pos.Latitude) > 51.7 {
			t.Fatalf("latitude %f exceeds inclination", pos.Latitude)
		}
		if pos.Longitude < -180 || pos.Longitude > 180 {
			t.Fatalf("longitude not normalized: %f", pos.Longitude)
		}
		if pos.AltitudeKM < 250 || pos.AltitudeKM > 450 {
			t.Fatalf("altitude %f km implausible for the ISS", pos.AltitudeKM)
		}
		if pos.VelocityKMPH < 25000 || pos.VelocityKMPH > 30000 {
			t.Fatalf("speed %f km/h implausible for LEO", pos.VelocityKMPH)
		}
	}
}

func TestPositionVariesOverTime(t *testing.T) {
	c := NewCalculator(testCatalog(), testLogger())
	at := time.Date(2008, time.September, 21, 0, 0, 0, 0, time.UTC)

	a, _ := c.Position("ISS (ZARYA)", at)
	b, _ := c.Position("ISS (ZARYA)", at.Add(10*time.Minute))
	if a.Latitude == b.Latitude && a.Longitude == b.Longitude {
		t.Error("position did not change over 10 minutes")
	}
}

func TestResolve(t *testing.T) {
	c := NewCalculator(testCatalog(), testLogger())

	if name, ok := c.Resolve("iss (zarya)"); !ok || name != "ISS (ZARYA)" {
		t.Errorf("exact resolve = %q, %v", name, ok)
	}
	if name, ok := c.Resolve("ZARYA"); !ok || name != "ISS (ZARYA)" {
		t.Errorf("partial resolve = %q, %v", name, ok)
	}

	// Unknown entity names map onto the catalog deterministically.
	first, ok := c.Resolve("SAT-0007")
	if !ok {
		t.Fatal("hash assignment failed")
	}
	second, _ := c.Resolve("SAT-0007")
	if first != second {
		t.Errorf("assignment not stable: %q vs %q", first, second)
	}
	other := NewCalculator(testCatalog(), testLogger())
	third, _ := other.Resolve("SAT-0007")
	if first != third {
		t.Errorf("assignment not deterministic across instances: %q vs %q", first, third)
	}
}

func TestResolveEmptyCatalog(t *testing.T) {
	c := NewCalculator(nil, testLogger())
	if _, ok := c.Resolve("SAT-0001"); ok {
		t.Error("empty catalog should not resolve anything")
	}
	if _, ok := c.Position("SAT-0001", time.Now()); ok {
		t.Error("empty catalog should not produce positions")
	}
}

func TestNewCalculatorSkipsUnparseableEntries(t *testing.T) {
	catalog := testCatalog()
	catalog["BROKEN"] = tle.TLE{Name: "BROKEN", Line1: "1 garbage", Line2: "2 garbage"}
	c := NewCalculator(catalog, testLogger())
	if len(c.Satellites()) != 1 {
		t.Errorf("expected 1 parseable satellite, got %d", len(c.Satellites()))
	}
}
