// Package orbit derives satellite positions from TLE orbital elements.
//
// The propagator is a simplified two-body model (Kepler solve plus a GMST
// subpoint transform), good enough for plausible load-test decoration; it
// makes no attempt at SGP4-grade accuracy.
package orbit

import (
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"orbitstream-sim/internal/telemetry"
	"orbitstream-sim/internal/tle"
)

const (
	earthMu       = 398600.4418 // km^3/s^2
	earthRadiusKM = 6371.0
)

// elements are the parsed orbital elements of one satellite. Angles are in
// radians, meanMotion in rad/s, semiMajor in km.
type elements struct {
	epoch        time.Time
	inclination  float64
	raan         float64
	eccentricity float64
	argPerigee   float64
	meanAnomaly  float64
	meanMotion   float64
	semiMajor    float64
}

// Calculator implements telemetry.PositionProvider on top of a TLE catalog.
// Entity names that don't match any catalog entry are mapped onto one
// deterministically, so a swarm of SAT-xxxx identities resolves stably.
type Calculator struct {
	sats  map[string]elements
	names []string
	log   *slog.Logger

	mu    sync.Mutex
	alias map[string]string
}

// NewCalculator parses the catalog, skipping entries it cannot parse.
func NewCalculator(catalog map[string]tle.TLE, log *slog.Logger) *Calculator {
	if log == nil {
		log = slog.Default()
	}
	c := &Calculator{
		sats:  make(map[string]elements, len(catalog)),
		log:   log,
		alias: make(map[string]string),
	}
	for name, t := range catalog {
		el, err := parseElements(t)
		if err != nil {
			log.Warn("skipping unparseable TLE", "satellite", name, "error", err)
			continue
		}
		c.sats[name] = el
		c.names = append(c.names, name)
	}
	sort.Strings(c.names)
	log.Info("loaded satellites for position calculation", "count", len(c.names))
	return c
}

// Position implements telemetry.PositionProvider.
func (c *Calculator) Position(satellite string, at time.Time) (telemetry.PositionSample, bool) {
	name, ok := c.Resolve(satellite)
	if !ok {
		return telemetry.PositionSample{}, false
	}
	return propagate(c.sats[name], at)
}

// Resolve maps an entity name to a catalog entry: case-insensitive exact
// match, then substring match, then a deterministic hash assignment.
func (c *Calculator) Resolve(satellite string) (string, bool) {
	if len(c.names) == 0 {
		return "", false
	}
	upper := strings.ToUpper(satellite)
	for _, name := range c.names {
		if strings.ToUpper(name) == upper {
			return name, true
		}
	}
	for _, name := range c.names {
		if strings.Contains(strings.ToUpper(name), upper) {
			return name, true
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if name, ok := c.alias[satellite]; ok {
		return name, true
	}
	h := fnv.New32a()
	h.Write([]byte(satellite))
	name := c.names[int(h.Sum32())%len(c.names)]
	c.alias[satellite] = name
	return name, true
}

// Satellites returns the catalog names, sorted.
func (c *Calculator) Satellites() []string {
	return c.names
}

func parseElements(t tle.TLE) (elements, error) {
	if len(t.Line1) < 69 || len(t.Line2) < 69 {
		return elements{}, fmt.Errorf("line too short")
	}

	epoch, err := parseEpoch(t.Line1[18:32])
	if err != nil {
		return elements{}, fmt.Errorf("epoch: %w", err)
	}

	field := func(s string) (float64, error) {
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	}
	incl, err := field(t.Line2[8:16])
	if err != nil {
		return elements{}, fmt.Errorf("inclination: %w", err)
	}
	raan, err := field(t.Line2[17:25])
	if err != nil {
		return elements{}, fmt.Errorf("raan: %w", err)
	}
	// Eccentricity has an implied leading decimal point.
	ecc, err := field("0." + strings.TrimSpace(t.Line2[26:33]))
	if err != nil {
		return elements{}, fmt.Errorf("eccentricity: %w", err)
	}
	argp, err := field(t.Line2[34:42])
	if err != nil {
		return elements{}, fmt.Errorf("argument of perigee: %w", err)
	}
	m0, err := field(t.Line2[43:51])
	if err != nil {
		return elements{}, fmt.Errorf("mean anomaly: %w", err)
	}
	revsPerDay, err := field(t.Line2[52:63])
	if err != nil {
		return elements{}, fmt.Errorf("mean motion: %w", err)
	}
	if revsPerDay <= 0 {
		return elements{}, fmt.Errorf("non-positive mean motion %f", revsPerDay)
	}

	n := revsPerDay * 2 * math.Pi / 86400 // rad/s
	a := math.Cbrt(earthMu / (n * n))

	deg := math.Pi / 180
	return elements{
		epoch:        epoch,
		inclination:  incl * deg,
		raan:         raan * deg,
		eccentricity: ecc,
		argPerigee:   argp * deg,
		meanAnomaly:  m0 * deg,
		meanMotion:   n,
		semiMajor:    a,
	}, nil
}

// parseEpoch decodes the YYDDD.DDDDDDDD epoch field from TLE line 1.
func parseEpoch(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch field %q too short", s)
	}
	yy, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, err
	}
	year := 1900 + yy
	if yy < 57 {
		year = 2000 + yy
	}
	doy, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return time.Time{}, err
	}
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return jan1.Add(time.Duration((doy - 1) * 24 * float64(time.Hour))), nil
}

// propagate advances the elements to the requested time and returns the
// geodetic subpoint and speed.
func propagate(el elements, at time.Time) (telemetry.PositionSample, bool) {
	dt := at.Sub(el.epoch).Seconds()
	m := math.Mod(el.meanAnomaly+el.meanMotion*dt, 2*math.Pi)

	// Kepler's equation, Newton iterations.
	e := el.eccentricity
	ea := m
	for i := 0; i < 10; i++ {
		ea -= (ea - e*math.Sin(ea) - m) / (1 - e*math.Cos(ea))
	}

	nu := math.Atan2(math.Sqrt(1-e*e)*math.Sin(ea), math.Cos(ea)-e)
	r := el.semiMajor * (1 - e*math.Cos(ea))
	u := nu + el.argPerigee

	lat := math.Asin(math.Sin(el.inclination) * math.Sin(u))
	lonInertial := el.raan + math.Atan2(math.Cos(el.inclination)*math.Sin(u), math.Cos(u))
	lon := normalizeLon(lonInertial - gmst(at))

	alt := r - earthRadiusKM
	if alt <= 0 {
		return telemetry.PositionSample{}, false
	}
	speedKMS := math.Sqrt(earthMu * (2/r - 1/el.semiMajor))

	return telemetry.PositionSample{
		Latitude:     lat * 180 / math.Pi,
		Longitude:    lon * 180 / math.Pi,
		AltitudeKM:   alt,
		VelocityKMPH: speedKMS * 3600,
	}, true
}

// gmst returns the Greenwich mean sidereal time in radians.
func gmst(at time.Time) float64 {
	jd := float64(at.UnixNano())/1e9/86400 + 2440587.5
	d := jd - 2451545.0
	deg := math.Mod(280.46061837+360.98564736629*d, 360)
	if deg < 0 {
		deg += 360
	}
	return deg * math.Pi / 180
}

// normalizeLon wraps a longitude into (-pi, pi].
func normalizeLon(lon float64) float64 {
	lon = math.Mod(lon, 2*math.Pi)
	if lon > math.Pi {
		lon -= 2 * math.Pi
	} else if lon <= -math.Pi {
		lon += 2 * math.Pi
	}
	return lon
}
