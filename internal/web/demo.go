package web

import (
	"math"
	"math/rand"
	"sync"
)

// demoFeed generates simulated sensor readings when no hardware is
// connected. The tick counter is owned by the feed instance, not a package
// global, so two servers never share state.
type demoFeed struct {
	mu   sync.Mutex
	tick int
}

func (d *demoFeed) sensors() map[string]sensorJSON {
	d.mu.Lock()
	d.tick++
	t := float64(d.tick) * 0.15
	d.mu.Unlock()

	val := func(v float64) *float64 { return &v }
	return map[string]sensorJSON{
		"RPM":          {Value: val(round1(800 + 1350*(1+math.Sin(t)) + rand.Float64()*100 - 50)), Unit: "rpm"},
		"SPEED":        {Value: val(round1(math.Max(0, 60+50*math.Sin(t*0.4)+rand.Float64()*6-3))), Unit: "km/h"},
		"COOLANT_TEMP": {Value: val(round1(90 + 3*math.Sin(t*0.1) + rand.Float64() - 0.5)), Unit: "°C"},
		"THROTTLE":     {Value: val(round1(clampf(35+25*math.Sin(t*0.5)+rand.Float64()*4-2, 5, 95))), Unit: "%"},
		"ENGINE_LOAD":  {Value: val(round1(clampf(40+20*math.Sin(t*0.3)+rand.Float64()*4-2, 10, 90))), Unit: "%"},
		"FUEL_LEVEL":   {Value: val(65.0), Unit: "%"},
		"INTAKE_TEMP":  {Value: val(round1(28 + 4*math.Sin(t*0.08) + rand.Float64() - 0.5)), Unit: "°C"},
		"MAF":          {Value: val(round2(math.Max(2, 9+4*math.Sin(t*0.6)+rand.Float64()*0.6-0.3))), Unit: "g/s"},
		"VOLTAGE":      {Value: val(round2(14.1 + rand.Float64()*0.3 - 0.15)), Unit: "V"},
	}
}

func clampf(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
