package astro

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHabitableZoneSunLike(t *testing.T) {
	inner, outer := HabitableZone(1)
	assert.InDelta(t, 0.953, inner, 0.001)
	assert.InDelta(t, 1.374, outer, 0.001)
	assert.Less(t, inner, outer)
}

func TestOrbitalPeriodEarth(t *testing.T) {
	assert.InDelta(t, 365.25, OrbitalPeriodDays(1, 1), 1e-9)
	assert.InDelta(t, 365.25*math.Sqrt(8), OrbitalPeriodDays(2, 1), 1e-9)
	assert.Zero(t, OrbitalPeriodDays(1, 0))
}

func TestEquilibriumTemperature(t *testing.T) {
	assert.InDelta(t, 278.5, EquilibriumTemperature(1, 1), 1e-9)
	// Four times the distance halves the temperature.
	assert.InDelta(t, 278.5/2, EquilibriumTemperature(1, 4), 1e-9)
}

func TestStellarRadiusSun(t *testing.T) {
	assert.InDelta(t, 1.0, StellarRadius(1, SolarTemperature), 1e-12)
	assert.Zero(t, StellarRadius(1, 0))
}

func TestMoonPeriodLowEarthOrbit(t *testing.T) {
	assert.InDelta(t, LowOrbitHours, MoonPeriodHours(1, 1, 1), 1e-12)
	// The Moon: ~60 Earth radii out, ~27 days.
	assert.InDelta(t, 27.3*24, MoonPeriodHours(60.3, 1, 1.012), 20)
}

func TestRoundAndClamp(t *testing.T) {
	assert.Equal(t, 1.23, Round(1.2345, 2))
	assert.Equal(t, 1235.0, Round(1234.56, 0))
	assert.Equal(t, float32(0.5), Round(float32(0.49999), 2))
	assert.Equal(t, 0.0, Clamp(-1.0, 0, 1))
	assert.Equal(t, 1.0, Clamp(3.0, 0, 1))
	assert.Equal(t, 5, Clamp(5, 0, 10))
}

func TestBlackbodyColorBands(t *testing.T) {
	assert.Equal(t, RGB{155, 176, 255}, BlackbodyColor(40000))
	assert.Equal(t, RGB{255, 244, 234}, BlackbodyColor(SolarTemperature))
	assert.Equal(t, RGB{255, 204, 111}, BlackbodyColor(2500))
	assert.Equal(t, RGB{255, 204, 111}, BlackbodyColor(0))
}
