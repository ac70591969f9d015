package astro

// RGB is an 8-bit color triple. It serializes as a 3-element array.
type RGB [3]uint8

// blackbodyBands maps a minimum temperature to the render color of a
// blackbody at that temperature. Ordered hottest first.
var blackbodyBands = []struct {
	minTemp float64
	color   RGB
}{
	{30000, RGB{155, 176, 255}},
	{10000, RGB{170, 191, 255}},
	{7500, RGB{202, 215, 255}},
	{6000, RGB{248, 247, 255}},
	{5200, RGB{255, 244, 234}},
	{3700, RGB{255, 210, 161}},
	{0, RGB{255, 204, 111}},
}

// BlackbodyColor returns the discrete render color for a temperature.
func BlackbodyColor(temperature float64) RGB {
	for _, b := range blackbodyBands {
		if temperature >= b.minTemp {
			return b.color
		}
	}
	return blackbodyBands[len(blackbodyBands)-1].color
}
