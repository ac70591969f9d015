package galaxy

import (
	"fmt"
	"strings"

	"github.com/talgya/starfield/internal/rng"
)

var (
	nameOnsets = []string{
		"Al", "Be", "Ca", "De", "El", "Fo", "Ga", "Ha", "Ix", "Ka",
		"Le", "Ma", "Ne", "Or", "Pa", "Qu", "Ra", "Sa", "Te", "Ul",
		"Ve", "Xa", "Ze", "Kor", "Vel", "Thal", "Myr", "Syl", "Dra", "Zan",
	}
	nameMiddles = []string{
		"ri", "ta", "no", "ve", "la", "ci", "mo", "re", "xi", "du",
		"sa", "ph", "ro", "ne", "ka", "th",
	}
	nameEndings = []string{
		"on", "us", "a", "is", "ar", "ix", "um", "or", "el", "ae",
		"ion", "ara", "eth", "ius", "ora", "en",
	}
	catalogPrefixes = []string{"HD", "HR", "GJ", "HIP", "KIC", "TYC"}

	romanNumerals = []string{
		"I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X",
		"XI", "XII",
	}
)

// nameGenerator produces unique procedural star names. A small share of
// stars get catalog designations instead of proper names.
type nameGenerator struct {
	used map[string]bool
}

func newNameGenerator() *nameGenerator {
	return &nameGenerator{used: make(map[string]bool)}
}

// next draws a name. Collisions get a numeric suffix derived from the
// generation index so the result stays deterministic.
func (n *nameGenerator) next(r *rng.LCG, index int) string {
	var name string
	if r.Chance(0.15) {
		name = fmt.Sprintf("%s %d", rng.Choice(r, catalogPrefixes), 1000+r.Intn(99000))
	} else {
		var b strings.Builder
		b.WriteString(rng.Choice(r, nameOnsets))
		if r.Chance(0.5) {
			b.WriteString(rng.Choice(r, nameMiddles))
		}
		b.WriteString(rng.Choice(r, nameEndings))
		name = b.String()
	}

	if n.used[name] {
		name = fmt.Sprintf("%s-%d", name, index)
	}
	n.used[name] = true
	return name
}

// planetName appends a roman numeral (1-based) to the star's name.
func planetName(starName string, index int) string {
	if index < len(romanNumerals) {
		return starName + " " + romanNumerals[index]
	}
	return fmt.Sprintf("%s %d", starName, index+1)
}

// moonName appends a lowercase letter to the planet's name.
func moonName(planetName string, index int) string {
	if index < 26 {
		return planetName + " " + string(rune('a'+index))
	}
	return fmt.Sprintf("%s-%d", planetName, index+1)
}

// StarID formats the stable id for a generation index.
func StarID(index int) string {
	return fmt.Sprintf("star_%04d", index)
}
