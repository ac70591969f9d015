package galaxy

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig is returned before any generation when the config is
// malformed.
var ErrInvalidConfig = errors.New("invalid galaxy config")

var validate = validator.New()

// Config holds galaxy generation parameters. Together with the seed it fully
// determines the generated dataset.
type Config struct {
	Seed         int64   `yaml:"seed" json:"seed"`                                         // 0 = random
	Size         float64 `yaml:"size" json:"size" validate:"gt=0"`                          // Radius in light-years
	StarCount    int     `yaml:"star_count" json:"star_count" validate:"gt=0"`              // Stars to place
	SpiralArms   int     `yaml:"spiral_arms" json:"spiral_arms" validate:"gte=1"`           // Arm count
	ArmTightness float64 `yaml:"arm_tightness" json:"arm_tightness" validate:"gt=0"`        // Winding factor
	CoreSize     float64 `yaml:"core_size" json:"core_size" validate:"gte=0,ltefield=Size"` // Bulge radius, ly
	StarDensity  float64 `yaml:"star_density" json:"star_density" validate:"gt=0"`          // Higher = tighter arms
	SystemChance float64 `yaml:"system_chance" json:"system_chance" validate:"gte=0,lte=1"` // Chance a star has a system
	BeltChance   float64 `yaml:"belt_chance" json:"belt_chance" validate:"gte=0,lte=1"`     // Chance a system has a belt
}

// DefaultConfig returns the standard galaxy.
func DefaultConfig() Config {
	return Config{
		Seed:         0,
		Size:         50000,
		StarCount:    10000,
		SpiralArms:   4,
		ArmTightness: 0.5,
		CoreSize:     5000,
		StarDensity:  1.0,
		SystemChance: 0.6,
		BeltChance:   0.3,
	}
}

// SmallTestConfig returns a tiny galaxy for rapid iteration.
func SmallTestConfig() Config {
	cfg := DefaultConfig()
	cfg.Seed = 42
	cfg.StarCount = 50
	cfg.Size = 5000
	cfg.CoreSize = 500
	return cfg
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
