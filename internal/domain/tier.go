package domain

import (
	"github.com/shopspring/decimal"
)

// Range is an inclusive cost range for one class of equipment
type Range struct {
	Min decimal.Decimal `yaml:"min" json:"min"`
	Max decimal.Decimal `yaml:"max" json:"max"`
}

// NewRange builds a Range from whole currency amounts
func NewRange(min, max int64) Range {
	return Range{Min: decimal.NewFromInt(min), Max: decimal.NewFromInt(max)}
}

// TierEntry is a geographic pricing bracket. Entries are immutable once the
// tier table has been built.
type TierEntry struct {
	Name         string   `yaml:"name" json:"name"`
	Counties     []string `yaml:"counties" json:"counties"`
	SolarRange   Range    `yaml:"solar_range" json:"solarRange"`
	BatteryRange Range    `yaml:"battery_range" json:"batteryRange"`
	EVRange      Range    `yaml:"ev_range" json:"evRange"`
}

