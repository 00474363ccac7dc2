package sizing

import (
	"testing"

	"github.com/rgehrsitz/solarplan/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestMaxPanels(t *testing.T) {
	assert.Equal(t, 16, MaxPanels(domain.PropertyDetached))
	assert.Equal(t, 12, MaxPanels(domain.PropertySemiDetached))
	assert.Equal(t, 10, MaxPanels(domain.PropertyTerraced))
	assert.Equal(t, 12, MaxPanels(domain.PropertyUnknown))
	assert.Equal(t, 12, MaxPanels("castle"))
}

func TestParsePropertyType(t *testing.T) {
	tests := map[string]domain.PropertyType{
		"detached":       domain.PropertyDetached,
		" Detached ":     domain.PropertyDetached,
		"Semi Detached":  domain.PropertySemiDetached,
		"semi_detached":  domain.PropertySemiDetached,
		"semi-detached":  domain.PropertySemiDetached,
		"Terraced":       domain.PropertyTerraced,
		"mid terrace":    domain.PropertyTerraced,
		"apartment":      domain.PropertyUnknown,
		"":               domain.PropertyUnknown,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParsePropertyType(in), in)
	}
}

func TestClampSystem_TerracedScenario(t *testing.T) {
	in := Proposal{PanelCount: 12, SystemSizeW: 5280}

	out := ClampSystem(in, domain.PropertyTerraced, 440)

	assert.Equal(t, 4400, out.SystemSizeW)
	assert.Equal(t, 10, out.PanelCount)
}

func TestClampSystem_BoundAndIdentity(t *testing.T) {
	types := []domain.PropertyType{
		domain.PropertyDetached, domain.PropertySemiDetached,
		domain.PropertyTerraced, domain.PropertyUnknown,
	}
	watts := []int{300, 400, 440, 500}

	for _, pt := range types {
		for _, w := range watts {
			ceiling := MaxPanels(pt) * w
			for size := 0; size <= 12000; size += 220 {
				in := Proposal{PanelCount: size / w, SystemSizeW: size}
				out := ClampSystem(in, pt, w)

				assert.LessOrEqual(t, out.SystemSizeW, ceiling)
				if size <= ceiling {
					assert.Equal(t, in, out)
				} else {
					assert.Equal(t, ceiling, out.SystemSizeW)
				}

				again := ClampSystem(out, pt, w)
				assert.Equal(t, out, again, "clamp must be idempotent (%s, %dW, %d)", pt, w, size)
			}
		}
	}
}

func TestClampSystem_DefaultWatts(t *testing.T) {
	out := ClampSystem(Proposal{PanelCount: 20, SystemSizeW: 8800}, domain.PropertyDetached, 0)
	assert.Equal(t, 16*440, out.SystemSizeW)
	assert.Equal(t, 16, out.PanelCount)
}

func TestProposalFor(t *testing.T) {
	assert.Equal(t, Proposal{PanelCount: 12, SystemSizeW: 5280}, ProposalFor(12, 440))
	assert.Equal(t, Proposal{PanelCount: 10, SystemSizeW: 4400}, ProposalFor(10, -1))
}
