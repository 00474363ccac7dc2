// Package sizing enforces property-type limits on proposed solar arrays.
package sizing

import (
	"strings"

	"github.com/rgehrsitz/solarplan/internal/domain"
)

var maxPanelsByType = map[domain.PropertyType]int{
	domain.PropertyDetached:     16,
	domain.PropertySemiDetached: 12,
	domain.PropertyTerraced:     10,
}

// Proposal is the part of a system proposal the sizing policy constrains.
// SystemSizeW is the nameplate size in watts.
type Proposal struct {
	PanelCount  int `json:"panelCount"`
	SystemSizeW int `json:"systemSizeW"`
}

// ParsePropertyType normalises free text such as "Semi Detached" or
// "semi_detached". Anything unrecognised is PropertyUnknown.
func ParsePropertyType(s string) domain.PropertyType {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", "-", " ", "-").Replace(norm)
	switch norm {
	case "detached":
		return domain.PropertyDetached
	case "semi-detached", "semidetached", "semi":
		return domain.PropertySemiDetached
	case "terraced", "terrace", "mid-terrace", "end-terrace":
		return domain.PropertyTerraced
	default:
		return domain.PropertyUnknown
	}
}

// MaxPanels returns the panel ceiling for a property type. Unknown types get
// the semi-detached limit.
func MaxPanels(pt domain.PropertyType) int {
	if n, ok := maxPanelsByType[pt]; ok {
		return n
	}
	return maxPanelsByType[domain.PropertySemiDetached]
}

// MaxSystemSizeW is MaxPanels(pt) * wattsPerPanel
func MaxSystemSizeW(pt domain.PropertyType, wattsPerPanel int) int {
	return MaxPanels(pt) * effectiveWatts(wattsPerPanel)
}

// ClampSystem caps the proposal at the property ceiling. Proposals already
// within the ceiling are returned unchanged, so ClampSystem is idempotent.
func ClampSystem(p Proposal, pt domain.PropertyType, wattsPerPanel int) Proposal {
	ceiling := MaxSystemSizeW(pt, wattsPerPanel)
	if p.SystemSizeW <= ceiling {
		return p
	}
	p.SystemSizeW = ceiling
	if max := MaxPanels(pt); p.PanelCount > max {
		p.PanelCount = max
	}
	return p
}

// ProposalFor builds a proposal from a panel count
func ProposalFor(panelCount, wattsPerPanel int) Proposal {
	return Proposal{PanelCount: panelCount, SystemSizeW: panelCount * effectiveWatts(wattsPerPanel)}
}

func effectiveWatts(w int) int {
	if w <= 0 {
		return domain.DefaultWattsPerPanel
	}
	return w
}
