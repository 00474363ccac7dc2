// Package tier maps free-text addresses onto regional pricing tiers.
package tier

import (
	"github.com/rgehrsitz/solarplan/internal/domain"
)

// TableVersion identifies the embedded tier table
const TableVersion = "2024.1"

// Tier names in declared order
const (
	Tier1CompetitiveUrban = "Tier 1 – Competitive Urban"
	Tier2StandardRegional = "Tier 2 – Standard Regional"
	Tier3RemoteRural      = "Tier 3 – Remote Rural"
)

// DefaultTierName is applied by callers when an address matches no county
const DefaultTierName = Tier2StandardRegional

// Table is an ordered, immutable list of tiers
type Table struct {
	entries []domain.TierEntry
}

// NewTable copies entries into a new table, preserving their order
func NewTable(entries []domain.TierEntry) *Table {
	cp := make([]domain.TierEntry, len(entries))
	for i := range entries {
		cp[i] = *cloneEntry(&entries[i])
	}
	return &Table{entries: cp}
}

// cloneEntry copies e so callers cannot reach the table's county lists
func cloneEntry(e *domain.TierEntry) *domain.TierEntry {
	cp := *e
	cp.Counties = append([]string(nil), e.Counties...)
	return &cp
}

// Entries returns a copy of the tiers in declared order
func (t *Table) Entries() []domain.TierEntry {
	return NewTable(t.entries).entries
}

// Len returns the number of tiers
func (t *Table) Len() int {
	return len(t.entries)
}

// ByName returns the tier with the given name
func (t *Table) ByName(name string) (*domain.TierEntry, bool) {
	for i := range t.entries {
		if t.entries[i].Name == name {
			return cloneEntry(&t.entries[i]), true
		}
	}
	return nil, false
}

// DefaultTable returns the embedded Irish county tier table
func DefaultTable() *Table {
	return NewTable([]domain.TierEntry{
		{
			Name: Tier1CompetitiveUrban,
			Counties: []string{
				"Dublin (City & County)", "Cork", "Galway", "Limerick",
				"Waterford", "Kildare", "Meath", "Wicklow",
			},
			SolarRange:   domain.NewRange(5500, 8500),
			BatteryRange: domain.NewRange(3500, 5500),
			EVRange:      domain.NewRange(900, 1300),
		},
		{
			Name: Tier2StandardRegional,
			Counties: []string{
				"Louth", "Wexford", "Kilkenny", "Carlow", "Laois", "Offaly",
				"Westmeath", "Tipperary (North & South)", "Clare", "Kerry", "Sligo",
			},
			SolarRange:   domain.NewRange(6000, 9000),
			BatteryRange: domain.NewRange(4000, 6000),
			EVRange:      domain.NewRange(1000, 1400),
		},
		{
			Name: Tier3RemoteRural,
			Counties: []string{
				"Donegal", "Mayo", "Roscommon", "Leitrim", "Longford", "Cavan", "Monaghan",
			},
			SolarRange:   domain.NewRange(6500, 9500),
			BatteryRange: domain.NewRange(4200, 6200),
			EVRange:      domain.NewRange(1100, 1500),
		},
	})
}
