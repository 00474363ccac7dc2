package tier

import (
	"regexp"
	"strings"

	"github.com/rgehrsitz/solarplan/internal/domain"
	"github.com/shopspring/decimal"
)

var qualifierPattern = regexp.MustCompile(`\s*\([^)]*\)`)

// CountyName strips parenthetical qualifiers: "Tipperary (North & South)"
// becomes "Tipperary".
func CountyName(county string) string {
	return strings.TrimSpace(qualifierPattern.ReplaceAllString(county, ""))
}

// CountyKey strips parenthetical qualifiers and normalises case, so
// "Dublin (City & County)" and "dublin" compare equal.
func CountyKey(county string) string {
	return strings.ToLower(CountyName(county))
}

// Classifier maps addresses to tiers using first-match substring search
type Classifier struct {
	table *Table
}

// NewClassifier creates a classifier over table. A nil table uses DefaultTable.
func NewClassifier(table *Table) *Classifier {
	if table == nil {
		table = DefaultTable()
	}
	return &Classifier{table: table}
}

// Table returns the tier table the classifier scans
func (c *Classifier) Table() *Table {
	return c.table
}

// Classify returns the first tier, in declared order, that lists a county
// appearing anywhere in address. A miss is not an error: it returns false.
//
// Ties between counties in different tiers go to the earlier tier, so
// "Mullingar, Westmeath" matches "Meath" in tier 1.
func (c *Classifier) Classify(address string) (*domain.TierEntry, bool) {
	entry, _, ok := c.classify(address)
	return entry, ok
}

// ClassifyCounty is Classify that also reports which county matched
func (c *Classifier) ClassifyCounty(address string) (*domain.TierEntry, string, bool) {
	return c.classify(address)
}

func (c *Classifier) classify(address string) (*domain.TierEntry, string, bool) {
	haystack := strings.ToLower(address)
	if strings.TrimSpace(haystack) == "" {
		return nil, "", false
	}
	for i := range c.table.entries {
		for _, county := range c.table.entries[i].Counties {
			key := CountyKey(county)
			if key != "" && strings.Contains(haystack, key) {
				return cloneEntry(&c.table.entries[i]), CountyName(county), true
			}
		}
	}
	return nil, "", false
}

// ByCounty is an exact, case-insensitive lookup by county name
func (c *Classifier) ByCounty(county string) (*domain.TierEntry, bool) {
	want := CountyKey(county)
	if want == "" {
		return nil, false
	}
	for i := range c.table.entries {
		for _, candidate := range c.table.entries[i].Counties {
			if CountyKey(candidate) == want {
				return cloneEntry(&c.table.entries[i]), true
			}
		}
	}
	return nil, false
}

// ClassifyOrDefault applies the wizard's miss policy: an unmatched address
// is priced with DefaultTierName and defaulted is set.
func (c *Classifier) ClassifyOrDefault(address string) (entry *domain.TierEntry, county string, defaulted bool) {
	if e, county, ok := c.classify(address); ok {
		return e, county, false
	}
	if e, ok := c.table.ByName(DefaultTierName); ok {
		return e, "", true
	}
	if len(c.table.entries) > 0 {
		return cloneEntry(&c.table.entries[0]), "", true
	}
	return nil, "", true
}

// Median is the canonical point estimate of a range: round((min+max)/2)
func Median(r domain.Range) decimal.Decimal {
	return r.Min.Add(r.Max).Div(decimal.NewFromInt(2)).Round(0)
}
