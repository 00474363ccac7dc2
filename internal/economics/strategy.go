package economics

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rgehrsitz/solarplan/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrUnknownPricingType is returned when a tenant names a pricing type
// with no registered strategy
var ErrUnknownPricingType = errors.New("unknown pricing type")

// PricingStrategy prices the solar array for a panel count. There is one
// implementation per domain.PricingType.
type PricingStrategy interface {
	Type() domain.PricingType
	ArrayPrice(panelCount int) decimal.Decimal
}

// BasePlusIncremental charges a base price up to a panel threshold and a
// fixed amount for every panel above it
type BasePlusIncremental struct {
	BasePrice      decimal.Decimal
	PanelThreshold int
	PerPanel       decimal.Decimal
}

// Type implements PricingStrategy
func (BasePlusIncremental) Type() domain.PricingType { return domain.PricingBasePlusIncremental }

// ArrayPrice implements PricingStrategy
func (b BasePlusIncremental) ArrayPrice(panelCount int) decimal.Decimal {
	extra := panelCount - b.PanelThreshold
	if extra < 0 {
		extra = 0
	}
	return b.BasePrice.Add(b.PerPanel.Mul(decimal.NewFromInt(int64(extra))))
}

// SlabPricing reads the price off a table of panel-count brackets. Counts
// above the top slab pay the top price plus PerPanel for each extra panel;
// counts below the first slab pay the first slab price.
type SlabPricing struct {
	Slabs    []domain.Slab
	PerPanel decimal.Decimal
}

// Type implements PricingStrategy
func (SlabPricing) Type() domain.PricingType { return domain.PricingSlab }

// ArrayPrice implements PricingStrategy
func (s SlabPricing) ArrayPrice(panelCount int) decimal.Decimal {
	if len(s.Slabs) == 0 {
		return decimal.Zero
	}
	for _, slab := range s.Slabs {
		if panelCount >= slab.MinPanels && panelCount <= slab.MaxPanels {
			return slab.Price
		}
	}
	first, last := s.Slabs[0], s.Slabs[len(s.Slabs)-1]
	if panelCount < first.MinPanels {
		return first.Price
	}
	if panelCount > last.MaxPanels {
		extra := decimal.NewFromInt(int64(panelCount - last.MaxPanels))
		return last.Price.Add(s.PerPanel.Mul(extra))
	}
	// A gap between slabs: use the nearest slab below.
	price := first.Price
	for _, slab := range s.Slabs {
		if slab.MaxPanels < panelCount {
			price = slab.Price
		}
	}
	return price
}

// StrategyFactory builds a strategy from a tenant pricing block
type StrategyFactory func(p domain.Pricing) (PricingStrategy, error)

// StrategyRegistry maps pricing types to strategy factories
type StrategyRegistry struct {
	factories map[domain.PricingType]StrategyFactory
}

// NewStrategyRegistry creates a registry with the built-in strategies registered
func NewStrategyRegistry() *StrategyRegistry {
	registry := &StrategyRegistry{
		factories: make(map[domain.PricingType]StrategyFactory),
	}

	registry.Register(domain.PricingBasePlusIncremental, newBasePlusIncremental)
	registry.Register(domain.PricingSlab, newSlabPricing)

	return registry
}

// Register adds or replaces the factory for a pricing type
func (r *StrategyRegistry) Register(t domain.PricingType, factory StrategyFactory) {
	r.factories[t] = factory
}

// Build creates the strategy for the pricing block's type
func (r *StrategyRegistry) Build(p domain.Pricing) (PricingStrategy, error) {
	factory, ok := r.factories[p.PricingType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPricingType, p.PricingType)
	}
	return factory(p)
}

// Types returns the registered pricing types, sorted
func (r *StrategyRegistry) Types() []domain.PricingType {
	types := make([]domain.PricingType, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func newBasePlusIncremental(p domain.Pricing) (PricingStrategy, error) {
	if p.BaseSystemPrice.IsNegative() {
		return nil, fmt.Errorf("base system price cannot be negative")
	}
	if p.AdditionalPanelCost.IsNegative() {
		return nil, fmt.Errorf("additional panel cost cannot be negative")
	}
	if p.BasePanelThreshold < 0 {
		return nil, fmt.Errorf("base panel threshold cannot be negative")
	}
	return BasePlusIncremental{
		BasePrice:      p.BaseSystemPrice,
		PanelThreshold: p.BasePanelThreshold,
		PerPanel:       p.AdditionalPanelCost,
	}, nil
}

func newSlabPricing(p domain.Pricing) (PricingStrategy, error) {
	if len(p.SlabPricing) == 0 {
		return nil, fmt.Errorf("slab pricing requires at least one slab")
	}
	slabs := append([]domain.Slab(nil), p.SlabPricing...)
	sort.Slice(slabs, func(i, j int) bool { return slabs[i].MinPanels < slabs[j].MinPanels })
	for i, slab := range slabs {
		if slab.MinPanels > slab.MaxPanels {
			return nil, fmt.Errorf("slab %d: min panels %d exceeds max panels %d", i, slab.MinPanels, slab.MaxPanels)
		}
		if slab.Price.IsNegative() {
			return nil, fmt.Errorf("slab %d: price cannot be negative", i)
		}
		if i > 0 && slab.MinPanels <= slabs[i-1].MaxPanels {
			return nil, fmt.Errorf("slab %d overlaps slab %d", i, i-1)
		}
	}
	return SlabPricing{Slabs: slabs, PerPanel: p.AdditionalPanelCost}, nil
}
