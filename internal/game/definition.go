/*
Package game
File: definition.go
Description:
    The built-in game definition (shop catalog, tuning, device tiers) and
    the helpers that turn a loaded Definition into runtime values.
*/

package game

import "fmt"

// DefaultTierName is the tier used when the requested tier is unknown.
const DefaultTierName = "default"

// DefaultDefinition returns the shipped shop and device table.
func DefaultDefinition() Definition {
	return Definition{
		Tuning: DefaultTuning(),
		Producers: []ProducerType{
			{ID: "bierfles", DisplayName: "Bierfles", ImageKey: "bierfles", Description: "Een koud flesje.", BasePrice: 12, ProductionRate: 0.1},
			{ID: "bierkrat", DisplayName: "Bierkrat", ImageKey: "bierkrat", Description: "Vierentwintig tegelijk.", BasePrice: 24, ProductionRate: 0.3},
			{ID: "bierfust", DisplayName: "Bierfust", ImageKey: "bierfust", Description: "Voor het hele dorp.", BasePrice: 120, ProductionRate: 1.0},
		},
		DeviceTiers: []DeviceTier{
			{Name: DefaultTierName, MaxRings: 2, BaseRadius: 110, BierdopScale: 1.0, ShopScale: 1.0},
			{Name: "phone_small", MaxRings: 2, BaseRadius: 90, BierdopScale: 1.0, ShopScale: 1.0},
			{Name: "phone_standard", MaxRings: 2, BaseRadius: 110, BierdopScale: 1.0, ShopScale: 1.0},
			{Name: "phone_large", MaxRings: 3, BaseRadius: 120, BierdopScale: 1.1, ShopScale: 1.1},
			{Name: "tablet_mini", MaxRings: 3, BaseRadius: 140, BierdopScale: 1.3, ShopScale: 1.2},
			{Name: "tablet_standard", MaxRings: 4, BaseRadius: 160, BierdopScale: 1.5, ShopScale: 1.4},
			{Name: "tablet_large", MaxRings: 5, BaseRadius: 180, BierdopScale: 1.5, ShopScale: 1.6},
			{Name: "desktop", MaxRings: 5, BaseRadius: 200, BierdopScale: 1.5, ShopScale: 1.8},
		},
	}
}

// Catalog validates the producers and builds the catalog.
func (d Definition) Catalog() (*Catalog, error) {
	return NewCatalog(d.Producers)
}

// Tier returns the named device tier, falling back to the "default" tier,
// then to the first tier. The bool reports whether name matched exactly.
func (d Definition) Tier(name string) (DeviceTier, bool) {
	var fallback *DeviceTier
	for i := range d.DeviceTiers {
		t := d.DeviceTiers[i]
		if t.Name == name {
			return t, true
		}
		if t.Name == DefaultTierName && fallback == nil {
			fallback = &d.DeviceTiers[i]
		}
	}
	if fallback != nil {
		return *fallback, false
	}
	if len(d.DeviceTiers) > 0 {
		return d.DeviceTiers[0], false
	}
	return DefaultDefinition().DeviceTiers[0], false
}

// Validate checks the catalog and the device table.
func (d Definition) Validate() error {
	if _, err := d.Catalog(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(d.DeviceTiers))
	for _, t := range d.DeviceTiers {
		if t.Name == "" {
			return fmt.Errorf("device tier without a name")
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate device tier %q", t.Name)
		}
		seen[t.Name] = true
		if t.MaxRings < 0 || t.BaseRadius < 0 {
			return fmt.Errorf("device tier %q: rings and radius must not be negative", t.Name)
		}
	}
	return nil
}
