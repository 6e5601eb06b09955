package parser

import "encoding/json"

// ItemRecord is the structured content of one item tooltip.
type ItemRecord struct {
	Name          string
	EquipmentType string

	// BaseStat is empty when no base-stat line was identified.
	BaseStat string

	// Affixes keeps top-to-bottom order. Never nil for records built by
	// a Classifier.
	Affixes []string
}

// HasBaseStat reports whether a base-stat line was identified.
func (r ItemRecord) HasBaseStat() bool {
	return r.BaseStat != ""
}

// IsEmpty reports whether nothing was recognized. An empty record is the
// normal result for a screenshot without tooltip content.
func (r ItemRecord) IsEmpty() bool {
	return r.Name == "" && r.EquipmentType == "" && r.BaseStat == "" && len(r.Affixes) == 0
}

// MarshalJSON writes the record with a null baseStats when no base stat was
// found and an empty customAffixes array rather than null.
func (r ItemRecord) MarshalJSON() ([]byte, error) {
	out := struct {
		Name          string   `json:"name"`
		EquipmentType string   `json:"equipmentType"`
		BaseStats     *string  `json:"baseStats"`
		CustomAffixes []string `json:"customAffixes"`
	}{
		Name:          r.Name,
		EquipmentType: r.EquipmentType,
		CustomAffixes: r.Affixes,
	}
	if r.HasBaseStat() {
		base := r.BaseStat
		out.BaseStats = &base
	}
	if out.CustomAffixes == nil {
		out.CustomAffixes = []string{}
	}
	return json.Marshal(out)
}
