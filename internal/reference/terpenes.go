package reference

import "strings"

// Terpene describes one entry in the closed terpene vocabulary.
type Terpene struct {
	Name    string   `json:"name"`
	Aroma   string   `json:"aroma"`
	Effects []string `json:"effects,omitempty"`
}

// terpenes is the closed vocabulary offered by review forms.
var terpenes = []Terpene{
	{Name: "Myrcene", Aroma: "earthy, musky", Effects: []string{"relaxing", "sedative"}},
	{Name: "Limonene", Aroma: "citrus", Effects: []string{"uplifting", "stress relief"}},
	{Name: "Caryophyllene", Aroma: "peppery, spicy", Effects: []string{"anti-inflammatory"}},
	{Name: "Pinene", Aroma: "pine", Effects: []string{"alertness", "memory"}},
	{Name: "Linalool", Aroma: "floral, lavender", Effects: []string{"calming"}},
	{Name: "Humulene", Aroma: "hoppy, woody", Effects: []string{"appetite suppressant"}},
	{Name: "Terpinolene", Aroma: "fruity, herbal", Effects: []string{"uplifting"}},
	{Name: "Ocimene", Aroma: "sweet, herbaceous", Effects: []string{"decongestant"}},
	{Name: "Bisabolol", Aroma: "chamomile", Effects: []string{"soothing"}},
	{Name: "Eucalyptol", Aroma: "minty, cooling", Effects: []string{"focus"}},
}

// Terpenes returns the full vocabulary in display order.
func Terpenes() []Terpene {
	out := make([]Terpene, len(terpenes))
	copy(out, terpenes)
	return out
}

// IsKnownTerpene reports whether name is in the vocabulary, case-insensitive.
func IsKnownTerpene(name string) bool {
	for _, t := range terpenes {
		if strings.EqualFold(t.Name, name) {
			return true
		}
	}
	return false
}
