package models

// Property is one hostel in the roster. Roster order is the display order.
type Property struct {
	ID       string `yaml:"id" json:"id" validate:"required"`
	Name     string `yaml:"name" json:"name"`
	Timezone string `yaml:"timezone" json:"timezone,omitempty"`
}

func (p Property) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

func PropertyIDs(ps []Property) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}
