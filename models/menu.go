package models

import "encoding/json"

// MenuUpload maps a dining hall name to the days scraped or uploaded for it.
type MenuUpload map[string][]MenuDay

type MenuDay struct {
	Date  string
	Meals []MealMenu
}

type MealMenu struct {
	MealType string
	Sections []MenuSection
}

type MenuSection struct {
	Name  string
	Items []MenuItem
}

type MenuItem struct {
	Name      string            `json:"name"`
	Nutrition map[string]string `json:"nutrition"`
}

func (d MenuDay) ItemCount() int {
	n := 0
	for _, m := range d.Meals {
		for _, s := range m.Sections {
			n += len(s.Items)
		}
	}
	return n
}

// MarshalJSON writes the nested upload shape:
// {"date": ..., "meals": {mealType: {section: [items]}}}.
func (d MenuDay) MarshalJSON() ([]byte, error) {
	meals := make(map[string]map[string][]MenuItem, len(d.Meals))
	for _, m := range d.Meals {
		sections := make(map[string][]MenuItem, len(m.Sections))
		for _, s := range m.Sections {
			items := s.Items
			if items == nil {
				items = []MenuItem{}
			}
			sections[s.Name] = items
		}
		meals[m.MealType] = sections
	}
	return json.Marshal(struct {
		Date  string                           `json:"date"`
		Meals map[string]map[string][]MenuItem `json:"meals"`
	}{d.Date, meals})
}
