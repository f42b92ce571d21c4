package model

// Tag is a recipe label (e.g. "breakfast"). Name, color and slug are each
// globally unique; color is a hex code like "#49B64E" or "#FFF".
type Tag struct {
	ID    string `json:"id"    db:"id"`
	Name  string `json:"name"  db:"name"`
	Color string `json:"color" db:"color"`
	Slug  string `json:"slug"  db:"slug"`
}
