package model

// Ingredient is a catalog entry: a name plus its measurement unit.
// The same name may appear with several units ("milk"/"ml", "milk"/"g"),
// so uniqueness is on the (name, measurement_unit) pair.
type Ingredient struct {
	ID              string `json:"id"               db:"id"`
	Name            string `json:"name"             db:"name"`
	MeasurementUnit string `json:"measurement_unit" db:"measurement_unit"`
}

// IngredientTotal is one row of the aggregated shopping list:
// the summed amount of an ingredient across every recipe in a user's cart,
// grouped by (name, measurement_unit).
type IngredientTotal struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Total           int    `json:"total"`
}
