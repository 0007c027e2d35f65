package dto

// SubmitMealSkipRequest asks to skip one or both meals on a date (YYYY-MM-DD).
type SubmitMealSkipRequest struct {
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	SkipLunch  bool   `json:"skipLunch"`
	SkipDinner bool   `json:"skipDinner"`
}

// MealSkipQuery mirrors the admin listing filters.
type MealSkipQuery struct {
	Status string `form:"status"`
	Sort   string `form:"sort"`
}
