package dto

// CreateReviewRequest payload for posting a review.
type CreateReviewRequest struct {
	Rating int    `json:"rating" validate:"min=1,max=5"`
	Review string `json:"review" validate:"max=2000"`
}

// UpdateReviewRequest patches a review; omitted fields are kept.
type UpdateReviewRequest struct {
	Rating *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Review *string `json:"review" validate:"omitempty,max=2000"`
}
