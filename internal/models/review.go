package models

import "time"

// Review is a user-authored rating of the service.
type Review struct {
	ID       string    `json:"id"`
	UserID   string    `json:"userId"`
	UserName string    `json:"userName"`
	Rating   int       `json:"rating"`
	Review   string    `json:"review"`
	Date     time.Time `json:"date"`
	Likes    int       `json:"likes"`
	Comments int       `json:"comments"`
}

// ReviewPatch lists the fields an owner may change. Nil fields are left untouched.
type ReviewPatch struct {
	Rating *int
	Review *string
}
