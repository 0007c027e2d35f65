package models

import "time"

// Dish is a menu item.
type Dish struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	ImageBase64 string    `json:"imageBase64,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Package is a subscription plan.
type Package struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Price        float64   `json:"price"`
	BillingCycle string    `json:"billingCycle"`
	Features     []string  `json:"features"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Employee is a kitchen staff record maintained by admins.
type Employee struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Department  string    `json:"department"`
	Salary      float64   `json:"salary"`
	JoiningDate string    `json:"joiningDate,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
