package dto

// DishRequest creates or replaces a dish.
type DishRequest struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Price       float64 `json:"price" validate:"gte=0,finite"`
	ImageBase64 string  `json:"imageBase64"`
}

// PackageRequest creates a subscription package.
type PackageRequest struct {
	Name         string   `json:"name" validate:"required,max=120"`
	Price        float64  `json:"price" validate:"gt=0,finite"`
	BillingCycle string   `json:"billingCycle" validate:"required,max=40"`
	Features     []string `json:"features" validate:"required,min=1,dive,required"`
}

// EmployeeRequest creates an employee record.
type EmployeeRequest struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Email       string  `json:"email" validate:"required,email"`
	Phone       string  `json:"phone" validate:"required,max=30"`
	Department  string  `json:"department" validate:"required,max=80"`
	Salary      float64 `json:"salary" validate:"gt=0,finite"`
	JoiningDate string  `json:"joiningDate" validate:"omitempty,datetime=2006-01-02"`
}

// AnnouncementRequest publishes an announcement. Date defaults to today.
type AnnouncementRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
	Date        string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}
