package domain

// PackageUpdate carries the fields of a partial package update. Nil fields are left untouched.
type PackageUpdate struct {
	Type     *string `json:"type"`
	Name     *string `json:"name"`
	Price    *int64  `json:"price" validate:"omitempty,gte=0"`
	Slot     *int    `json:"slot" validate:"omitempty,gte=0,lte=2147483647"`
	Location *string `json:"location"`
	Duration *int    `json:"duration" validate:"omitempty,gt=0,lte=2147483647"`
}

func (u PackageUpdate) Empty() bool {
	return u.Type == nil && u.Name == nil && u.Price == nil &&
		u.Slot == nil && u.Location == nil && u.Duration == nil
}

// PackageSearch finds packages that can still seat TotalPeople.
type PackageSearch struct {
	Date        Date   `json:"date" validate:"required"`
	TotalPeople int    `json:"total_people" validate:"gt=0,lte=2147483647"`
	Type        string `json:"type"`
	Location    string `json:"location"`
}

// AvailableFilter narrows the list of packages with at least one free slot.
type AvailableFilter struct {
	MaxPrice *int64
	Type     string
	Location string
}

type StaffUpdate struct {
	Name  *string `json:"name"`
	Role  *string `json:"role"`
	Phone *string `json:"phone"`
}

func (u StaffUpdate) Empty() bool {
	return u.Name == nil && u.Role == nil && u.Phone == nil
}
