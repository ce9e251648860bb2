package dto

import "github.com/prohmpiriya/gym-booking/internal/domain"

// PackageItemRequest is one credit line of a package
type PackageItemRequest struct {
	ClassType string `json:"class_type" binding:"required,max=100"`
	Credits   int    `json:"credits" binding:"min=0"`
}

// PackageRequest is the body for creating or replacing a package.
// Items keep the order in which they are sent.
type PackageRequest struct {
	Name        string               `json:"name" binding:"required,max=255"`
	Description string               `json:"description"`
	Price       float64              `json:"price" binding:"min=0"`
	IsActive    *bool                `json:"is_active"`
	Items       []PackageItemRequest `json:"items" binding:"dive"`
}

// ToDomain converts the request to a Package. IsActive defaults to true.
func (r *PackageRequest) ToDomain() *domain.Package {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	p := &domain.Package{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		IsActive:    active,
		Items:       make([]domain.PackageItem, len(r.Items)),
	}
	for i, item := range r.Items {
		p.Items[i] = domain.PackageItem{ClassType: item.ClassType, Credits: item.Credits, Position: i}
	}
	return p
}

// AcquirePackageResponse is returned after a package is acquired
type AcquirePackageResponse struct {
	Message       string          `json:"message"`
	UserPackageID string          `json:"user_package_id"`
	ValidFrom     string          `json:"valid_from"`
	ValidUntil    string          `json:"valid_until"`
	Package       *domain.Package `json:"package,omitempty"`
}
