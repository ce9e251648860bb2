package domain

import (
	"strings"
	"time"
)

// Package is a monthly credit bundle sold by the gym
type Package struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Price       float64       `json:"price"`
	IsActive    bool          `json:"is_active"`
	Items       []PackageItem `json:"items"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// PackageItem grants Credits bookings of classes whose type matches ClassType.
// Position is the declaration order inside the package.
type PackageItem struct {
	ID        string `json:"id"`
	PackageID string `json:"package_id"`
	ClassType string `json:"class_type"`
	Credits   int    `json:"credits"`
	Position  int    `json:"position"`
}

// Validate validates the package and its items, renumbering item positions
// in slice order
func (p *Package) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return ErrInvalidPackage
	}
	if p.Price < 0 {
		return ErrInvalidPackage
	}
	for i := range p.Items {
		p.Items[i].ClassType = strings.TrimSpace(p.Items[i].ClassType)
		if p.Items[i].ClassType == "" || p.Items[i].Credits < 0 {
			return ErrInvalidPackageItem
		}
		p.Items[i].Position = i
	}
	return nil
}

// UserPackage is a package owned by a user for one calendar month
type UserPackage struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	PackageID  string    `json:"package_id"`
	ValidFrom  time.Time `json:"valid_from"`
	ValidUntil time.Time `json:"valid_until"`
	CreatedAt  time.Time `json:"created_at"`
	Package    *Package  `json:"package,omitempty"`
}

// Items returns the package items in declaration order, or nil
func (u *UserPackage) Items() []PackageItem {
	if u == nil || u.Package == nil {
		return nil
	}
	return u.Package.Items
}
