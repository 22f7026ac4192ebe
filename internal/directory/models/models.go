// Package models defines the record types of the organizational
// directory: companies, the units they own, and the employees assigned
// to units. The hierarchy is a strict three-level tree; every child
// carries a mandatory reference to its parent and is removed with it.
package models

import "fmt"

// Field length limits enforced by the form layer, measured in Unicode
// code points rather than bytes.
const (
	MaxNameLength  = 255
	MaxEmailLength = 254
)

// Company is the root of the directory hierarchy.
type Company struct {
	// ID is the system-assigned identifier, stable for the record's lifetime.
	ID uint `gorm:"primaryKey"`
	// Name is required and unique across all companies.
	Name string `gorm:"size:255;uniqueIndex;not null"`
	// Address is optional free text.
	Address string `gorm:"type:text"`
	// Units owned by this company; removed together with it.
	Units []Unit `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE"`
}

func (c Company) String() string {
	return c.Name
}

// Unit is a subdivision belonging to exactly one company.
type Unit struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:255;not null"`
	// CompanyID references the owning company and is never null.
	CompanyID uint    `gorm:"not null;index"`
	Company   Company `gorm:"constraint:OnDelete:CASCADE"`
	// Employees assigned to this unit; removed together with it.
	Employees []Employee `gorm:"foreignKey:UnitID;constraint:OnDelete:CASCADE"`
}

func (u Unit) String() string {
	return fmt.Sprintf("%s (%s)", u.Name, u.Company.Name)
}

// Employee is a person assigned to exactly one unit.
type Employee struct {
	ID        uint   `gorm:"primaryKey"`
	FirstName string `gorm:"size:255;not null"`
	LastName  string `gorm:"size:255;not null"`
	// Email is required and unique across all employees.
	Email string `gorm:"size:254;uniqueIndex;not null"`
	// UnitID references the owning unit and is never null.
	UnitID uint `gorm:"not null;index"`
	Unit   Unit `gorm:"constraint:OnDelete:CASCADE"`
}

func (e Employee) String() string {
	return fmt.Sprintf("%s %s", e.FirstName, e.LastName)
}
