package domain

import "github.com/google/uuid"

type Organization struct {
	ID       uuid.UUID            `json:"id"`
	Name     string               `json:"name"`
	Settings OrganizationSettings `json:"settings"`
}

type Department struct {
	ID             uuid.UUID        `json:"id"`
	OrganizationID uuid.UUID        `json:"organizationID"`
	Code           string           `json:"code"`
	Name           string           `json:"name"`
	Settings       SettingsOverride `json:"settings"`
}

type Program struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organizationID"`
	Code           string    `json:"code"`
	Name           string    `json:"name"`
}

type ActivityCategory struct {
	OrganizationID uuid.UUID `json:"organizationID"`
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	IsActive       bool      `json:"isActive"`
}
