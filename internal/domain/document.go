package domain

import "time"

// Document is a published document listed from the DMS.
type Document struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Name           string        `json:"name"`
	Version        int           `json:"version"`
	Classification string        `json:"classification,omitempty"`
	Category       *CatalogEntry `json:"category,omitempty"`
	Type           *CatalogEntry `json:"type,omitempty"`
	DocumentStatus *CatalogEntry `json:"document_status,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	CreatedBy      UserRef       `json:"created_by"`
	ReviewDate     *time.Time    `json:"review_date,omitempty"`
}
