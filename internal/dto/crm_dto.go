package dto

import "time"

// ContactFilter holds the recognized contact list filters. Zero values
// impose no constraint.
type ContactFilter struct {
	Search     string
	LeadStatus string
	LeadSource string
	OwnerID    *uint
	TagIDs     []uint
}

type ContactRequest struct {
	FirstName  string   `json:"first_name" form:"first_name"`
	LastName   string   `json:"last_name" form:"last_name"`
	Email      string   `json:"email" form:"email"`
	Phone      string   `json:"phone" form:"phone"`
	Company    string   `json:"company" form:"company"`
	Position   string   `json:"position" form:"position"`
	Address    string   `json:"address" form:"address"`
	City       string   `json:"city" form:"city"`
	Country    string   `json:"country" form:"country"`
	LeadSource string   `json:"lead_source" form:"lead_source"`
	LeadStatus string   `json:"lead_status" form:"lead_status"`
	LeadScore  int      `json:"lead_score" form:"lead_score"`
	OwnerID    *uint    `json:"owner_id" form:"owner_id"`
	Notes      string   `json:"notes" form:"notes"`
	TagIDs     []string `json:"tag_ids" form:"tag_ids"`
}

type TagRequest struct {
	Name  string `json:"name" form:"name"`
	Color string `json:"color" form:"color"`
}

// InteractionFilter holds the recognized interaction list filters.
type InteractionFilter struct {
	ContactID uint
	Type      string
	Status    string
	DateFrom  *time.Time
	DateTo    *time.Time
}

type InteractionRequest struct {
	ContactID uint   `json:"contact_id" form:"contact_id"`
	Type      string `json:"type" form:"type"`
	Subject   string `json:"subject" form:"subject"`
	Notes     string `json:"notes" form:"notes"`
	Date      string `json:"date" form:"date"`
	Status    string `json:"status" form:"status"`
	Outcome   string `json:"outcome" form:"outcome"`
}

// DealFilter holds the recognized deal list filters.
type DealFilter struct {
	Search    string
	ContactID uint
	Stage     string
	OwnerID   *uint
}

type DealRequest struct {
	ContactID         uint    `json:"contact_id" form:"contact_id"`
	Title             string  `json:"title" form:"title"`
	Amount            float64 `json:"amount" form:"amount"`
	Stage             string  `json:"stage" form:"stage"`
	Probability       *int    `json:"probability" form:"probability"`
	ExpectedCloseDate string  `json:"expected_close_date" form:"expected_close_date"`
	OwnerID           *uint   `json:"owner_id" form:"owner_id"`
	Notes             string  `json:"notes" form:"notes"`
}

type EventRequest struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	Location    string `json:"location" form:"location"`
	StartDate   string `json:"start_date" form:"start_date"`
	EndDate     string `json:"end_date" form:"end_date"`
	AllDay      bool   `json:"all_day" form:"all_day"`
	ContactID   *uint  `json:"contact_id" form:"contact_id"`
	Reminder    *int   `json:"reminder" form:"reminder"`
}

// ReminderFilter holds the recognized reminder list filters.
type ReminderFilter struct {
	UserID   uint
	Status   string
	Priority string
}

type ReminderRequest struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	DueDate     string `json:"due_date" form:"due_date"`
	Priority    string `json:"priority" form:"priority"`
	RelatedType string `json:"related_type" form:"related_type"`
	RelatedID   *uint  `json:"related_id" form:"related_id"`
}

// UserFilter holds the recognized admin user list filters.
type UserFilter struct {
	Search string
	RoleID uint
	Status string
}

// ImportResult reports per-row CSV import outcomes.
type ImportResult struct {
	Imported int `json:"imported"`
	Failed   int `json:"failed"`
}
