package models

import (
	"time"
)

// Deal pipeline stages, in pipeline order.
const (
	StageLead        = "lead"
	StageQualified   = "qualified"
	StageProposal    = "proposal"
	StageNegotiation = "negotiation"
	StageClosedWon   = "closed-won"
	StageClosedLost  = "closed-lost"
)

// DealStages lists every stage in pipeline order.
var DealStages = []string{
	StageLead, StageQualified, StageProposal,
	StageNegotiation, StageClosedWon, StageClosedLost,
}

// ClosedStages are terminal: deals in them carry an actual close date and
// are excluded from the forecast.
var ClosedStages = []string{StageClosedWon, StageClosedLost}

var stageProbabilities = map[string]int{
	StageLead:        10,
	StageQualified:   30,
	StageProposal:    50,
	StageNegotiation: 80,
	StageClosedWon:   100,
	StageClosedLost:  0,
}

// DefaultProbability returns the default win probability for a stage,
// or 10 for an unknown stage.
func DefaultProbability(stage string) int {
	if p, ok := stageProbabilities[stage]; ok {
		return p
	}
	return 10
}

// ValidStage reports whether s is a known pipeline stage.
func ValidStage(s string) bool {
	_, ok := stageProbabilities[s]
	return ok
}

// IsClosedStage reports whether s is a terminal stage.
func IsClosedStage(s string) bool {
	return s == StageClosedWon || s == StageClosedLost
}

// Deal is a sales opportunity tied to a contact. Deleting the contact
// deletes its deals. Owner is a weak, nullable assignment to an agent.
type Deal struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	ContactID         uint       `gorm:"not null;index" json:"contact_id"`
	Contact           *Contact   `gorm:"foreignKey:ContactID;constraint:OnDelete:CASCADE" json:"contact,omitempty"`
	CreatedBy         uint       `gorm:"not null;index" json:"created_by"`
	OwnerID           *uint      `gorm:"index" json:"owner_id"`
	Owner             *User      `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Title             string     `gorm:"size:255;not null" json:"title"`
	Amount            float64    `gorm:"not null;default:0" json:"amount"`
	Stage             string     `gorm:"size:20;not null;default:'lead';index" json:"stage"`
	Probability       int        `gorm:"not null;default:10" json:"probability"`
	ExpectedCloseDate *time.Time `json:"expected_close_date"`
	ActualCloseDate   *time.Time `json:"actual_close_date"`
	Notes             string     `gorm:"type:text" json:"notes"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
