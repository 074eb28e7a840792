// ABOUTME: Data models for CRM entities
// ABOUTME: Defines Contact, Company, Deal, and Activity structs and their enumerations
package models

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

type Contact struct {
	ID        int       `json:"Id"`
	FirstName string    `json:"first_name_c"`
	LastName  string    `json:"last_name_c"`
	Email     string    `json:"email_c,omitempty"`
	Phone     string    `json:"phone_c,omitempty"`
	Title     string    `json:"title_c,omitempty"`
	Status    string    `json:"status_c,omitempty"`
	CompanyID int       `json:"company_id_c,omitempty"`
	CreatedAt time.Time `json:"created_at_c"`
	UpdatedAt time.Time `json:"updated_at_c"`
}

// FullName joins first and last name.
func (c Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

type Company struct {
	ID        int       `json:"Id"`
	Name      string    `json:"name_c"`
	Industry  string    `json:"industry_c,omitempty"`
	Size      string    `json:"size_c,omitempty"`
	Website   string    `json:"website_c,omitempty"`
	Address   string    `json:"address_c,omitempty"`
	CreatedAt time.Time `json:"created_at_c"`
}

type Deal struct {
	ID          int       `json:"Id"`
	Title       string    `json:"title_c"`
	Value       float64   `json:"value_c"`
	Stage       string    `json:"stage_c"`
	Probability int       `json:"probability_c"`
	CloseDate   time.Time `json:"close_date_c"`
	ContactID   int       `json:"contact_id_c,omitempty"`
	CompanyID   int       `json:"company_id_c,omitempty"`
	CreatedAt   time.Time `json:"created_at_c"`
}

type Activity struct {
	ID          int       `json:"Id"`
	Type        string    `json:"type_c"`
	Description string    `json:"description_c"`
	ContactID   int       `json:"contact_id_c,omitempty"`
	DealID      int       `json:"deal_id_c,omitempty"`
	CreatedAt   time.Time `json:"created_at_c"`
}

// Contact statuses.
const (
	StatusProspect = "prospect"
	StatusActive   = "active"
	StatusCustomer = "customer"
	StatusInactive = "inactive"
)

// ContactStatuses lists every valid contact status.
var ContactStatuses = []string{StatusProspect, StatusActive, StatusCustomer, StatusInactive}

// Deal stages, in pipeline order.
const (
	StageLead      = "lead"
	StageQualified = "qualified"
	StageProposal  = "proposal"
	StageClosed    = "closed"
)

// Stages is the fixed pipeline sequence.
var Stages = []string{StageLead, StageQualified, StageProposal, StageClosed}

// Activity types.
const (
	ActivityCall    = "call"
	ActivityEmail   = "email"
	ActivityMeeting = "meeting"
	ActivityOther   = "other"
)

// ActivityTypes lists every valid activity type.
var ActivityTypes = []string{ActivityCall, ActivityEmail, ActivityMeeting, ActivityOther}

var stageProbability = map[string]int{
	StageLead:      25,
	StageQualified: 50,
	StageProposal:  75,
	StageClosed:    100,
}

// DefaultProbability returns the win probability implied by a stage.
// Unknown stages fall back to the lead probability.
func DefaultProbability(stage string) int {
	if p, ok := stageProbability[stage]; ok {
		return p
	}
	return stageProbability[StageLead]
}

// IsValidStage reports whether stage is part of the pipeline.
func IsValidStage(stage string) bool {
	_, ok := stageProbability[stage]
	return ok
}

// StageIndex returns the position of stage in the pipeline, or -1.
func StageIndex(stage string) int {
	for i, s := range Stages {
		if s == stage {
			return i
		}
	}
	return -1
}

// StageLabel returns the column heading for a stage.
func StageLabel(stage string) string {
	if stage == "" {
		return "Unknown"
	}
	r, size := utf8.DecodeRuneInString(stage)
	return string(unicode.ToUpper(r)) + stage[size:]
}

// IsValidStatus reports whether status is a known contact status.
func IsValidStatus(status string) bool {
	for _, s := range ContactStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsValidActivityType reports whether t is a known activity type.
func IsValidActivityType(t string) bool {
	for _, a := range ActivityTypes {
		if a == t {
			return true
		}
	}
	return false
}
