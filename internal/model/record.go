// Package model defines the core domain models used throughout the application.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/icastellano/oppanel/internal/normalize"
)

// Status classifies how an opportunity was opened.
type Status string

// Status constants.
const (
	StatusEmergency Status = "EMERGENCY"
	StatusRegular   Status = "REGULAR"
)

// ParseStatus derives a Status from a raw upstream value. Anything that
// mentions an emergency is EMERGENCY; everything else, including the empty
// string, is REGULAR.
func ParseStatus(raw string) Status {
	if strings.Contains(normalize.Fold(raw), "emerg") {
		return StatusEmergency
	}
	return StatusRegular
}

// Record is one procurement opportunity. Records are immutable once loaded;
// a new dataset replaces the store wholesale.
type Record struct {
	OpenDate  time.Time // zero when the source date was missing or unparseable
	ID        string
	Buyer     string
	Title     string
	Platform  string
	Operator  string
	Account   string
	Category  string
	Province  string
	ProcessID string
	Link      string
	Status    Status
	Quantity  float64
}

// Key derives the identity used to join out-of-band annotations. Identifiers
// may collide across unrelated datasets, so the opening date participates.
func (r *Record) Key() string {
	if r.OpenDate.IsZero() {
		return fmt.Sprintf("%s|", r.ID)
	}
	return fmt.Sprintf("%s|%s", r.ID, r.OpenDate.Format("2006-01-02"))
}

// Decision is a per-record accept/reject annotation. Absence of an
// annotation means the record is unmarked.
type Decision string

// Decision values.
const (
	DecisionAccepted Decision = "accepted"
	DecisionRejected Decision = "rejected"
)

// Valid reports whether d is a persistable decision value.
func (d Decision) Valid() bool {
	return d == DecisionAccepted || d == DecisionRejected
}
