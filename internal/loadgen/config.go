package loadgen

import (
	"time"

	"github.com/okian/peri/internal/domain/model"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Users      int           // Number of synthetic users to drive
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	Settle     time.Duration // Wait before reading background snapshots
	OutputFile string        // Output file for generated personas
	LogFile    string        // Log file for run output
	Verbose    bool          // Enable verbose logging
}

// Persona is one synthetic user: a profile form and a scripted interview.
type Persona struct {
	UserID      string            `json:"user_id"`
	Form        model.ProfileForm `json:"form"`
	Answers     []string          `json:"answers"`
	SaveDetect  bool              `json:"save_detected"`
	ResendFirst bool              `json:"resend_first"`
}

// Outcome is what the service reported for one persona.
type Outcome struct {
	UserID       string  `json:"user_id"`
	Status       int     `json:"status"`
	Full         float64 `json:"full"`
	Band         string  `json:"band"`
	Insufficient bool    `json:"insufficient"`
	Duplicates   int     `json:"duplicates"`
	Err          string  `json:"error,omitempty"`
}

// Stats holds run statistics.
type Stats struct {
	UsersGenerated int
	UsersDriven    int
	UsersFailed    int
	Utterances     int
	Duplicates     int
	Assessed       int
	Insufficient   int
	Mismatches     int
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}
