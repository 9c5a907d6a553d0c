package model

import (
	"math"
	"strconv"
	"strings"
)

// Unit conversion factors used by the profile editor.
const (
	cmPerFoot  = 30.48
	cmPerInch  = 2.54
	lbsPerKilo = 2.205
)

// Profile holds the clinical attributes of a user. Numeric fields are
// optional; the scoring pipeline substitutes fallbacks for absent values.
type Profile struct {
	Age         *float64 `json:"age,omitempty"`
	HeightCm    *float64 `json:"height_cm,omitempty"`
	WeightKg    *float64 `json:"weight_kg,omitempty"`
	Gender      string   `json:"gender,omitempty"`
	Systolic    *float64 `json:"systolic,omitempty"`
	Diastolic   *float64 `json:"diastolic,omitempty"`
	Cholesterol *int     `json:"cholesterol,omitempty"`
	Glucose     *int     `json:"glucose,omitempty"`
	Smoking     bool     `json:"smoking"`
	Alcohol     bool     `json:"alcohol"`
	Active      bool     `json:"active"`

	MenopausalStatus string   `json:"menopausal_status,omitempty"`
	Name             string   `json:"name,omitempty"`
	Conditions       []string `json:"conditions,omitempty"`
	Medications      string   `json:"medications,omitempty"`
	LastPeriod       string   `json:"last_period,omitempty"`
	FamilyHistory    string   `json:"family_history,omitempty"`
	Doctor           string   `json:"doctor,omitempty"`
}

// BMI returns weight/height² when both are known and positive.
func (p Profile) BMI() (float64, bool) {
	if !present(p.HeightCm) || !present(p.WeightKg) {
		return 0, false
	}
	m := *p.HeightCm / 100
	return *p.WeightKg / (m * m), true
}

// HasAge reports whether a usable age is set.
func (p Profile) HasAge() bool { return present(p.Age) }

// HasSystolic reports whether a usable systolic reading is set.
func (p Profile) HasSystolic() bool { return present(p.Systolic) }

func present(v *float64) bool {
	return v != nil && *v != 0 && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// ProfileForm is the string-valued profile as submitted by the profile editor.
type ProfileForm struct {
	Name         string   `json:"name"`
	Age          string   `json:"age"`
	HeightVal    string   `json:"height_val"`
	HeightUnit   string   `json:"height_unit"`
	HeightFt     string   `json:"height_ft"`
	HeightIn     string   `json:"height_in"`
	WeightVal    string   `json:"weight_val"`
	WeightUnit   string   `json:"weight_unit"`
	Gender       string   `json:"gender"`
	Systolic     string   `json:"systolic"`
	Diastolic    string   `json:"diastolic"`
	Cholesterol  string   `json:"cholesterol"`
	Glucose      string   `json:"glucose"`
	Smoking      string   `json:"smoking"`
	Alcohol      string   `json:"alcohol"`
	PhysActivity string   `json:"phys_activity"`
	MenStatus    string   `json:"men_status"`
	LastPeriod   string   `json:"last_period"`
	Meds         string   `json:"meds"`
	Conditions   []string `json:"conditions"`
	FamHistory   string   `json:"fam_history"`
	Doctor       string   `json:"doctor"`
}

// Profile converts the form into a typed Profile. Malformed numbers are
// dropped silently and later replaced by the scorer's fallbacks.
func (f ProfileForm) Profile() Profile {
	p := Profile{
		Age:              parseFloat(f.Age),
		Gender:           strings.TrimSpace(f.Gender),
		Systolic:         parseFloat(f.Systolic),
		Diastolic:        parseFloat(f.Diastolic),
		Cholesterol:      parseInt(f.Cholesterol),
		Glucose:          parseInt(f.Glucose),
		Smoking:          strings.TrimSpace(f.Smoking) == "1",
		Alcohol:          strings.TrimSpace(f.Alcohol) == "1",
		Active:           strings.TrimSpace(f.PhysActivity) == "1",
		MenopausalStatus: strings.TrimSpace(f.MenStatus),
		Name:             strings.TrimSpace(f.Name),
		Conditions:       f.Conditions,
		Medications:      strings.TrimSpace(f.Meds),
		LastPeriod:       strings.TrimSpace(f.LastPeriod),
		FamilyHistory:    strings.TrimSpace(f.FamHistory),
		Doctor:           strings.TrimSpace(f.Doctor),
	}

	if strings.EqualFold(f.HeightUnit, "ft") {
		ft, in := parseFloat(f.HeightFt), parseFloat(f.HeightIn)
		cm := 0.0
		if ft != nil {
			cm += *ft * cmPerFoot
		}
		if in != nil {
			cm += *in * cmPerInch
		}
		if cm > 0 {
			p.HeightCm = &cm
		}
	} else {
		p.HeightCm = parseFloat(f.HeightVal)
	}

	if w := parseFloat(f.WeightVal); w != nil {
		if strings.EqualFold(f.WeightUnit, "lbs") {
			kg := *w / lbsPerKilo
			w = &kg
		}
		p.WeightKg = w
	}
	return p
}

// parseFloat reads the leading number of s the way a form field is read:
// "72.5kg" is 72.5, "abc" is absent.
func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return finite(v)
	}
	end := 0
	for end < len(s) && strings.ContainsRune("+-.0123456789eE", rune(s[end])) {
		end++
	}
	for end > 0 {
		if v, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return finite(v)
		}
		end--
	}
	return nil
}

// parseInt reads an optional sign and the leading decimal digits: "2 (high)"
// is 2, "1e5" is 1, "2.9" is 2. Values that do not fit an int are absent.
func parseInt(s string) *int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return nil
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return nil
	}
	return &n
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
