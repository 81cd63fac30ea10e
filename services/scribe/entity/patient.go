package entity

import (
	"time"
)

type Gender string

const (
	GenderMale        Gender = "Male"
	GenderFemale      Gender = "Female"
	GenderOther       Gender = "Other"
	GenderUndisclosed Gender = "Prefer not to say"
)

// AnonymousPlaceholder is the literal stored in identity fields of anonymous
// patients. It is never validated as real identity data.
const AnonymousPlaceholder = "Anonymous"

// PatientRecord holds the confirmed patient and visit details for one
// Session. At most one record exists per Session; re-submitting for the same
// Session updates the existing row.
type PatientRecord struct {
	ID          string    `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID   string    `json:"sessionId" gorm:"type:uuid;uniqueIndex;not null"`
	Session     *Session  `json:"-" gorm:"foreignKey:SessionID;references:ID"`
	IsAnonymous bool      `json:"isAnonymous" gorm:"not null;default:false"`
	FirstName   string    `json:"firstName" gorm:"not null"`
	MiddleName  *string   `json:"middleName,omitempty"`
	LastName    string    `json:"lastName" gorm:"not null"`
	DateOfBirth string    `json:"dateOfBirth" gorm:"not null"`
	Gender      Gender    `json:"gender" gorm:"not null"`
	Phone       string    `json:"phone" gorm:"not null"`
	Email       *string   `json:"email,omitempty"`
	VisitDate   string    `json:"visitDate" gorm:"not null"`
	VisitTime   string    `json:"visitTime" gorm:"not null"`
	DoctorName  string    `json:"doctorName" gorm:"index;not null"`
	CreatedAt   time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (PatientRecord) TableName() string { return "patient_records" }

func (p *PatientRecord) FullName() string {
	if p.MiddleName != nil && *p.MiddleName != "" {
		return p.FirstName + " " + *p.MiddleName + " " + p.LastName
	}
	return p.FirstName + " " + p.LastName
}

// Age computes full years from DateOfBirth at the given time. It reports
// false when the date of birth is the anonymous placeholder or unparseable.
func (p *PatientRecord) Age(now time.Time) (int, bool) {
	dob, ok := p.BirthDate()
	if !ok {
		return 0, false
	}
	years := now.Year() - dob.Year()
	if now.YearDay() < dob.YearDay() {
		years--
	}
	if years < 0 {
		return 0, false
	}
	return years, true
}

// BirthDate parses DateOfBirth, accepting full RFC 3339 timestamps or bare
// dates. The anonymous placeholder reports false.
func (p *PatientRecord) BirthDate() (time.Time, bool) {
	if p.DateOfBirth == "" || p.DateOfBirth == AnonymousPlaceholder {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, p.DateOfBirth); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
