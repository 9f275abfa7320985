package model

import "time"

// dateLayout is the canonical string form for date-valued profile fields.
const dateLayout = "2006-01-02"

// UserProfile is the flat targeting view of a user. String fields are empty
// when unknown; date fields are absent when zero.
type UserProfile struct {
	ID           string            `json:"id"`
	UserID       string            `json:"user_id"`
	Email        string            `json:"email"`
	ZipCode      string            `json:"zip_code,omitempty"`
	SchoolID     string            `json:"school_id,omitempty"`
	Grade        string            `json:"grade,omitempty"`
	ReferrerCode string            `json:"referrer_code,omitempty"`
	SignupDate   time.Time         `json:"signup_date"`
	LastActivity time.Time         `json:"last_activity"`
	Preferences  map[string]string `json:"preferences,omitempty"`
}

// FieldValue returns the canonical string value for a targeting field, and
// whether the field is present. Dates are formatted YYYY-MM-DD. An empty
// string or zero time counts as absent; conditions on absent fields never
// match.
func (p UserProfile) FieldValue(field TargetingField) (string, bool) {
	switch field {
	case FieldZipCode:
		return p.ZipCode, p.ZipCode != ""
	case FieldSchoolID:
		return p.SchoolID, p.SchoolID != ""
	case FieldGrade:
		return p.Grade, p.Grade != ""
	case FieldReferrerCode:
		return p.ReferrerCode, p.ReferrerCode != ""
	case FieldSignupDate:
		if p.SignupDate.IsZero() {
			return "", false
		}
		return p.SignupDate.Format(dateLayout), true
	case FieldLastActivity:
		if p.LastActivity.IsZero() {
			return "", false
		}
		return p.LastActivity.Format(dateLayout), true
	}
	return "", false
}
