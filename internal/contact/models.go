package contact

import (
	"context"
	"strconv"
)

// Bot-trap fields are decoy inputs hidden from people; anything in them
// came from a script.
const (
	TrapWebsite     = "website"
	TrapPhoneNumber = "phoneNumber"
	TrapCompanyName = "companyName"
)

var trapFields = []string{TrapWebsite, TrapPhoneNumber, TrapCompanyName}

type Submission struct {
	FullName     string
	Email        string
	SubjectLevel string
	Message      string
	CaptchaToken string
	BotTraps     map[string]string
}

// SubmitRequest is the JSON body posted by the contact page.
type SubmitRequest struct {
	FullName     string `json:"fullName" example:"Jane Tan"`
	Email        string `json:"email" example:"jane@example.com"`
	Message      string `json:"message" example:"Looking for weekend lessons."`
	CaptchaToken string `json:"captchaToken,omitempty"`

	// The level and the decoys arrive as whatever the client sent, so they
	// are not forced to strings during decoding. A scripted post with a
	// numeric level must still reach the level check.
	SubjectLevel interface{} `json:"subjectLevel" swaggertype:"string" example:"h2-maths"`
	Website      interface{} `json:"website,omitempty" swaggertype:"string"`
	PhoneNumber  interface{} `json:"phoneNumber,omitempty" swaggertype:"string"`
	CompanyName  interface{} `json:"companyName,omitempty" swaggertype:"string"`
}

func (r SubmitRequest) ToSubmission() Submission {
	return Submission{
		FullName:     r.FullName,
		Email:        r.Email,
		SubjectLevel: looseString(r.SubjectLevel),
		Message:      r.Message,
		CaptchaToken: r.CaptchaToken,
		BotTraps: map[string]string{
			TrapWebsite:     looseString(r.Website),
			TrapPhoneNumber: looseString(r.PhoneNumber),
			TrapCompanyName: looseString(r.CompanyName),
		},
	}
}

// looseString flattens a decoded JSON value to a string that is empty exactly
// when the value is falsy (null, "", false, 0).
func looseString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return ""
	case float64:
		if val == 0 {
			return ""
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return "set"
	}
}

type Status string

const (
	StatusAccepted Status = "accepted"
	StatusAbsorbed Status = "absorbed"
	StatusRejected Status = "rejected"
	StatusFailed   Status = "failed"
)

// Outcome is where a submission ended up. Absorbed submissions are answered
// exactly like accepted ones.
type Outcome struct {
	Status    Status
	Reason    string
	Problem   string
	Score     *float64
	Delivered bool
	Err       error
}

const (
	ReasonHoneypot         = "honeypot"
	ReasonInvalidLevel     = "invalid level"
	ReasonRulePrefix       = "rule:"
	ReasonInvalidEmail     = "invalid_email"
	ReasonMissingFields    = "missing_fields"
	ReasonAssessmentFailed = "assessment_failed"
	ReasonLowScore         = "low_score"
	ReasonDelivered        = "delivered"
	ReasonDeliveryFailed   = "delivery_failed"
	ReasonPanic            = "panic"
)

const (
	ProblemInvalidEmail  = "Invalid email address"
	ProblemMissingFields = "Missing required fields"
)

// RiskAssessor scores a reCAPTCHA token. nil means no usable score.
type RiskAssessor interface {
	Assess(ctx context.Context, token, expectedAction string) *float64
}

// Dispatcher delivers the notification and auto-reply for a submission.
type Dispatcher interface {
	Send(ctx context.Context, submission Submission) bool
}
