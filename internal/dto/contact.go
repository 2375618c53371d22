package dto

import (
	"time"

	"github.com/contactdesk/contacts-api/internal/model"
)

// ContactRequest is used for both create and update; updates replace every
// field, there is no partial merge.
type ContactRequest struct {
	FirstName string `json:"firstname" binding:"required,max=50"`
	LastName  string `json:"lastname" binding:"required,max=50"`
	Email     string `json:"email" binding:"required,email,max=150"`
	Mobile    string `json:"mobile" binding:"omitempty,max=50"`
	BirthDate string `json:"birth_date" binding:"required,datetime=2006-01-02"`
	Note      string `json:"note" binding:"omitempty,max=250"`
}

// SearchFilter carries the exact-match search terms; nil fields are bound as
// SQL NULL and therefore never match.
type SearchFilter struct {
	FirstName *string `form:"firstname"`
	LastName  *string `form:"lastname"`
	Email     *string `form:"email"`
}

type ContactResponse struct {
	ID        uint      `json:"id"`
	FirstName string    `json:"firstname"`
	LastName  string    `json:"lastname"`
	Email     string    `json:"email"`
	Mobile    string    `json:"mobile"`
	BirthDate string    `json:"birth_date"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BirthDateValue parses the validated birth date string
func (r *ContactRequest) BirthDateValue() time.Time {
	t, _ := time.Parse("2006-01-02", r.BirthDate)
	return t
}

// NewContactResponse maps the persisted contact onto its public shape
func NewContactResponse(contact *model.Contact) *ContactResponse {
	return &ContactResponse{
		ID:        contact.ID,
		FirstName: contact.FirstName,
		LastName:  contact.LastName,
		Email:     contact.Email,
		Mobile:    contact.Mobile,
		BirthDate: time.Time(contact.BirthDate).Format("2006-01-02"),
		Note:      contact.Note,
		CreatedAt: contact.CreatedAt,
		UpdatedAt: contact.UpdatedAt,
	}
}

// NewContactResponses maps a result set
func NewContactResponses(contacts []model.Contact) []ContactResponse {
	res := make([]ContactResponse, 0, len(contacts))
	for i := range contacts {
		res = append(res, *NewContactResponse(&contacts[i]))
	}
	return res
}
