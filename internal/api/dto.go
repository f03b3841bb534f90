package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/models"
)

// CreateNoteRequest is the payload for POST /notes.
type CreateNoteRequest struct {
	Deck  string `json:"deck"`
	Front string `json:"front"`
	Back  string `json:"back"`
	Tag   string `json:"tag"`
	Kind  string `json:"kind"`
}

// Validate validates the request.
func (r CreateNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Deck, validation.Required),
		validation.Field(&r.Front, validation.Required),
		validation.Field(&r.Back, validation.Required),
		validation.Field(&r.Kind, validation.In(
			string(models.KindBasic), string(models.KindBasicReversed))),
	)
}

// ExportRequest is the payload for POST /export.
type ExportRequest struct {
	Dest string `json:"dest"`
}

// Validate validates the request.
func (r ExportRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Dest, validation.Required),
	)
}
