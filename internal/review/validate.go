package review

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"tuneshelf/internal/services"
)

const (
	maxTitleRunes  = 300
	maxArtistRunes = 300
	maxGenreRunes  = 200
)

// ConfirmInput is the human-approved metadata for an item.
type ConfirmInput struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Genre  string `json:"genre"`
}

// UpdateInput edits an item in place. Nil fields are left unchanged.
type UpdateInput struct {
	Title  *string `json:"title,omitempty"`
	Artist *string `json:"artist,omitempty"`
	Genre  *string `json:"genre,omitempty"`
}

func validationError(operation, message string) error {
	return services.Wrap(services.ErrValidation, "review", operation, message, nil)
}

func (in ConfirmInput) normalized() ConfirmInput {
	return ConfirmInput{
		Title:  strings.TrimSpace(in.Title),
		Artist: strings.TrimSpace(in.Artist),
		Genre:  strings.TrimSpace(in.Genre),
	}
}

func validateConfirm(in ConfirmInput, sentinel string) error {
	switch {
	case in.Title == "":
		return validationError("confirm", "title is required")
	case in.Artist == "":
		return validationError("confirm", "artist is required")
	case in.Genre == "":
		return validationError("confirm", "genre is required")
	case sentinel != "" && in.Genre == strings.TrimSpace(sentinel):
		return validationError("confirm", fmt.Sprintf("genre %q is a placeholder; enter the actual genre", in.Genre))
	}
	return validateLengths("confirm", in.Title, in.Artist, in.Genre)
}

func validateLengths(operation, title, artist, genre string) error {
	if utf8.RuneCountInString(title) > maxTitleRunes {
		return validationError(operation, fmt.Sprintf("title exceeds %d characters", maxTitleRunes))
	}
	if utf8.RuneCountInString(artist) > maxArtistRunes {
		return validationError(operation, fmt.Sprintf("artist exceeds %d characters", maxArtistRunes))
	}
	if utf8.RuneCountInString(genre) > maxGenreRunes {
		return validationError(operation, fmt.Sprintf("genre exceeds %d characters", maxGenreRunes))
	}
	return nil
}

func trimmedOr(value *string, fallback string) string {
	if value == nil {
		return fallback
	}
	return strings.TrimSpace(*value)
}
