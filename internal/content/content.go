// Package content builds and validates the block structure of a post.
//
// A post has up to MaxBlocks slots. Slot 1 is mandatory; later slots are
// all-or-nothing: a slot is present iff its title is, and a body or header image
// without a title is rejected rather than dropped.
package content

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"blog/backend/internal/model"
	"blog/backend/internal/outcome"
)

const (
	MaxBlocks   = 4
	MinTitleLen = 3
	MinBodyLen  = 10
)

// RawBlock is one slot as submitted by the client, before validation.
type RawBlock struct {
	Title          string
	Body           string
	HeaderImageURL string
}

// Upload is a header image file already received by the transport.
type Upload struct {
	Data        []byte
	ContentType string
}

// Uploads maps a 1-based slot number to its header image.
type Uploads map[int]Upload

var titleNames = [MaxBlocks]string{"Title", "Sub header", "Second sub header", "Third sub header"}

// Field names match the form fields clients submit.
func titleField(slot int) string { return fmt.Sprintf("title%d", slot) }
func bodyField(slot int) string  { return fmt.Sprintf("body%d", slot) }
func imageField(slot int) string { return fmt.Sprintf("headerImg%d", slot) }

// Normalize trims every field of raw.
func Normalize(raw []RawBlock) []RawBlock {
	out := make([]RawBlock, len(raw))
	for i, b := range raw {
		out[i] = RawBlock{
			Title:          strings.TrimSpace(b.Title),
			Body:           strings.TrimSpace(b.Body),
			HeaderImageURL: strings.TrimSpace(b.HeaderImageURL),
		}
	}
	return out
}

// Validate checks normalized slots and uploads and returns every violation found.
func Validate(raw []RawBlock, uploads Uploads) []outcome.FieldError {
	var errs []outcome.FieldError
	if len(raw) > MaxBlocks {
		errs = append(errs, outcome.FieldError{
			Field:   "content",
			Message: fmt.Sprintf("A post has at most %d blocks.", MaxBlocks),
		})
	}
	for slot := range uploads {
		if slot < 1 || slot > MaxBlocks {
			errs = append(errs, outcome.FieldError{Field: imageField(slot), Message: "Unknown header image slot."})
		}
	}

	for slot := 1; slot <= MaxBlocks; slot++ {
		var b RawBlock
		if slot <= len(raw) {
			b = raw[slot-1]
		}
		upload, hasUpload := uploads[slot]

		if b.Title == "" && slot > 1 {
			if b.Body != "" {
				errs = append(errs, outcome.FieldError{Field: bodyField(slot), Message: "Body requires a title.", Entry: b.Body})
			}
			if hasUpload || b.HeaderImageURL != "" {
				errs = append(errs, outcome.FieldError{Field: imageField(slot), Message: "Header image requires a title."})
			}
			continue
		}

		if utf8.RuneCountInString(b.Title) < MinTitleLen {
			errs = append(errs, outcome.FieldError{
				Field:   titleField(slot),
				Message: fmt.Sprintf("%s should have at least %d characters.", titleNames[slot-1], MinTitleLen),
				Entry:   b.Title,
			})
		}
		if utf8.RuneCountInString(b.Body) < MinBodyLen {
			errs = append(errs, outcome.FieldError{
				Field:   bodyField(slot),
				Message: fmt.Sprintf("Body should have at least %d characters.", MinBodyLen),
				Entry:   b.Body,
			})
		}
		if hasUpload && !strings.HasPrefix(upload.ContentType, "image/") {
			errs = append(errs, outcome.FieldError{Field: imageField(slot), Message: "Header image should be an image.", Entry: upload.ContentType})
		}
		if !hasUpload && b.HeaderImageURL != "" && !validImageURL(b.HeaderImageURL) {
			errs = append(errs, outcome.FieldError{Field: imageField(slot), Message: "Header image should be a valid URL.", Entry: b.HeaderImageURL})
		}
	}
	return errs
}

func validImageURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// BuildContent turns validated, sanitized slots into the post's block sequence.
// Slots are kept in order; a slot without a title is skipped, unless it carries a
// body or image, which is an error. An upload takes precedence over an image URL.
func BuildContent(raw []RawBlock, uploads Uploads) ([]model.ContentBlock, error) {
	blocks := make([]model.ContentBlock, 0, MaxBlocks)
	for slot := 1; slot <= MaxBlocks && slot <= len(raw); slot++ {
		b := raw[slot-1]
		upload, hasUpload := uploads[slot]
		if strings.TrimSpace(b.Title) == "" {
			if b.Body != "" || b.HeaderImageURL != "" || hasUpload {
				return nil, outcome.Invalid(outcome.FieldError{Field: titleField(slot), Message: "Block content requires a title."})
			}
			continue
		}

		block := model.ContentBlock{Title: b.Title, Body: b.Body}
		switch {
		case hasUpload:
			block.HeaderImage = &model.HeaderImage{Data: upload.Data, ContentType: upload.ContentType}
		case b.HeaderImageURL != "":
			block.HeaderImage = &model.HeaderImage{URL: b.HeaderImageURL}
		}
		blocks = append(blocks, block)
	}
	if len(blocks) == 0 {
		return nil, outcome.Invalid(outcome.FieldError{Field: titleField(1), Message: "A post needs at least one block."})
	}
	return blocks, nil
}

// Prepare runs the whole pipeline used by create and update: sanitize, normalize,
// validate, build. Length rules apply to the text as stored. The result fully
// replaces any previous content.
func Prepare(raw []RawBlock, uploads Uploads) ([]model.ContentBlock, error) {
	clean := make([]RawBlock, len(raw))
	for i, b := range raw {
		clean[i] = RawBlock{
			Title:          Sanitize(b.Title),
			Body:           Sanitize(b.Body),
			HeaderImageURL: b.HeaderImageURL,
		}
	}
	clean = Normalize(clean)
	if err := outcome.Invalid(Validate(clean, uploads)...); err != nil {
		return nil, err
	}
	return BuildContent(clean, uploads)
}
