package simplecms

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Slugify lowercases text, collapses every run of non-alphanumeric characters
// into one hyphen, and trims hyphens from both ends.
func Slugify(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	pendingHyphen := false
	for _, r := range strings.ToLower(text) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// SlugExistsFunc reports whether candidate is already taken in some scope.
type SlugExistsFunc func(ctx context.Context, candidate string) (bool, error)

// maxSlugAttempts bounds the suffix search so a broken scope query cannot spin forever.
const maxSlugAttempts = 10000

// EnsureUniqueSlug returns candidate if it is free, otherwise the first of
// candidate-1, candidate-2, ... that is.
func EnsureUniqueSlug(ctx context.Context, exists SlugExistsFunc, candidate string) (string, error) {
	slug := candidate
	for i := 1; i <= maxSlugAttempts; i++ {
		taken, err := exists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", candidate, i)
	}
	return "", fmt.Errorf("%w: no free suffix for %q", ErrSlugConflict, candidate)
}

// DeriveEntrySlug picks the slug candidate for a new entry: the caller's slug
// verbatim, else the slugified value of the first TEXT field supplied, else
// "entry-{id}". A TEXT value that slugifies to nothing (only punctuation, say)
// is passed over and the next TEXT value is tried.
func DeriveEntrySlug(ct *ContentType, req CreateEntryRequest, entryID uuid.UUID) string {
	if req.Slug != "" {
		return req.Slug
	}
	for _, fv := range req.FieldValues {
		f := ct.Field(fv.FieldID)
		if f == nil || !f.FieldType.Behavior().SlugSource {
			continue
		}
		if s := Slugify(fv.Value); s != "" {
			return s
		}
	}
	return "entry-" + entryID.String()
}
