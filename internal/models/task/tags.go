package task

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"taskflow/internal/errs"

	"golang.org/x/text/cases"
)

const MaxTagLength = 100

func foldTag(tag string) string {
	return cases.Fold().String(tag)
}

func validateTag(tag string) (string, error) {
	clean := strings.TrimSpace(tag)
	if clean == "" {
		return "", errs.NewValidation("tag", "must not be empty")
	}
	if utf8.RuneCountInString(clean) > MaxTagLength {
		return "", errs.NewValidation("tag", fmt.Sprintf("must be at most %d characters", MaxTagLength))
	}
	return clean, nil
}

func (t *Task) Tags() []string {
	out := make([]string, len(t.tags))
	copy(out, t.tags)
	return out
}

func (t *Task) HasTag(tag string) bool {
	folded := foldTag(strings.TrimSpace(tag))
	for _, existing := range t.tags {
		if foldTag(existing) == folded {
			return true
		}
	}
	return false
}

// AddTag keeps the first spelling of a tag; adding it again in another case
// is a no-op.
func (t *Task) AddTag(tag string) error {
	clean, err := validateTag(tag)
	if err != nil {
		return err
	}
	if t.HasTag(clean) {
		return nil
	}
	t.tags = append(t.tags, clean)
	return nil
}

func (t *Task) RemoveTag(tag string) {
	folded := foldTag(strings.TrimSpace(tag))
	for i, existing := range t.tags {
		if foldTag(existing) == folded {
			t.tags = append(t.tags[:i:i], t.tags[i+1:]...)
			return
		}
	}
}

// NormalizeTags trims and validates tags. Duplicates differing only in case
// collapse to the first occurrence.
func NormalizeTags(tags []string) ([]string, error) {
	next := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		clean, err := validateTag(tag)
		if err != nil {
			return nil, err
		}
		folded := foldTag(clean)
		if _, ok := seen[folded]; ok {
			continue
		}
		seen[folded] = struct{}{}
		next = append(next, clean)
	}
	return next, nil
}

// SetTags replaces all tags following NormalizeTags.
func (t *Task) SetTags(tags []string) error {
	next, err := NormalizeTags(tags)
	if err != nil {
		return err
	}
	t.tags = next
	return nil
}
