package slug

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	gosimple "github.com/gosimple/slug"
)

const (
	// MaxLength is the longest slug the post store accepts.
	MaxLength = 255
	// MaxBaseLength is the longest base candidate, explicit or derived. It
	// leaves room for a numeric suffix.
	MaxBaseLength = 240

	fallback = "post"
)

var (
	disallowed = regexp.MustCompile(`[^a-z0-9 -]`)
	whitespace = regexp.MustCompile(`\s+`)
	hyphens    = regexp.MustCompile(`-+`)
	valid      = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Derive turns a title into a slug: lowercase, drop everything outside
// [a-z0-9 -], join words with single hyphens and trim hyphens at the edges.
func Derive(title string) string {
	s := strings.ToLower(title)
	s = disallowed.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "-")
	s = hyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Valid reports whether s is an acceptable explicit slug.
func Valid(s string) bool {
	return len(s) <= MaxBaseLength && valid.MatchString(s)
}

// Base returns the candidate slug before collision handling. An explicit slug
// wins. Titles with nothing left after Derive are transliterated, and if that
// is empty too the literal "post" is used.
func Base(title, explicit string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit
	}
	base := Derive(title)
	if base == "" {
		base = Derive(gosimple.Make(title))
	}
	if base == "" {
		base = fallback
	}
	return truncate(base)
}

func truncate(s string) string {
	if len(s) <= MaxBaseLength {
		return s
	}
	return strings.TrimRight(s[:MaxBaseLength], "-")
}

type Checker interface {
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
}

type Allocator struct {
	checker Checker
}

func NewAllocator(checker Checker) *Allocator {
	return &Allocator{checker: checker}
}

// Allocate returns the first of base, base-1, base-2, ... that no post holds.
// The result is not reserved; the store's unique index settles races.
func (a *Allocator) Allocate(ctx context.Context, title, explicit string) (string, error) {
	base := Base(title, explicit)
	candidate := base
	for counter := 1; ; counter++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		exists, err := a.checker.ExistsBySlug(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(counter)
	}
}
