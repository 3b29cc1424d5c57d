package siteconfig

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// SectionChanged reports whether next differs from the last saved value of a
// section. A nil slice and an empty one are the same thing on disk.
func SectionChanged[T any](saved, next T) bool {
	return !cmp.Equal(saved, next, cmpopts.EquateEmpty())
}

// ProductChanged ignores the bookkeeping dates, which change on every save.
func ProductChanged(old, next Product) bool {
	return !cmp.Equal(old, next,
		cmpopts.EquateEmpty(),
		cmpopts.IgnoreFields(Product{}, "DateAdded", "DateUpdated"),
	)
}
