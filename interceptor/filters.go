package interceptor

import (
	"context"
	"maps"

	"github.com/gaborage/logbricks/logger"
)

// TagFilter keeps or drops entries by tag.
type TagFilter struct {
	tags  map[string]struct{}
	allow bool
}

// DenyTags drops entries whose tag is listed.
func DenyTags(tags ...string) *TagFilter {
	return newTagFilter(tags, false)
}

// AllowTags drops entries whose tag is not listed.
func AllowTags(tags ...string) *TagFilter {
	return newTagFilter(tags, true)
}

func newTagFilter(tags []string, allow bool) *TagFilter {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return &TagFilter{tags: set, allow: allow}
}

func (f *TagFilter) Intercept(_ context.Context, e logger.Entry) (logger.Entry, error) {
	_, listed := f.tags[e.Tag]
	if listed != f.allow {
		return e, logger.ErrDrop
	}
	return e, nil
}

// LevelFilter keeps entries whose priority lies within an inclusive range.
type LevelFilter struct {
	min, max logger.Level
}

// LevelRange keeps entries between min and max inclusive. Invalid bounds are replaced by
// Verbose and Assert respectively.
func LevelRange(minLevel, maxLevel logger.Level) *LevelFilter {
	if !minLevel.Valid() {
		minLevel = logger.Verbose
	}
	if !maxLevel.Valid() {
		maxLevel = logger.Assert
	}
	return &LevelFilter{min: minLevel, max: maxLevel}
}

func (f *LevelFilter) Intercept(_ context.Context, e logger.Entry) (logger.Entry, error) {
	if e.Level.AtLeast(f.min) && f.max.AtLeast(e.Level) {
		return e, nil
	}
	return e, logger.ErrDrop
}

// Enricher adds static metadata to every entry.
type Enricher struct {
	fields map[string]any
}

// Enrich adds fields to each entry's metadata. Keys already present on an entry win.
func Enrich(fields map[string]any) *Enricher {
	return &Enricher{fields: maps.Clone(fields)}
}

func (en *Enricher) Intercept(_ context.Context, e logger.Entry) (logger.Entry, error) {
	if len(en.fields) == 0 {
		return e, nil
	}
	md := make(map[string]any, len(e.Metadata)+len(en.fields))
	maps.Copy(md, en.fields)
	maps.Copy(md, e.Metadata)
	e.Metadata = md
	return e, nil
}
