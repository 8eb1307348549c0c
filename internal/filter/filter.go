// Package filter narrows a fetched list of reflections by set membership.
// Filtering never touches the store: views fetch once and recompute from the
// full list on every change.
package filter

import (
	"net/url"
	"sort"
	"strconv"

	"reflections/internal/entity"
)

// Criteria holds one optional set per column. A nil set selects every
// value; an empty non-nil set selects nothing.
type Criteria struct {
	Difficulties map[int]bool
	Sentiments   map[int]bool
	Usernames    map[string]bool
}

// All selects every row.
func All() Criteria {
	return Criteria{}
}

func Apply(rows []entity.Reflection, c Criteria) []entity.Reflection {
	out := make([]entity.Reflection, 0, len(rows))

	for _, row := range rows {
		if c.Difficulties != nil && !c.Difficulties[row.Difficulty] {
			continue
		}
		if c.Sentiments != nil && !c.Sentiments[row.Sentiment] {
			continue
		}
		if c.Usernames != nil && !c.Usernames[row.Username] {
			continue
		}
		out = append(out, row)
	}

	return out
}

// Parse reads repeated "difficulty", "sentiment" and "user" query values.
// Until the filter form has been submitted (marked by "filtered") every set
// is nil, which is the "everything selected" default. After that, a
// parameter that is absent means nothing of that column is selected.
func Parse(q url.Values) Criteria {
	if q.Get("filtered") == "" {
		return All()
	}

	return Criteria{
		Difficulties: parseScale(q["difficulty"]),
		Sentiments:   parseScale(q["sentiment"]),
		Usernames:    parseStrings(q["user"]),
	}
}

func parseScale(values []string) map[int]bool {
	set := make(map[int]bool, len(values))
	for _, v := range values {
		n, err := strconv.Atoi(v)
		if err != nil || n < entity.MinScale || n > entity.MaxScale {
			continue
		}
		set[n] = true
	}
	return set
}

func parseStrings(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// Usernames returns the distinct usernames of rows, sorted.
func Usernames(rows []entity.Reflection) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)

	for _, row := range rows {
		if seen[row.Username] {
			continue
		}
		seen[row.Username] = true
		names = append(names, row.Username)
	}

	sort.Strings(names)
	return names
}

// Option is one checkbox in a filter group.
type Option struct {
	Value   string
	Label   string
	Checked bool
}

func ScaleOptions(selected map[int]bool, label func(int) string) []Option {
	values := entity.ScaleValues()
	opts := make([]Option, 0, len(values))

	for _, v := range values {
		text := strconv.Itoa(v)
		if label != nil {
			text = label(v)
		}
		opts = append(opts, Option{
			Value:   strconv.Itoa(v),
			Label:   text,
			Checked: selected == nil || selected[v],
		})
	}

	return opts
}

func UsernameOptions(names []string, selected map[string]bool) []Option {
	opts := make([]Option, 0, len(names))

	for _, name := range names {
		label := name
		if label == "" {
			label = "(anonymous)"
		}
		opts = append(opts, Option{
			Value:   name,
			Label:   label,
			Checked: selected == nil || selected[name],
		})
	}

	return opts
}
