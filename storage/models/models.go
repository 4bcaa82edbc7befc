package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const IdField = "id"

// Post is an open set of fields. Only "id" has a meaning to the service.
type Post map[string]interface{}

// Collection is the ordered list of posts exactly as it is stored.
type Collection []Post

// ID returns the numeric id of the post. Posts without an integral id
// never match any lookup.
func (p Post) ID() (int, bool) {
	switch v := p[IdField].(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}

// Merge returns a new post holding the fields of p overwritten by fields.
func (p Post) Merge(fields Post) Post {
	merged := make(Post, len(p)+len(fields))
	for k, v := range p {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return merged
}

// NextID is the id given to the next created post: the collection length
// plus one. It is not max+1, so ids can repeat after a delete.
func (c Collection) NextID() int {
	return len(c) + 1
}

// IndexOf returns the position of the first post with the given id, or -1.
func (c Collection) IndexOf(id int) int {
	for i, p := range c {
		if pid, ok := p.ID(); ok && pid == id {
			return i
		}
	}
	return -1
}

// Without returns a new collection that keeps every post whose id differs.
func (c Collection) Without(id int) Collection {
	kept := make(Collection, 0, len(c))
	for _, p := range c {
		if pid, ok := p.ID(); ok && pid == id {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

// ParseID reads a path id the way parseInt(s, 10) does: leading blanks are
// skipped, an optional sign and the leading run of digits are taken and the
// rest is ignored. ok is false when there are no digits to read.
func ParseID(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	id, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return id, true
}
