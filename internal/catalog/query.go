package catalog

import (
	"net/url"
	"strconv"
	"strings"
)

// AnyValue is the select value meaning "no constraint on this field".
const AnyValue = "all"

// Query holds the filters the character endpoint understands natively.
type Query struct {
	Name   string
	Status string
	Gender string
}

// Values builds the query string for the given page. Empty fields and the
// "all" sentinel are omitted so the API applies no constraint.
func (q Query) Values(page int) url.Values {
	v := url.Values{}
	if page < 1 {
		page = 1
	}
	v.Set("page", strconv.Itoa(page))
	if name := strings.TrimSpace(q.Name); name != "" {
		v.Set("name", name)
	}
	if isConstraint(q.Status) {
		v.Set("status", strings.ToLower(q.Status))
	}
	if isConstraint(q.Gender) {
		v.Set("gender", strings.ToLower(q.Gender))
	}
	return v
}

func isConstraint(v string) bool {
	return v != "" && !strings.EqualFold(v, AnyValue)
}
