package domain

import (
	"net/url"
	"strconv"
	"strings"
)

// QueryOptions are the OData system query options supported by the client.
type QueryOptions struct {
	Select  []string
	Expand  []string
	Filter  string
	OrderBy []string
	Search  string
	Top     int
	Skip    int
	Count   bool
}

// Values encodes the options as URL query parameters. Unset options are omitted.
func (q QueryOptions) Values() url.Values {
	v := url.Values{}
	if len(q.Select) > 0 {
		v.Set("$select", strings.Join(q.Select, ","))
	}
	if len(q.Expand) > 0 {
		v.Set("$expand", strings.Join(q.Expand, ","))
	}
	if q.Filter != "" {
		v.Set("$filter", q.Filter)
	}
	if len(q.OrderBy) > 0 {
		v.Set("$orderby", strings.Join(q.OrderBy, ","))
	}
	if q.Search != "" {
		v.Set("$search", q.Search)
	}
	if q.Top > 0 {
		v.Set("$top", strconv.Itoa(q.Top))
	}
	if q.Skip > 0 {
		v.Set("$skip", strconv.Itoa(q.Skip))
	}
	if q.Count {
		v.Set("$count", "true")
	}
	return v
}
