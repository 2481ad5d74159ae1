// Package favorites holds the per-customer list of favorite restaurants that
// travels in a cookie as a hyphen-terminated id list such as "3-7-12-".
package favorites

import (
	"fmt"
	"strconv"
	"strings"
)

const separator = "-"

// List is an ordered list of restaurant ids. Duplicates are kept.
type List []int

// CookieName returns the cookie that carries the favorites of a customer.
func CookieName(customerID int) string {
	return "customer" + strconv.Itoa(customerID) + "Favorites"
}

// Parse decodes a cookie value. An empty value yields an empty list.
func Parse(raw string) (List, error) {
	list := List{}
	for _, token := range strings.Split(raw, separator) {
		if token == "" {
			continue
		}
		id, err := strconv.Atoi(token)
		if err != nil {
			return nil, fmt.Errorf("favorites: invalid restaurant id %q: %w", token, err)
		}
		list = append(list, id)
	}
	return list, nil
}

// Add appends ids in order without deduplication.
func (l List) Add(ids ...int) List {
	out := make(List, 0, len(l)+len(ids))
	out = append(out, l...)
	return append(out, ids...)
}

// Remove drops the first occurrence of id. The list is returned unchanged if id is absent.
func (l List) Remove(id int) List {
	out := make(List, 0, len(l))
	removed := false
	for _, v := range l {
		if v == id && !removed {
			removed = true
			continue
		}
		out = append(out, v)
	}
	return out
}

// String encodes the list back into the cookie format.
func (l List) String() string {
	var b strings.Builder
	for _, id := range l {
		b.WriteString(strconv.Itoa(id))
		b.WriteString(separator)
	}
	return b.String()
}
