package models

import (
	"database/sql/driver"

	"github.com/lib/pq"
)

// PermissionSet is an unordered set of permission tags stored as a
// Postgres text array.
type PermissionSet []string

// Contains reports membership of a single tag.
func (p PermissionSet) Contains(tag string) bool {
	for _, t := range p {
		if t == tag {
			return true
		}
	}
	return false
}

// ContainsAll reports whether every required tag is present (AND semantics).
func (p PermissionSet) ContainsAll(tags []string) bool {
	for _, tag := range tags {
		if !p.Contains(tag) {
			return false
		}
	}
	return true
}

// Scan implements sql.Scanner.
func (p *PermissionSet) Scan(src interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	*p = PermissionSet(arr)
	return nil
}

// Value implements driver.Valuer.
func (p PermissionSet) Value() (driver.Value, error) {
	return pq.StringArray(p).Value()
}
