package table

// AllowedPageSizes is the fixed set a cursor may use.
var AllowedPageSizes = []int{10, 20, 50, 100}

// DefaultPageSize applies when the caller supplies none.
const DefaultPageSize = 20

// Cursor is pure pagination state bound to a server-reported total.
type Cursor struct {
	Page     int
	PageSize int
	Total    int
}

// NewCursor builds a normalized cursor.
func NewCursor(page, pageSize, total int) Cursor {
	c := Cursor{Page: page, PageSize: pageSize, Total: total}
	c.normalize()
	return c
}

// TotalPages derives the page count, never below 1.
func (c Cursor) TotalPages() int {
	size := c.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := (c.Total + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	return pages
}

// SetPage moves the cursor, clamped to [1, TotalPages].
func (c *Cursor) SetPage(page int) {
	c.Page = page
	c.normalize()
}

// SetPageSize changes the page size, restricted to the allowed set, and
// re-clamps the page so a refetch starts from a valid position.
func (c *Cursor) SetPageSize(size int) {
	c.PageSize = size
	c.normalize()
}

// Offset is the SQL offset for the current position.
func (c Cursor) Offset() int {
	return (c.Page - 1) * c.PageSize
}

// HasPrev reports whether a previous page exists.
func (c Cursor) HasPrev() bool {
	return c.Page > 1
}

// HasNext reports whether a next page exists.
func (c Cursor) HasNext() bool {
	return c.Page < c.TotalPages()
}

// PageLinks enumerates 1..TotalPages for numbered controls.
func (c Cursor) PageLinks() []int {
	links := make([]int, c.TotalPages())
	for i := range links {
		links[i] = i + 1
	}
	return links
}

func (c *Cursor) normalize() {
	if !allowedSize(c.PageSize) {
		c.PageSize = DefaultPageSize
	}
	if c.Total < 0 {
		c.Total = 0
	}
	if c.Page < 1 {
		c.Page = 1
	}
	if max := c.TotalPages(); c.Page > max {
		c.Page = max
	}
}

func allowedSize(size int) bool {
	for _, s := range AllowedPageSizes {
		if s == size {
			return true
		}
	}
	return false
}
