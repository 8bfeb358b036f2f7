// Package pagination pages an already filtered, fully loaded list.
package pagination

// window is the largest page count rendered without ellipses.
const window = 5

func PageCount(total, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Clamp keeps page within [1, count].
func Clamp(page, count int) int {
	if page > count {
		page = count
	}
	if page < 1 {
		page = 1
	}
	return page
}

// Slice returns the items of a 1-based page.
func Slice[T any](items []T, page, size int) []T {
	if size <= 0 {
		return items
	}
	page = Clamp(page, PageCount(len(items), size))
	start := (page - 1) * size
	if start >= len(items) {
		return nil
	}
	end := min(start+size, len(items))
	return items[start:end]
}

// Item is one entry of the control: a page button or an ellipsis.
type Item struct {
	Page     int
	Current  bool
	Ellipsis bool
}

type Control struct {
	Visible      bool
	Current      int
	Count        int
	PrevDisabled bool
	NextDisabled bool
	Pages        []Item
}

// NewControl describes Previous/pages/Next for the current page. Nothing is
// shown for a single page.
func NewControl(current, count int) Control {
	if count <= 1 {
		return Control{Current: 1, Count: count}
	}
	current = Clamp(current, count)
	c := Control{
		Visible:      true,
		Current:      current,
		Count:        count,
		PrevDisabled: current == 1,
		NextDisabled: current == count,
	}
	for _, p := range visiblePages(current, count) {
		if p == 0 {
			c.Pages = append(c.Pages, Item{Ellipsis: true})
			continue
		}
		c.Pages = append(c.Pages, Item{Page: p, Current: p == current})
	}
	return c
}

// visiblePages lists the page numbers to render; 0 marks an ellipsis.
func visiblePages(current, count int) []int {
	if count <= window {
		pages := make([]int, count)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages
	}
	switch {
	case current <= 2:
		return []int{1, 2, 3, 0, count}
	case current >= count-1:
		return []int{1, 0, count - 2, count - 1, count}
	default:
		return []int{1, 0, current, 0, count}
	}
}

func (c Control) Prev() int { return c.Current - 1 }
func (c Control) Next() int { return c.Current + 1 }
