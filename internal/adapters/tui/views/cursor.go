package views

import (
	"slices"

	"owlsync/internal/domain"
)

// pluginCursor selects a row of the paged plugin list. The selection is
// carried over by plugin path when the list is refiltered or reloaded.
type pluginCursor struct {
	rows   int
	offset int
	index  int
	total  int
}

func newPluginCursor(rows int) *pluginCursor {
	return &pluginCursor{rows: max(rows, 1)}
}

// setRows changes the page height after a resize
func (c *pluginCursor) setRows(rows int) {
	c.rows = max(rows, 1)
	c.follow()
}

// reset points the cursor at the plugin whose path is selected, or at the
// first plugin when that one is no longer listed.
func (c *pluginCursor) reset(plugins []domain.Plugin, selected string) {
	c.total = len(plugins)
	c.index = 0
	if selected != "" {
		if i := slices.IndexFunc(plugins, func(p domain.Plugin) bool { return p.Path == selected }); i >= 0 {
			c.index = i
		}
	}
	c.follow()
}

func (c *pluginCursor) move(delta int) {
	c.index = max(min(c.index+delta, c.total-1), 0)
	c.follow()
}

// turn flips pages and selects the first row of the page it lands on
func (c *pluginCursor) turn(pages int) {
	offset := c.offset + pages*c.rows
	if offset < 0 || offset >= c.total {
		return
	}
	c.offset, c.index = offset, offset
}

func (c *pluginCursor) first() {
	c.move(-c.total)
}

func (c *pluginCursor) last() {
	c.move(c.total)
}

// window returns the bounds of the visible rows
func (c *pluginCursor) window() (start, end int) {
	return c.offset, min(c.offset+c.rows, c.total)
}

// page returns the 1-based current page and the page count
func (c *pluginCursor) page() (current, count int) {
	return c.offset/c.rows + 1, max((c.total+c.rows-1)/c.rows, 1)
}

func (c *pluginCursor) follow() {
	c.offset = c.index / c.rows * c.rows
}
