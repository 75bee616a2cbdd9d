package statusbar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestView(t *testing.T) {
	m := New()
	m.SetWidth(120)
	assert.Contains(t, m.View(), "disconnected")
	assert.Contains(t, m.View(), "Ctrl+E: Execute")

	m.SetConnected(true, "shop")
	m.SetActivePane("results")
	m.SetLastQuery(3, 0, 1500*time.Microsecond)
	view := m.View()
	assert.Contains(t, view, "shop")
	assert.Contains(t, view, "[results]")
	assert.Contains(t, view, "3 rows in 2ms")

	m.SetLastQuery(0, 7, time.Second)
	assert.Contains(t, m.View(), "7 affected in 1s")

	m.SetError("boom")
	assert.Contains(t, m.View(), "boom")
	assert.NotContains(t, m.View(), "Ctrl+E: Execute")

	m.SetConnected(false, "")
	assert.NotContains(t, m.View(), "affected")
}
