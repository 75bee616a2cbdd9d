package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joacominatel/sqlfn"
	"github.com/joacominatel/sqlfn/internal/app"
	"github.com/joacominatel/sqlfn/internal/config"
	"github.com/joacominatel/sqlfn/internal/pgtest"
	"github.com/joacominatel/sqlfn/internal/tui/explorer"
	"github.com/joacominatel/sqlfn/internal/tui/results"
)

func newService(conn *pgtest.Conn) *app.Service {
	return app.NewService(sqlfn.Options{}.WithConnector(func(context.Context, string) (sqlfn.Conn, error) {
		return conn, nil
	}))
}

// connectedModel returns a model in main mode over a fake database named shop.
func connectedModel(t *testing.T, conn *pgtest.Conn, dir string) Model {
	t.Helper()
	conn.Default = pgtest.Result{
		Fields: []pgconn.FieldDescription{pgtest.Field("name", pgtype.TextOID)},
		Rows:   [][]any{{"shop"}},
	}
	m := NewModel(newService(conn), &config.Config{}, dir, "")
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = updated.(Model)

	msg := m.connectCmd("postgres://me@db.local/shop", true)()
	updated, cmd := m.Update(msg)
	require.NotNil(t, cmd)
	return updated.(Model)
}

func TestInitialMode(t *testing.T) {
	cfg := &config.Config{Connections: []config.Connection{{Name: "local", Host: "localhost"}}}
	assert.Equal(t, ModeSelectConnection, NewModel(nil, cfg, "", "").mode)
	assert.Equal(t, ModeConnect, NewModel(nil, cfg, "", "postgres://x/y").mode)
	assert.Equal(t, ModeConnect, NewModel(nil, &config.Config{}, "", "").mode)
}

func TestConnectAndSaveProfile(t *testing.T) {
	dir := t.TempDir()
	m := connectedModel(t, pgtest.NewConn(), dir)
	assert.Equal(t, ModeMain, m.mode)
	assert.Contains(t, m.View(), "shop")

	updated, _ := m.Update(m.saveConnectionCmd("postgres://me@db.local/shop")())
	m = updated.(Model)
	assert.True(t, m.cfg.HasConnection("db.local-5432-shop"))
	assert.Nil(t, m.saveConnectionCmd("postgres://me@db.local/shop"), "known profiles are not saved twice")

	saved, err := config.Load(dir)
	require.NoError(t, err)
	require.Len(t, saved.Connections, 1)
	assert.Equal(t, "db.local", saved.Connections[0].Host)
}

func TestQueryFlow(t *testing.T) {
	conn := pgtest.NewConn()
	m := connectedModel(t, conn, t.TempDir())
	conn.On("SELECT id FROM t", pgtest.Result{
		Fields: []pgconn.FieldDescription{pgtest.Field("id", pgtype.Int4OID)},
		Rows:   [][]any{{int32(7)}, {int32(8)}},
	})

	updated, cmd := m.Update(explorer.QuickQueryMsg{Query: "SELECT id FROM t"})
	m = updated.(Model)
	require.NotNil(t, cmd)
	assert.Equal(t, "SELECT id FROM t", m.editor.Value())

	updated, _ = m.Update(cmd())
	m = updated.(Model)
	res := m.results.Result()
	require.NotNil(t, res)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "int", res.Columns[0].Kind.String())
	assert.Zero(t, conn.Closed(), "the console keeps its connection open")
}

func TestQueryError(t *testing.T) {
	conn := pgtest.NewConn()
	m := connectedModel(t, conn, t.TempDir())
	conn.On("SELEC 1", pgtest.Result{Err: &pgconn.PgError{Code: "42601", Message: "syntax error"}})

	updated, _ := m.Update(m.executeQueryCmd("SELEC 1")())
	m = updated.(Model)
	assert.Nil(t, m.results.Result())
	assert.Contains(t, m.results.View(), "syntax error")
}

func TestPaneCycling(t *testing.T) {
	m := connectedModel(t, pgtest.NewConn(), t.TempDir())
	require.Equal(t, PaneExplorer, m.activePane)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	assert.Equal(t, PaneEditor, m.activePane)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m = updated.(Model)
	assert.Equal(t, PaneExplorer, m.activePane)

	updated, _ = m.Update(results.SetEditorQueryMsg{Query: "DELETE FROM t WHERE id = 1"})
	m = updated.(Model)
	assert.Equal(t, PaneEditor, m.activePane)
	assert.Equal(t, "DELETE FROM t WHERE id = 1", m.editor.Value())
}

func TestDisconnect(t *testing.T) {
	conn := pgtest.NewConn()
	m := connectedModel(t, conn, t.TempDir())

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	m = updated.(Model)
	require.NotNil(t, cmd)
	updated, _ = m.Update(cmd())
	m = updated.(Model)

	assert.Equal(t, ModeConnect, m.mode)
	assert.False(t, m.service.Connected())
	assert.Equal(t, 1, conn.Closed())
}

func TestHelpToggle(t *testing.T) {
	m := connectedModel(t, pgtest.NewConn(), t.TempDir())
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	m = updated.(Model)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	m = updated.(Model)
	assert.NotContains(t, m.View(), "Keyboard Shortcuts")
}
