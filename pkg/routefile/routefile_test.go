package routefile_test

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/waypoint/pkg/routefile"
)

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("mapping and tuple forms", func(t *testing.T) {
		t.Parallel()

		src := `
- method: get
  path: /
  handler: Home.index
- method: POST
  path: /login
  handler: Auth.login
  guard: guest
- [GET, /dashboard, Dashboard.index, auth]
- [GET, "/admin/users/{id}", Admin.show, [auth, "role:admin"]]
`
		entries, err := routefile.Parse("web.yaml", []byte(src))
		require.NoError(t, err)
		require.Len(t, entries, 4)

		require.Equal(t, routefile.Entry{Method: "GET", Path: "/", Handler: "Home.index", Source: "web.yaml"}, entries[0])
		require.Nil(t, entries[0].GuardValue())

		require.Equal(t, "guest", entries[1].GuardValue())
		require.Equal(t, "auth", entries[2].GuardValue())
		require.Equal(t, []any{"auth", "role:admin"}, entries[3].GuardValue())
		require.Equal(t, "/admin/users/{id}", entries[3].Path)
	})

	t.Run("empty document", func(t *testing.T) {
		t.Parallel()

		entries, err := routefile.Parse("empty.yaml", []byte(""))
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	malformed := map[string]string{
		"not a list":        `method: GET`,
		"scalar route":      `- GET /`,
		"short tuple":       `- [GET, /]`,
		"long tuple":        `- [GET, /, H.a, auth, extra]`,
		"missing handler":   "- method: GET\n  path: /",
		"guard mapping":     "- method: GET\n  path: /\n  handler: H.a\n  guard: {a: b}",
		"guard nested list": "- [GET, /, H.a, [[auth]]]",
		"invalid yaml":      "- [GET, /",
	}
	for name, src := range malformed {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := routefile.Parse("bad.yaml", []byte(src))
			require.ErrorIs(t, err, routefile.ErrMalformed)
		})
	}
}

func TestLoadDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "admin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "web.yaml"), []byte("- [GET, /, Home.index]\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "admin", "routes.yml"), []byte("- [GET, /admin, Admin.index, \"role:admin\"]\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o600))

	entries, err := routefile.LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// admin/routes.yml sorts before web.yaml
	require.Equal(t, "/admin", entries[0].Path)
	require.Equal(t, "/", entries[1].Path)

	_, err = routefile.LoadDir(filepath.Join(dir, "missing"))
	require.ErrorIs(t, err, routefile.ErrMalformed)

	_, err = routefile.LoadDir(filepath.Join(dir, "web.yaml"))
	require.ErrorIs(t, err, routefile.ErrMalformed)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	_, err := routefile.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, routefile.ErrMalformed)
}

func TestLoadFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"routes/a.yaml": {Data: []byte("- [GET, /a, A.index]\n")},
		"routes/b.yaml": {Data: []byte("not: a list\n")},
	}

	_, err := routefile.LoadFS(fsys, "routes")
	require.ErrorIs(t, err, routefile.ErrMalformed)

	delete(fsys, "routes/b.yaml")
	entries, err := routefile.LoadFS(fsys, "routes")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "routes/a.yaml", entries[0].Source)
}
