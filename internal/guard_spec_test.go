package internal_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/waypoint/internal"
)

func TestParseGuard(t *testing.T) {
	t.Parallel()

	verified := internal.GuardFunc(func(*internal.Request) (internal.GuardOutcome, error) { return internal.Allow(), nil })
	customs := map[string]internal.Guard{"verified": verified}

	tests := []struct {
		name string
		in   any
		kind internal.GuardKind
		str  string
	}{
		{name: "nil", in: nil, kind: internal.GuardKindNone, str: "none"},
		{name: "empty string", in: "", kind: internal.GuardKindNone, str: "none"},
		{name: "auth", in: "auth", kind: internal.GuardKindAuthenticated, str: "auth"},
		{name: "role", in: "role:admin", kind: internal.GuardKindRole, str: "role:admin"},
		{name: "role with spaces", in: " role: editor ", kind: internal.GuardKindRole, str: "role:editor"},
		{name: "permission", in: "permission:users.write", kind: internal.GuardKindPermission, str: "permission:users.write"},
		{name: "custom by name", in: "verified", kind: internal.GuardKindCustom, str: "verified"},
		{name: "single element list collapses", in: []string{"auth"}, kind: internal.GuardKindAuthenticated, str: "auth"},
		{name: "empty list", in: []string{}, kind: internal.GuardKindNone, str: "none"},
		{name: "string list", in: []string{"auth", "role:admin"}, kind: internal.GuardKindSequence, str: "[auth, role:admin]"},
		{name: "mixed list", in: []any{"auth", internal.GuardRole("admin"), "verified"}, kind: internal.GuardKindSequence, str: "[auth, role:admin, verified]"},
		{name: "spec passthrough", in: internal.GuardPermission("x"), kind: internal.GuardKindPermission, str: "permission:x"},
		{name: "spec list", in: []internal.GuardSpec{internal.GuardNone(), internal.GuardAuthenticated()}, kind: internal.GuardKindAuthenticated, str: "auth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			spec, err := internal.ParseGuard(tt.in, customs)
			require.NoError(t, err)
			require.Equal(t, tt.kind, spec.Kind())
			require.Equal(t, tt.str, spec.String())
		})
	}

	t.Run("guard value", func(t *testing.T) {
		t.Parallel()

		spec, err := internal.ParseGuard(verified, nil)
		require.NoError(t, err)
		require.Equal(t, internal.GuardKindCustom, spec.Kind())
	})

	bad := map[string]any{
		"unknown name":     "superuser",
		"role without arg": "role:",
		"perm without arg": "permission: ",
		"unknown in list":  []string{"auth", "nope"},
		"nested list":      []any{"auth", []any{"role:admin"}},
		"number":           7,
	}
	for name, in := range bad {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := internal.ParseGuard(in, customs)
			require.ErrorIs(t, err, internal.ErrMalformedRouteSource)
		})
	}
}

func TestGuardSequence(t *testing.T) {
	t.Parallel()

	seq := internal.GuardSequence(internal.GuardAuthenticated(), internal.GuardNone(), internal.GuardRole("admin"))
	require.Equal(t, internal.GuardKindSequence, seq.Kind())

	members := seq.Specs()
	require.Len(t, members, 2)
	require.Equal(t, "admin", members[1].Arg())

	require.True(t, internal.GuardSequence().IsNone())
}
