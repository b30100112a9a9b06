package internal

import (
	"fmt"
	"strings"
)

// GuardKind identifies a GuardSpec variant.
type GuardKind int

const (
	GuardKindNone GuardKind = iota
	GuardKindAuthenticated
	GuardKindRole
	GuardKindPermission
	GuardKindCustom
	GuardKindSequence
)

// GuardSpec is the typed access policy attached to a route. It is built
// once when the route table is constructed.
type GuardSpec struct {
	guard Guard
	arg   string
	seq   []GuardSpec
	kind  GuardKind
}

// GuardNone allows every request.
func GuardNone() GuardSpec {
	return GuardSpec{kind: GuardKindNone}
}

// GuardAuthenticated requires a logged-in identity.
func GuardAuthenticated() GuardSpec {
	return GuardSpec{kind: GuardKindAuthenticated}
}

// GuardRole requires a logged-in identity whose role is named role.
func GuardRole(role string) GuardSpec {
	return GuardSpec{kind: GuardKindRole, arg: role}
}

// GuardPermission requires a logged-in identity whose role grants perm.
func GuardPermission(perm string) GuardSpec {
	return GuardSpec{kind: GuardKindPermission, arg: perm}
}

// GuardCustom runs a user-supplied guard registered under name.
func GuardCustom(name string, g Guard) GuardSpec {
	return GuardSpec{kind: GuardKindCustom, arg: name, guard: g}
}

// GuardSequence evaluates specs in order and stops at the first denial.
// None members are dropped, an empty sequence is GuardNone and a single
// member collapses to that member.
func GuardSequence(specs ...GuardSpec) GuardSpec {
	seq := make([]GuardSpec, 0, len(specs))
	for _, s := range specs {
		if s.kind != GuardKindNone {
			seq = append(seq, s)
		}
	}

	switch len(seq) {
	case 0:
		return GuardNone()
	case 1:
		return seq[0]
	}
	return GuardSpec{kind: GuardKindSequence, seq: seq}
}

// Kind returns the variant.
func (s GuardSpec) Kind() GuardKind { return s.kind }

// Arg returns the role, permission or custom guard name.
func (s GuardSpec) Arg() string { return s.arg }

// IsNone reports whether s admits everyone.
func (s GuardSpec) IsNone() bool { return s.kind == GuardKindNone }

// Specs returns the members of a sequence.
func (s GuardSpec) Specs() []GuardSpec {
	out := make([]GuardSpec, len(s.seq))
	copy(out, s.seq)
	return out
}

// String renders s in route-file syntax.
func (s GuardSpec) String() string {
	switch s.kind {
	case GuardKindAuthenticated:
		return "auth"
	case GuardKindRole:
		return "role:" + s.arg
	case GuardKindPermission:
		return "permission:" + s.arg
	case GuardKindCustom:
		return s.arg
	case GuardKindSequence:
		parts := make([]string, len(s.seq))
		for i, m := range s.seq {
			parts[i] = m.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return "none"
}

// ParseGuard converts a declarative guard value into a GuardSpec.
//
// Accepted forms: nil, "auth", "role:<name>", "permission:<perm>", the name
// of a guard in customs, a GuardSpec, a Guard, or a list of any of these.
// Unknown names are rejected rather than skipped.
func ParseGuard(v any, customs map[string]Guard) (GuardSpec, error) {
	switch g := v.(type) {
	case nil:
		return GuardNone(), nil
	case GuardSpec:
		return g, nil
	case Guard:
		return GuardCustom(fmt.Sprintf("%T", g), g), nil
	case string:
		return parseGuardString(g, customs)
	case []string:
		specs := make([]GuardSpec, 0, len(g))
		for _, item := range g {
			spec, err := parseGuardString(item, customs)
			if err != nil {
				return GuardSpec{}, err
			}
			specs = append(specs, spec)
		}
		return GuardSequence(specs...), nil
	case []GuardSpec:
		return GuardSequence(g...), nil
	case []any:
		specs := make([]GuardSpec, 0, len(g))
		for _, item := range g {
			if _, nested := item.([]any); nested {
				return GuardSpec{}, fmt.Errorf("%w: nested guard lists are not supported", ErrMalformedRouteSource)
			}
			spec, err := ParseGuard(item, customs)
			if err != nil {
				return GuardSpec{}, err
			}
			specs = append(specs, spec)
		}
		return GuardSequence(specs...), nil
	}
	return GuardSpec{}, fmt.Errorf("%w: unsupported guard type %T", ErrMalformedRouteSource, v)
}

func parseGuardString(s string, customs map[string]Guard) (GuardSpec, error) {
	s = strings.TrimSpace(s)

	switch {
	case s == "":
		return GuardNone(), nil
	case s == "auth":
		return GuardAuthenticated(), nil
	case strings.HasPrefix(s, "role:"):
		name := strings.TrimSpace(strings.TrimPrefix(s, "role:"))
		if name == "" {
			return GuardSpec{}, fmt.Errorf("%w: role guard without a role name", ErrMalformedRouteSource)
		}
		return GuardRole(name), nil
	case strings.HasPrefix(s, "permission:"):
		perm := strings.TrimSpace(strings.TrimPrefix(s, "permission:"))
		if perm == "" {
			return GuardSpec{}, fmt.Errorf("%w: permission guard without a permission", ErrMalformedRouteSource)
		}
		return GuardPermission(perm), nil
	}

	if g, ok := customs[s]; ok && g != nil {
		return GuardCustom(s, g), nil
	}
	return GuardSpec{}, fmt.Errorf("%w: unknown guard %q", ErrMalformedRouteSource, s)
}
