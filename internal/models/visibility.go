package models

// ListVisibility is the derived access tier of a restaurant list.
type ListVisibility string

const (
	// VisibilityPublic lists are readable by anyone.
	VisibilityPublic ListVisibility = "public"
	// VisibilityCircle lists are readable by active members of the home circle.
	VisibilityCircle ListVisibility = "circle"
	// VisibilityPrivate lists are readable by their owner only.
	VisibilityPrivate ListVisibility = "private"
)

// Valid reports whether v is a known tier.
func (v ListVisibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityCircle, VisibilityPrivate:
		return true
	}
	return false
}

// DeriveVisibility maps the two list flags onto exactly one tier.
func DeriveVisibility(makePublic, shareWithCircle bool) ListVisibility {
	switch {
	case makePublic:
		return VisibilityPublic
	case shareWithCircle:
		return VisibilityCircle
	default:
		return VisibilityPrivate
	}
}

// VisibilitySettings is a consistent combination of list visibility controls.
// Construct it with NewVisibilitySettings, VisibilityFromTier or
// ResolveVisibility; the zero value is private.
type VisibilitySettings struct {
	makePublic      bool
	shareWithCircle bool
}

// NewVisibilitySettings builds settings from the two flags.
func NewVisibilitySettings(makePublic, shareWithCircle bool) VisibilitySettings {
	return VisibilitySettings{makePublic: makePublic, shareWithCircle: shareWithCircle}
}

// VisibilityFromTier builds the canonical flags for a tier.
func VisibilityFromTier(v ListVisibility) (VisibilitySettings, error) {
	switch v {
	case VisibilityPublic:
		return VisibilitySettings{makePublic: true}, nil
	case VisibilityCircle:
		return VisibilitySettings{shareWithCircle: true}, nil
	case VisibilityPrivate:
		return VisibilitySettings{}, nil
	default:
		return VisibilitySettings{}, NewValidationError("visibility must be one of public, circle, private")
	}
}

// MakePublic reports the public flag.
func (s VisibilitySettings) MakePublic() bool { return s.makePublic }

// ShareWithCircle reports the circle flag.
func (s VisibilitySettings) ShareWithCircle() bool { return s.shareWithCircle }

// Tier returns the derived visibility.
func (s VisibilitySettings) Tier() ListVisibility {
	return DeriveVisibility(s.makePublic, s.shareWithCircle)
}

// VisibilityInput carries optional visibility controls from a request body.
// Nil fields are left unchanged.
type VisibilityInput struct {
	Visibility      *string
	MakePublic      *bool
	ShareWithCircle *bool
}

// ResolveVisibility applies in to current. Flags override current values; a
// tier, when given, must agree with the resulting flags or with current when no
// flags were sent. Inconsistent combinations are rejected.
func ResolveVisibility(current VisibilitySettings, in VisibilityInput) (VisibilitySettings, error) {
	if in.MakePublic == nil && in.ShareWithCircle == nil {
		if in.Visibility == nil {
			return current, nil
		}
		return VisibilityFromTier(ListVisibility(*in.Visibility))
	}

	next := current
	if in.MakePublic != nil {
		next.makePublic = *in.MakePublic
	}
	if in.ShareWithCircle != nil {
		next.shareWithCircle = *in.ShareWithCircle
	}
	if in.Visibility != nil {
		want := ListVisibility(*in.Visibility)
		if !want.Valid() {
			return current, NewValidationError("visibility must be one of public, circle, private")
		}
		if want != next.Tier() {
			return current, NewValidationError("visibility " + string(want) + " conflicts with make_public/share_with_circle")
		}
	}
	return next, nil
}
