package domain

import "encoding/json"

// Optional distinguishes an absent field from an explicitly supplied
// one in sparse updates. A zero Optional is unset; an Optional decoded
// from JSON null is set with the type's zero value, which for pointer
// types expresses an explicit clear.
type Optional[T any] struct {
	value T
	set   bool
}

// Some builds a set Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// IsSet reports whether a value was supplied.
func (o Optional[T]) IsSet() bool {
	return o.set
}

// Get returns the value and whether it was supplied.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// UnmarshalJSON marks the field set; encoding/json only calls this for
// keys present in the payload.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &o.value); err != nil {
		return err
	}
	o.set = true
	return nil
}

// ProfileUpdate is a sparse patch: only set fields are applied.
type ProfileUpdate struct {
	FullName     Optional[string]
	Email        Optional[string]
	Role         Optional[Role]
	Phone        Optional[string]
	IsActive     Optional[bool]
	RestaurantID Optional[*string]
	BranchID     Optional[*string]
}

// Empty reports whether the patch carries no fields at all.
func (u ProfileUpdate) Empty() bool {
	return !u.FullName.IsSet() && !u.Email.IsSet() && !u.Role.IsSet() &&
		!u.Phone.IsSet() && !u.IsActive.IsSet() &&
		!u.RestaurantID.IsSet() && !u.BranchID.IsSet()
}

// Apply returns a copy of p with the set fields overlaid.
func (u ProfileUpdate) Apply(p Profile) Profile {
	if v, ok := u.FullName.Get(); ok {
		p.FullName = v
	}
	if v, ok := u.Email.Get(); ok {
		p.Email = v
	}
	if v, ok := u.Role.Get(); ok {
		p.Role = v
	}
	if v, ok := u.Phone.Get(); ok {
		p.Phone = v
	}
	if v, ok := u.IsActive.Get(); ok {
		p.IsActive = v
	}
	if v, ok := u.RestaurantID.Get(); ok {
		p.RestaurantID = v
	}
	if v, ok := u.BranchID.Get(); ok {
		p.BranchID = v
	}
	return p
}
