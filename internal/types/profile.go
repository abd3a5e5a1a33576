// Package types provides shared type definitions used across internal packages.
package types

// Profile contains the decoded kind 0 metadata for one pubkey.
// Optional fields are nil when the event did not set them to a non-empty string.
type Profile struct {
	Pubkey      string  `json:"pubkey"`
	Name        *string `json:"name,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
	Picture     *string `json:"picture,omitempty"`
	Banner      *string `json:"banner,omitempty"`
	About       *string `json:"about,omitempty"`
	Website     *string `json:"website,omitempty"`
	Nip05       *string `json:"nip05,omitempty"`
	Lud16       *string `json:"lud16,omitempty"`
}

// Clone returns a shallow copy; the string pointers are shared, which is fine
// because profile values are never mutated in place.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Deref returns the pointed-to string or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
