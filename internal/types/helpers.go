package types

// FromNillableString returns the string value or empty string if nil
func FromNillableString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
