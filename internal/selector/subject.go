package selector

// Subject is a managed node presented to filter or match. Every attribute
// is optional; a nil field means the attribute is absent (unknown), never
// empty. This mirrors the Python reference's duck-typed minion records
// (subjects.py), made explicit via Go's zero-value-as-absence convention
// for pointers/maps/slices.
type Subject struct {
	// ID is the subject's stable textual identity, consulted by Glob/PCRE.
	ID *string

	// FQDN is the fully qualified host name, consulted by YahooRange.
	FQDN *string

	// IPv4 is one address or an ordered sequence of addresses, consulted
	// by SubnetIP. A nil slice means absent; a non-nil (possibly empty)
	// slice means present.
	IPv4 []string

	// Grains is a nested mapping of facts, consulted by Grain/GrainPCRE.
	// Values may be string, []any, or map[string]any.
	Grains map[string]any

	// Pillar is a nested mapping of assigned configuration, consulted by
	// Pillar.
	Pillar map[string]any

	// Data is a nested local key/value store, consulted by LocalStore.
	Data map[string]any

	// Functions maps a function name to a nullary callable returning a
	// truthy value, consulted by Exsel.
	Functions map[string]func() bool
}

// HasID reports whether id is present.
func (s *Subject) HasID() bool { return s != nil && s.ID != nil }

// HasFQDN reports whether fqdn is present.
func (s *Subject) HasFQDN() bool { return s != nil && s.FQDN != nil }

// HasIPv4 reports whether ipv4 is present.
func (s *Subject) HasIPv4() bool { return s != nil && s.IPv4 != nil }

// HasGrains reports whether grains is present.
func (s *Subject) HasGrains() bool { return s != nil && s.Grains != nil }

// HasPillar reports whether pillar is present.
func (s *Subject) HasPillar() bool { return s != nil && s.Pillar != nil }

// HasData reports whether data is present.
func (s *Subject) HasData() bool { return s != nil && s.Data != nil }

// HasFunctions reports whether functions is present.
func (s *Subject) HasFunctions() bool { return s != nil && s.Functions != nil }

// IDValue returns id, or "" if absent.
func (s *Subject) IDValue() string {
	if !s.HasID() {
		return ""
	}
	return *s.ID
}

// FQDNValue returns fqdn, or "" if absent.
func (s *Subject) FQDNValue() string {
	if !s.HasFQDN() {
		return ""
	}
	return *s.FQDN
}

// StrPtr takes the address of a string value, for building Subject.ID and
// Subject.FQDN literals inline.
func StrPtr(v string) *string { return &v }
