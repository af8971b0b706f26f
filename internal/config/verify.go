package config

// VerifyConfig configures per-entry content checks.
type VerifyConfig struct {
	// MemberTag names the numbered member files: <entry>.<tag>NNNN.
	// Enzo outputs use "cpu".
	MemberTag string `yaml:"member_tag"`

	// CompanionSuffixes must exist non-empty next to every entry.
	CompanionSuffixes []string `yaml:"companion_suffixes"`
}

// DefaultVerifyConfig returns the stock companion layout.
func DefaultVerifyConfig() VerifyConfig {
	return VerifyConfig{
		MemberTag: "member",
		CompanionSuffixes: []string{
			"", ".boundary", ".boundary.hdf", ".configure", ".hierarchy", ".memorymap",
		},
	}
}
