package pkgbuild

import "github.com/github/go-spdx/v2/spdxexp"

// proprietaryLicenses are accepted without SPDX validation, matching how
// Arch packaging treats in-house or bespoke license declarations.
var proprietaryLicenses = map[string]bool{
	"PROPRIETARY": true,
	"CUSTOM":      true,
}

// ValidateLicense reports whether every entry in License is either a
// recognised proprietary marker or a valid SPDX license expression. A false
// result is surfaced as a warning by the lifter (§7's closed-set scheme/option
// warnings are the model for this), never a hard parse failure: PKGBUILD
// license fields are free text in the wild.
func (p *Pkgbuild) ValidateLicense() bool {
	var rest []string

	for _, license := range p.License {
		if !proprietaryLicenses[license] {
			rest = append(rest, license)
		}
	}

	if len(rest) == 0 {
		return true
	}

	valid, _ := spdxexp.ValidateLicenses(rest)

	return valid
}
