// Package srcinfo renders a lifted recipe into its canonical .SRCINFO
// projection: a flat "key = value" text block for the recipe itself
// followed by one block per split package, grouped the way makepkg's own
// --printsrcinfo output is grouped.
package srcinfo

import (
	"encoding/hex"
	"os"
	"strconv"
	"strings"
	"text/template"

	"github.com/arch-tools/pkgbuild/pkg/pkgbuild"
)

const documentTemplate = `{{range .Lines}}{{.}}
{{end}}
{{range .Packages}}{{range .Lines}}{{.}}
{{end}}
{{end}}`

var tmpl = template.Must(template.New("srcinfo").Parse(documentTemplate))

type packageBlock struct {
	Lines []string
}

type document struct {
	Lines    []string
	Packages []packageBlock
}

// Render projects pkg into its canonical SRCINFO text.
func Render(pkg *pkgbuild.Pkgbuild) (string, error) {
	doc := document{Lines: pkgbaseLines(pkg)}

	for _, p := range pkg.Pkgs {
		doc.Packages = append(doc.Packages, packageBlock{Lines: packageLines(p)})
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, doc); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// WriteFile renders pkg and writes it to path, following the teacher's
// CreateSpec convention of one file per rendered artifact.
func WriteFile(path string, pkg *pkgbuild.Pkgbuild) error {
	text, err := Render(pkg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, []byte(text), 0o644)
}

// indent renders a "key = value" body line with the leading tab every
// SRCINFO line carries except the pkgbase/pkgname declaration itself.
func indent(key, value string) string {
	return "\t" + key + " = " + value
}

func pkgbaseLines(pkg *pkgbuild.Pkgbuild) []string {
	lines := []string{"pkgbase = " + pkg.Pkgbase}

	add := func(key, value string) {
		if value != "" {
			lines = append(lines, indent(key, value))
		}
	}
	addAll := func(key string, values []string) {
		for _, v := range values {
			lines = append(lines, indent(key, v))
		}
	}

	add("pkgdesc", pkg.Pkgdesc)
	add("pkgver", pkg.Version.Pkgver)
	add("pkgrel", pkg.Version.Pkgrel)
	add("epoch", pkg.Version.Epoch)
	add("url", pkg.URL)
	add("install", pkg.Install)
	add("changelog", pkg.Changelog)
	addAll("groups", pkg.Groups)
	addAll("license", pkg.License)
	addAll("backup", pkg.Backup)
	addAll("validpgpkeys", pkg.ValidPGPKeys)
	addAll("noextract", pkg.NoExtract)
	lines = append(lines, optionLines(pkg.Options)...)

	for _, arch := range archTags(pkg.MultiArch) {
		lines = append(lines, indent("arch", arch))
	}

	lines = append(lines, pkgbuildArchSpecificLines("", pkg.MultiArch.Any)...)
	pkg.MultiArch.Range(func(arch pkgbuild.Architecture, v pkgbuild.PkgbuildArchSpecific) bool {
		lines = append(lines, pkgbuildArchSpecificLines(string(arch), v)...)

		return true
	})

	return lines
}

func packageLines(pkg pkgbuild.Package) []string {
	lines := []string{"pkgname = " + pkg.Pkgname}

	add := func(key, value string) {
		if value != "" {
			lines = append(lines, indent(key, value))
		}
	}
	addAll := func(key string, values []string) {
		for _, v := range values {
			lines = append(lines, indent(key, v))
		}
	}

	add("pkgdesc", pkg.Pkgdesc)
	add("url", pkg.URL)
	add("install", pkg.Install)
	add("changelog", pkg.Changelog)
	addAll("license", pkg.License)
	addAll("groups", pkg.Groups)
	addAll("backup", pkg.Backup)
	lines = append(lines, optionLines(pkg.Options)...)

	for _, arch := range archTags(pkg.MultiArch) {
		lines = append(lines, indent("arch", arch))
	}

	lines = append(lines, packageArchSpecificLines("", pkg.MultiArch.Any)...)
	pkg.MultiArch.Range(func(arch pkgbuild.Architecture, v pkgbuild.PackageArchSpecific) bool {
		lines = append(lines, packageArchSpecificLines(string(arch), v)...)

		return true
	})

	return lines
}

// archTags reports the "arch = " values for a MultiArch: per invariant, a
// recipe that only ever used "any" has an empty concrete-architecture map
// and a populated Any slot, which projects to a single "arch = any" line.
func archTags[T any](ma *pkgbuild.MultiArch[T]) []string {
	if ma.Len() == 0 {
		return []string{string(pkgbuild.ArchAny)}
	}

	arches := ma.Arches()
	out := make([]string, len(arches))

	for i, a := range arches {
		out[i] = string(a)
	}

	return out
}

func archSuffix(arch string) string {
	if arch == "" {
		return ""
	}

	return "_" + arch
}

func pkgbuildArchSpecificLines(arch string, v pkgbuild.PkgbuildArchSpecific) []string {
	suf := archSuffix(arch)

	var lines []string
	for _, swc := range v.SourcesWithChecksums {
		lines = append(lines, indent("source"+suf, swc.Source.CanonicalString()))
	}

	lines = append(lines, checksumLines(suf, v.SourcesWithChecksums)...)
	lines = append(lines, dependencyLines("depends"+suf, v.Depends)...)
	lines = append(lines, dependencyLines("makedepends"+suf, v.MakeDepends)...)
	lines = append(lines, dependencyLines("checkdepends"+suf, v.CheckDepends)...)
	lines = append(lines, optDependencyLines("optdepends"+suf, v.OptDepends)...)
	lines = append(lines, dependencyLines("conflicts"+suf, v.Conflicts)...)
	lines = append(lines, dependencyLines("replaces"+suf, v.Replaces)...)
	lines = append(lines, provideLines("provides"+suf, v.Provides)...)

	return lines
}

func packageArchSpecificLines(arch string, v pkgbuild.PackageArchSpecific) []string {
	suf := archSuffix(arch)

	var lines []string
	lines = append(lines, dependencyLines("depends"+suf, v.Depends)...)
	lines = append(lines, dependencyLines("checkdepends"+suf, v.CheckDepends)...)
	lines = append(lines, optDependencyLines("optdepends"+suf, v.OptDepends)...)
	lines = append(lines, dependencyLines("conflicts"+suf, v.Conflicts)...)
	lines = append(lines, dependencyLines("replaces"+suf, v.Replaces)...)
	lines = append(lines, provideLines("provides"+suf, v.Provides)...)

	return lines
}

func optionLines(opts pkgbuild.Options) []string {
	var lines []string

	for _, name := range pkgbuild.KnownOptionNames {
		switch opts.Get(name) {
		case pkgbuild.OptionOn:
			lines = append(lines, indent("options", string(name)))
		case pkgbuild.OptionOff:
			lines = append(lines, indent("options", "!"+string(name)))
		case pkgbuild.OptionAbsent:
		}
	}

	return lines
}

func canonicalPlainVersion(v pkgbuild.PlainVersion) string {
	var sb strings.Builder

	if v.Epoch != "" {
		sb.WriteString(v.Epoch)
		sb.WriteByte(':')
	}

	sb.WriteString(v.Pkgver)

	if v.Pkgrel != "" {
		sb.WriteByte('-')
		sb.WriteString(v.Pkgrel)
	}

	return sb.String()
}

func canonicalDependency(d pkgbuild.Dependency) string {
	if d.Version == nil {
		return d.Name
	}

	return d.Name + d.Version.Order.String() + canonicalPlainVersion(d.Version.Plain)
}

func dependencyLines(key string, deps []pkgbuild.Dependency) []string {
	lines := make([]string, 0, len(deps))
	for _, d := range deps {
		lines = append(lines, indent(key, canonicalDependency(d)))
	}

	return lines
}

func optDependencyLines(key string, deps []pkgbuild.OptionalDependency) []string {
	lines := make([]string, 0, len(deps))

	for _, d := range deps {
		text := canonicalDependency(d.Dependency)
		if d.Reason != "" {
			text += ": " + d.Reason
		}

		lines = append(lines, indent(key, text))
	}

	return lines
}

func provideLines(key string, provides []pkgbuild.Provide) []string {
	lines := make([]string, 0, len(provides))

	for _, p := range provides {
		text := p.Name
		if p.Version != nil {
			text += "=" + canonicalPlainVersion(*p.Version)
		}

		lines = append(lines, indent(key, text))
	}

	return lines
}

type checksumFamily struct {
	key string
	get func(pkgbuild.Checksums) (string, bool)
}

// checksumLines reconstructs each checksum family that at least one source
// carries a value for, filling "SKIP" for any source lacking that family
// rather than omitting the line (a checksum array's length must always
// track the source array's length). If a source carries no value in any of
// the eight families, the writer still owes it a checksum line, so it falls
// back to a bare "sha256sums = SKIP" entry for that source.
func checksumLines(suf string, swcs []pkgbuild.SourceWithChecksum) []string {
	families := []checksumFamily{
		{"cksums", func(c pkgbuild.Checksums) (string, bool) {
			if c.Cksum == nil {
				return "", false
			}

			return strconv.FormatUint(uint64(*c.Cksum), 10), true
		}},
		{"md5sums", func(c pkgbuild.Checksums) (string, bool) { return hex16(c.Md5Sum) }},
		{"sha1sums", func(c pkgbuild.Checksums) (string, bool) { return hex20(c.Sha1Sum) }},
		{"sha224sums", func(c pkgbuild.Checksums) (string, bool) { return hex28(c.Sha224Sum) }},
		{"sha256sums", func(c pkgbuild.Checksums) (string, bool) { return hex32(c.Sha256Sum) }},
		{"sha384sums", func(c pkgbuild.Checksums) (string, bool) { return hex48(c.Sha384Sum) }},
		{"sha512sums", func(c pkgbuild.Checksums) (string, bool) { return hex64(c.Sha512Sum) }},
		{"b2sums", func(c pkgbuild.Checksums) (string, bool) { return hex64(c.B2Sum) }},
	}

	if len(swcs) > 0 && !anyChecksumFamilyPresent(families, swcs) {
		lines := make([]string, len(swcs))
		for i := range swcs {
			lines[i] = indent("sha256sums"+suf, "SKIP")
		}

		return lines
	}

	var lines []string

	for _, fam := range families {
		present := false

		for _, swc := range swcs {
			if _, ok := fam.get(swc.Checksums); ok {
				present = true

				break
			}
		}

		if !present {
			continue
		}

		for _, swc := range swcs {
			value, ok := fam.get(swc.Checksums)
			if !ok {
				value = "SKIP"
			}

			lines = append(lines, indent(fam.key+suf, value))
		}
	}

	return lines
}

func anyChecksumFamilyPresent(families []checksumFamily, swcs []pkgbuild.SourceWithChecksum) bool {
	for _, fam := range families {
		for _, swc := range swcs {
			if _, ok := fam.get(swc.Checksums); ok {
				return true
			}
		}
	}

	return false
}

func hex16(p *[16]byte) (string, bool) {
	if p == nil {
		return "", false
	}

	return hex.EncodeToString(p[:]), true
}

func hex20(p *[20]byte) (string, bool) {
	if p == nil {
		return "", false
	}

	return hex.EncodeToString(p[:]), true
}

func hex28(p *[28]byte) (string, bool) {
	if p == nil {
		return "", false
	}

	return hex.EncodeToString(p[:]), true
}

func hex32(p *[32]byte) (string, bool) {
	if p == nil {
		return "", false
	}

	return hex.EncodeToString(p[:]), true
}

func hex48(p *[48]byte) (string, bool) {
	if p == nil {
		return "", false
	}

	return hex.EncodeToString(p[:]), true
}

func hex64(p *[64]byte) (string, bool) {
	if p == nil {
		return "", false
	}

	return hex.EncodeToString(p[:]), true
}
