// Package lifter converts a streamparser.Tree borrowed from the harness's
// stdout buffer into an owned, strongly-typed *pkgbuild.Pkgbuild: parsing
// dependency/provide version operators, decoding checksums, interpreting
// source-array entries into their discriminated protocol, and assembling
// per-architecture overrides into pkgbuild.MultiArch.
package lifter

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	pkgerrors "github.com/arch-tools/pkgbuild/pkg/errors"
	"github.com/arch-tools/pkgbuild/pkg/logger"
	"github.com/arch-tools/pkgbuild/pkg/pkgbuild"
	"github.com/arch-tools/pkgbuild/pkg/set"
	"github.com/arch-tools/pkgbuild/pkg/streamparser"
)

// fieldSet is a small read-only view over a frame's fields, used to pull
// scalar and repeated-array values out by key without the caller repeating
// the same linear scan at every call site.
type fieldSet struct {
	fields []streamparser.Field
}

func (fs fieldSet) scalar(key string) string {
	for _, f := range fs.fields {
		if f.Key == key {
			return string(f.Value)
		}
	}

	return ""
}

func (fs fieldSet) array(key string) []string {
	var out []string

	for _, f := range fs.fields {
		if f.Key == key {
			out = append(out, string(f.Value))
		}
	}

	return out
}

// LiftAll lifts every tree the stream parser produced, in order. A failure
// lifting any one record aborts the batch: callers that need partial results
// alongside the error should lift records individually instead.
func LiftAll(trees []streamparser.Tree) ([]*pkgbuild.Pkgbuild, error) {
	out := make([]*pkgbuild.Pkgbuild, 0, len(trees))

	for _, tree := range trees {
		pkg, err := Lift(tree)
		if err != nil {
			return nil, err
		}

		out = append(out, pkg)
	}

	return out, nil
}

// Lift converts one borrowed Tree into an owned Pkgbuild.
func Lift(tree streamparser.Tree) (*pkgbuild.Pkgbuild, error) {
	fs := fieldSet{tree.Fields}

	pkgverFunc, err := liftBoolFlag(fs.scalar("pkgver_func"))
	if err != nil {
		return nil, err
	}

	multiArch := pkgbuild.NewMultiArch(pkgbuild.PkgbuildArchSpecific{})

	for _, block := range tree.ArchBlocks {
		archSpecific, err := liftPkgbuildArchSpecific(block)
		if err != nil {
			return nil, err
		}

		if block.Arch == string(pkgbuild.ArchAny) {
			multiArch.Any = archSpecific

			continue
		}

		if err := multiArch.Set(pkgbuild.NewArchitecture(block.Arch), archSpecific); err != nil {
			return nil, err
		}
	}

	packages := make([]pkgbuild.Package, 0, len(tree.Packages))

	for _, pb := range tree.Packages {
		pkg, err := liftPackage(pb)
		if err != nil {
			return nil, err
		}

		packages = append(packages, pkg)
	}

	if err := checkUniquePkgnames(packages); err != nil {
		return nil, err
	}

	record := &pkgbuild.Pkgbuild{
		Pkgbase: fs.scalar("pkgbase"),
		Pkgs:    packages,
		Version: pkgbuild.PlainVersion{
			Epoch:  fs.scalar("epoch"),
			Pkgver: fs.scalar("pkgver"),
			Pkgrel: fs.scalar("pkgrel"),
		},
		Pkgdesc:      fs.scalar("pkgdesc"),
		URL:          fs.scalar("url"),
		License:      fs.array("license"),
		Install:      fs.scalar("install"),
		Changelog:    fs.scalar("changelog"),
		ValidPGPKeys: fs.array("validpgpkeys"),
		NoExtract:    fs.array("noextract"),
		Groups:       fs.array("groups"),
		MultiArch:    multiArch,
		Backup:       fs.array("backup"),
		Options:      liftOptions(fs.array("options")),
		PkgverFunc:   pkgverFunc,
	}

	if !record.ValidateLicense() {
		logger.Warn("license is not a valid SPDX expression", "pkgbase", record.Pkgbase)
	}

	return record, nil
}

func liftBoolFlag(raw string) (bool, error) {
	switch raw {
	case "y":
		return true, nil
	case "n", "":
		return false, nil
	default:
		return false, pkgerrors.New(pkgerrors.ErrTypeParserScriptIllegalOutput,
			fmt.Sprintf("boolean flag must be \"y\" or \"n\", got %q", raw)).
			WithContext("value", raw)
	}
}

// checkUniquePkgnames rejects a recipe whose split packages share a pkgname.
// The harness already fails closed on a missing package_<name>() function,
// but a duplicated one slips through that check and would otherwise silently
// shadow one package's build with another's in the lifted model.
func checkUniquePkgnames(packages []pkgbuild.Package) error {
	seen := set.NewSet()

	for _, pkg := range packages {
		if seen.Contains(pkg.Pkgname) {
			return pkgerrors.New(pkgerrors.ErrTypeBrokenPKGBUILDs,
				fmt.Sprintf("duplicate split package name %q", pkg.Pkgname)).
				WithContext("pkgname", pkg.Pkgname)
		}

		seen.Add(pkg.Pkgname)
	}

	return nil
}

func liftPackage(pb streamparser.PackageBlock) (pkgbuild.Package, error) {
	fs := fieldSet{pb.Fields}

	multiArch := pkgbuild.NewMultiArch(pkgbuild.PackageArchSpecific{})

	for _, block := range pb.ArchBlocks {
		archSpecific, err := liftPackageArchSpecific(block)
		if err != nil {
			return pkgbuild.Package{}, err
		}

		if block.Arch == string(pkgbuild.ArchAny) {
			multiArch.Any = archSpecific

			continue
		}

		if err := multiArch.Set(pkgbuild.NewArchitecture(block.Arch), archSpecific); err != nil {
			return pkgbuild.Package{}, err
		}
	}

	return pkgbuild.Package{
		Pkgname:   fs.scalar("pkgname"),
		Pkgdesc:   fs.scalar("pkgdesc"),
		URL:       fs.scalar("url"),
		License:   fs.array("license"),
		Groups:    fs.array("groups"),
		Backup:    fs.array("backup"),
		Options:   liftOptions(fs.array("options")),
		Install:   fs.scalar("install"),
		Changelog: fs.scalar("changelog"),
		MultiArch: multiArch,
	}, nil
}

func liftPkgbuildArchSpecific(block streamparser.ArchBlock) (pkgbuild.PkgbuildArchSpecific, error) {
	fs := fieldSet{block.Fields}

	sourceStrs := fs.array("source")
	sources := make([]pkgbuild.Source, len(sourceStrs))

	for i, raw := range sourceStrs {
		src, err := liftSource(raw)
		if err != nil {
			return pkgbuild.PkgbuildArchSpecific{}, err
		}

		sources[i] = src
	}

	checksums, err := liftChecksums(len(sources),
		fs.array("cksums"), fs.array("md5sums"), fs.array("sha1sums"),
		fs.array("sha224sums"), fs.array("sha256sums"), fs.array("sha384sums"),
		fs.array("sha512sums"), fs.array("b2sums"))
	if err != nil {
		return pkgbuild.PkgbuildArchSpecific{}, err
	}

	swc := make([]pkgbuild.SourceWithChecksum, len(sources))
	for i, src := range sources {
		swc[i] = pkgbuild.SourceWithChecksum{Source: src, Checksums: checksums[i]}
	}

	provides, err := liftProvideList(fs.array("provides"))
	if err != nil {
		return pkgbuild.PkgbuildArchSpecific{}, err
	}

	return pkgbuild.PkgbuildArchSpecific{
		SourcesWithChecksums: swc,
		Depends:              liftDependencyList(fs.array("depends")),
		MakeDepends:          liftDependencyList(fs.array("makedepends")),
		CheckDepends:         liftDependencyList(fs.array("checkdepends")),
		OptDepends:           liftOptionalDependencyList(fs.array("optdepends")),
		Conflicts:            liftDependencyList(fs.array("conflicts")),
		Replaces:             liftDependencyList(fs.array("replaces")),
		Provides:             provides,
	}, nil
}

func liftPackageArchSpecific(block streamparser.ArchBlock) (pkgbuild.PackageArchSpecific, error) {
	fs := fieldSet{block.Fields}

	provides, err := liftProvideList(fs.array("provides"))
	if err != nil {
		return pkgbuild.PackageArchSpecific{}, err
	}

	return pkgbuild.PackageArchSpecific{
		CheckDepends: liftDependencyList(fs.array("checkdepends")),
		Depends:      liftDependencyList(fs.array("depends")),
		OptDepends:   liftOptionalDependencyList(fs.array("optdepends")),
		Provides:     provides,
		Conflicts:    liftDependencyList(fs.array("conflicts")),
		Replaces:     liftDependencyList(fs.array("replaces")),
	}, nil
}

// depOperators is checked in order: the two-character operators must be
// tried before their single-character prefixes, or ">=2" would be split as
// operator ">" with version "=2".
var depOperators = []struct {
	token string
	order pkgbuild.DependencyOrder
}{
	{">=", pkgbuild.OrderGreaterOrEqual},
	{"<=", pkgbuild.OrderLessOrEqual},
	{">", pkgbuild.OrderGreater},
	{"<", pkgbuild.OrderLess},
	{"=", pkgbuild.OrderEqual},
}

func parsePlainVersion(raw string) pkgbuild.PlainVersion {
	return pkgbuild.ParsePlainVersion(raw)
}

func parseDependency(raw string) pkgbuild.Dependency {
	for _, op := range depOperators {
		idx := strings.Index(raw, op.token)
		if idx < 0 {
			continue
		}

		name := raw[:idx]
		plain := parsePlainVersion(raw[idx+len(op.token):])

		return pkgbuild.Dependency{
			Name:    name,
			Version: &pkgbuild.OrderedVersion{Order: op.order, Plain: plain},
		}
	}

	return pkgbuild.Dependency{Name: raw}
}

func liftDependencyList(raw []string) []pkgbuild.Dependency {
	out := make([]pkgbuild.Dependency, len(raw))
	for i, r := range raw {
		out[i] = parseDependency(r)
	}

	return out
}

func liftOptionalDependency(raw string) pkgbuild.OptionalDependency {
	spec := raw
	reason := ""

	if idx := strings.Index(raw, ": "); idx >= 0 {
		spec = raw[:idx]
		reason = raw[idx+2:]
	}

	return pkgbuild.OptionalDependency{Dependency: parseDependency(spec), Reason: reason}
}

func liftOptionalDependencyList(raw []string) []pkgbuild.OptionalDependency {
	out := make([]pkgbuild.OptionalDependency, len(raw))
	for i, r := range raw {
		out[i] = liftOptionalDependency(r)
	}

	return out
}

// parseProvide rejects an ordered constraint outright: a provide entry names
// what a package supplies, not a range it satisfies, so '>' or '<' in one is
// a broken recipe rather than something to silently coerce.
func parseProvide(raw string) (pkgbuild.Provide, error) {
	if strings.ContainsAny(raw, "<>") {
		return pkgbuild.Provide{}, pkgerrors.New(pkgerrors.ErrTypeBrokenPKGBUILDs,
			fmt.Sprintf("provide entry %q must not use an ordered version constraint", raw)).
			WithContext("entry", raw)
	}

	if idx := strings.IndexByte(raw, '='); idx >= 0 {
		name := raw[:idx]
		plain := parsePlainVersion(raw[idx+1:])

		return pkgbuild.Provide{Name: name, Version: &plain}, nil
	}

	return pkgbuild.Provide{Name: raw}, nil
}

func liftProvideList(raw []string) ([]pkgbuild.Provide, error) {
	out := make([]pkgbuild.Provide, len(raw))

	for i, r := range raw {
		p, err := parseProvide(r)
		if err != nil {
			return nil, err
		}

		out[i] = p
	}

	return out, nil
}

func liftOptions(raw []string) pkgbuild.Options {
	var opts pkgbuild.Options

	for _, entry := range raw {
		state := pkgbuild.OptionOn
		name := entry

		if strings.HasPrefix(entry, "!") {
			state = pkgbuild.OptionOff
			name = entry[1:]
		}

		if !pkgbuild.IsKnownOptionName(name) {
			logger.Warn("unknown build option, ignoring", "name", name)

			continue
		}

		opts.Set(pkgbuild.OptionName(name), state)
	}

	return opts
}

// vcsSchemes is the closed set of VCS prefixes recognised before a "+"
// transport override or as a bare scheme (e.g. a plain "git://" clone URL).
var vcsSchemes = map[string]bool{
	"bzr": true, "fossil": true, "git": true, "hg": true, "svn": true,
}

// liftSource implements the source-array entry grammar: an optional
// "name::" alias, an optional "vcs+transport://" or "vcs://" scheme prefix,
// an optional "#key=value" fragment, and (git only) a trailing "?signed"
// marker.
func liftSource(raw string) (pkgbuild.Source, error) {
	name := ""
	rest := raw

	if idx := strings.Index(raw, "::"); idx >= 0 {
		name = raw[:idx]
		rest = raw[idx+2:]
	}

	schemeIdx := strings.Index(rest, "://")
	if schemeIdx < 0 {
		return pkgbuild.NewSource(name, rest, pkgbuild.LocalProtocol()), nil
	}

	schemePart := rest[:schemeIdx]

	vcs := ""
	url := rest

	if plusIdx := strings.IndexByte(schemePart, '+'); plusIdx >= 0 && vcsSchemes[schemePart[:plusIdx]] {
		vcs = schemePart[:plusIdx]
		url = schemePart[plusIdx+1:] + rest[schemeIdx:]
	} else if vcsSchemes[schemePart] {
		vcs = schemePart
	}

	if vcs == "" {
		return pkgbuild.NewSource(name, url, simpleProtocolForScheme(schemePart)), nil
	}

	// The "?signed" marker and "#key=value" fragment are VCS-only syntax;
	// a file/ftp/http/https/rsync URL keeps any literal "#"/"?" untouched.
	signed := false
	if strings.HasSuffix(url, "?signed") {
		signed = true
		url = strings.TrimSuffix(url, "?signed")
	}

	fragment := ""
	if idx := strings.IndexByte(url, '#'); idx >= 0 {
		fragment = url[idx+1:]
		url = url[:idx]
	}

	switch vcs {
	case "bzr":
		var frag *pkgbuild.BzrFragment

		if fragment != "" {
			key, value := splitFragmentKV(fragment)
			if key != "revision" {
				logger.Warn("unrecognised bzr fragment key, ignoring", "key", key)
			} else {
				frag = &pkgbuild.BzrFragment{Revision: value}
			}
		}

		return pkgbuild.NewSource(name, url, pkgbuild.BzrSourceProtocol{Fragment: frag}), nil

	case "fossil":
		frag := parseFossilFragment(fragment)

		return pkgbuild.NewSource(name, url, pkgbuild.FossilSourceProtocol{Fragment: frag}), nil

	case "git":
		frag := parseGitFragment(fragment)

		return pkgbuild.NewSource(name, url, pkgbuild.GitSourceProtocol{Fragment: frag, Signed: signed}), nil

	case "hg":
		frag := parseHgFragment(fragment)

		return pkgbuild.NewSource(name, url, pkgbuild.HgSourceProtocol{Fragment: frag}), nil

	case "svn":
		var frag *pkgbuild.SvnFragment

		if fragment != "" {
			key, value := splitFragmentKV(fragment)
			if key != "revision" {
				logger.Warn("unrecognised svn fragment key, ignoring", "key", key)
			} else {
				frag = &pkgbuild.SvnFragment{Revision: value}
			}
		}

		return pkgbuild.NewSource(name, url, pkgbuild.SvnSourceProtocol{Fragment: frag}), nil

	default:
		return pkgbuild.Source{}, pkgerrors.New(pkgerrors.ErrTypeBrokenPKGBUILDs,
			fmt.Sprintf("unreachable vcs scheme %q", vcs))
	}
}

func splitFragmentKV(fragment string) (string, string) {
	if idx := strings.IndexByte(fragment, '='); idx >= 0 {
		return fragment[:idx], fragment[idx+1:]
	}

	return fragment, ""
}

func simpleProtocolForScheme(scheme string) pkgbuild.SourceProtocol {
	switch scheme {
	case "file":
		return pkgbuild.FileProtocol()
	case "ftp":
		return pkgbuild.FtpProtocol()
	case "http":
		return pkgbuild.HTTPProtocol()
	case "https":
		return pkgbuild.HTTPSProtocol()
	case "rsync":
		return pkgbuild.RsyncProtocol()
	case "scp":
		return pkgbuild.ScpProtocol()
	default:
		logger.Warn("unrecognised source scheme, treating as unknown protocol", "scheme", scheme)

		return pkgbuild.UnknownProtocol()
	}
}

func parseFossilFragment(fragment string) *pkgbuild.FossilFragment {
	if fragment == "" {
		return nil
	}

	key, value := splitFragmentKV(fragment)

	switch key {
	case "branch":
		return &pkgbuild.FossilFragment{Kind: pkgbuild.FossilBranch, Value: value}
	case "commit":
		return &pkgbuild.FossilFragment{Kind: pkgbuild.FossilCommit, Value: value}
	case "tag":
		return &pkgbuild.FossilFragment{Kind: pkgbuild.FossilTag, Value: value}
	default:
		logger.Warn("unrecognised fossil fragment key, ignoring", "key", key)

		return nil
	}
}

func parseGitFragment(fragment string) *pkgbuild.GitFragment {
	if fragment == "" {
		return nil
	}

	key, value := splitFragmentKV(fragment)

	switch key {
	case "branch":
		return &pkgbuild.GitFragment{Kind: pkgbuild.GitBranch, Value: value}
	case "commit":
		return &pkgbuild.GitFragment{Kind: pkgbuild.GitCommit, Value: value}
	case "tag":
		return &pkgbuild.GitFragment{Kind: pkgbuild.GitTag, Value: value}
	default:
		logger.Warn("unrecognised git fragment key, ignoring", "key", key)

		return nil
	}
}

func parseHgFragment(fragment string) *pkgbuild.HgFragment {
	if fragment == "" {
		return nil
	}

	key, value := splitFragmentKV(fragment)

	switch key {
	case "branch":
		return &pkgbuild.HgFragment{Kind: pkgbuild.HgBranch, Value: value}
	case "revision":
		return &pkgbuild.HgFragment{Kind: pkgbuild.HgRevision, Value: value}
	case "tag":
		return &pkgbuild.HgFragment{Kind: pkgbuild.HgTag, Value: value}
	default:
		logger.Warn("unrecognised hg fragment key, ignoring", "key", key)

		return nil
	}
}

// liftChecksums decodes the eight optional checksum arrays against n
// sources. Per-family length mismatch against n is a hard error (invariant:
// a present checksum array must cover every source); a malformed, "SKIP", or
// wrong-width individual entry decodes to Absent rather than failing the
// whole batch.
func liftChecksums(n int, cksums, md5s, sha1s, sha224s, sha256s, sha384s, sha512s, b2s []string) ([]pkgbuild.Checksums, error) {
	out := make([]pkgbuild.Checksums, n)

	if err := applyCksums(out, cksums); err != nil {
		return nil, err
	}

	for _, fam := range []struct {
		name  string
		raw   []string
		width int
		set   func(*pkgbuild.Checksums, []byte)
	}{
		{"md5sums", md5s, 16, setMd5},
		{"sha1sums", sha1s, 20, setSha1},
		{"sha224sums", sha224s, 28, setSha224},
		{"sha256sums", sha256s, 32, setSha256},
		{"sha384sums", sha384s, 48, setSha384},
		{"sha512sums", sha512s, 64, setSha512},
		{"b2sums", b2s, 64, setB2},
	} {
		if err := applyHexChecksums(out, fam.name, fam.raw, fam.width, fam.set); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func checkChecksumLength(family string, raw []string, n int) error {
	if len(raw) != 0 && len(raw) != n {
		return pkgerrors.New(pkgerrors.ErrTypeBrokenPKGBUILDs,
			fmt.Sprintf("%s has %d entries but source array has %d", family, len(raw), n)).
			WithContext("family", family)
	}

	return nil
}

func applyCksums(out []pkgbuild.Checksums, raw []string) error {
	if err := checkChecksumLength("cksums", raw, len(out)); err != nil {
		return err
	}

	for i, s := range raw {
		if s == "" || s == "SKIP" {
			continue
		}

		v, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			continue
		}

		u := uint32(v)
		out[i].Cksum = &u
	}

	return nil
}

func applyHexChecksums(out []pkgbuild.Checksums, family string, raw []string, width int, set func(*pkgbuild.Checksums, []byte)) error {
	if err := checkChecksumLength(family, raw, len(out)); err != nil {
		return err
	}

	for i, s := range raw {
		if s == "" || s == "SKIP" {
			continue
		}

		b, err := hex.DecodeString(s)
		if err != nil || len(b) != width {
			continue
		}

		set(&out[i], b)
	}

	return nil
}

func setMd5(c *pkgbuild.Checksums, b []byte) {
	var a [16]byte
	copy(a[:], b)
	c.Md5Sum = &a
}

func setSha1(c *pkgbuild.Checksums, b []byte) {
	var a [20]byte
	copy(a[:], b)
	c.Sha1Sum = &a
}

func setSha224(c *pkgbuild.Checksums, b []byte) {
	var a [28]byte
	copy(a[:], b)
	c.Sha224Sum = &a
}

func setSha256(c *pkgbuild.Checksums, b []byte) {
	var a [32]byte
	copy(a[:], b)
	c.Sha256Sum = &a
}

func setSha384(c *pkgbuild.Checksums, b []byte) {
	var a [48]byte
	copy(a[:], b)
	c.Sha384Sum = &a
}

func setSha512(c *pkgbuild.Checksums, b []byte) {
	var a [64]byte
	copy(a[:], b)
	c.Sha512Sum = &a
}

func setB2(c *pkgbuild.Checksums, b []byte) {
	var a [64]byte
	copy(a[:], b)
	c.B2Sum = &a
}
