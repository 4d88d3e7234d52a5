// Package harness synthesises the shell program that sources PKGBUILD
// recipes in a real interpreter and emits a deterministic, line-oriented
// key/value stream on stdout. The core never re-implements shell semantics;
// it only assembles this harness once per parser instance and hands it to
// the child-I/O pump.
package harness

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"mvdan.cc/sh/v3/syntax"

	pkgerrors "github.com/arch-tools/pkgbuild/pkg/errors"
)

// Frame markers emitted on a line by themselves. These are the stable,
// documented wire format the Stream Parser's state machine drives on.
const (
	FramePkgbuild    = "PKGBUILD"
	FramePackage     = "PACKAGE"
	FramePackageArch = "PACKAGEARCH"
	FrameArch        = "ARCH"
	FrameEnd         = "END"
)

// scalarFields are the recipe-level plain (non-array) variables dumped inside
// the PKGBUILD frame.
var scalarFields = []string{
	"pkgbase", "pkgver", "pkgrel", "epoch", "pkgdesc", "url", "install", "changelog",
}

// arrayFields are the recipe-level array variables dumped inside the
// PKGBUILD frame. license is handled specially: its values are flattened
// from embedded newlines to spaces before being emitted.
var arrayFields = []string{
	"license", "validpgpkeys", "noextract", "groups", "backup", "options",
}

// archArrayFields are arch-suffixed arrays dumped once per ARCH sub-frame
// (or attributed to "any" when unsuffixed).
var archArrayFields = []string{
	"source", "cksums", "md5sums", "sha1sums", "sha224sums", "sha256sums",
	"sha384sums", "sha512sums", "b2sums",
	"depends", "makedepends", "checkdepends", "optdepends", "conflicts", "replaces", "provides",
}

// packageScalarFields are the plain variables a package_<name>() body may override.
var packageScalarFields = []string{"pkgdesc", "url", "install", "changelog"}

// packageArrayFields are the array variables a package_<name>() body may override.
var packageArrayFields = []string{"license", "groups", "backup", "options"}

// checksumArrayKeys names each checksum array, in the fixed order the writer
// re-emits them. The dumped key is the array name itself, matching the
// wire-format key set the stream parser dispatches on.
var checksumArrayKeys = []string{
	"cksums", "md5sums", "sha1sums", "sha224sums", "sha256sums",
	"sha384sums", "sha512sums", "b2sums",
}

// packageArchArrayFields are arch-suffixed dependency arrays a split package
// may override; note makedepends is absent (recipe-scoped only).
var packageArchArrayFields = []string{
	"depends", "checkdepends", "optdepends", "conflicts", "replaces", "provides",
}

// Builder assembles the harness script. Every toggle defaults to true; a
// caller that knows it will discard a field can turn its dump off to shave
// time off every recipe parse, mirroring the include/exclude knobs of the
// original parser-script generator this design is modelled on.
type Builder struct {
	Interpreter string
	LibraryPath string
	ConfigPath  string

	WithPkgbase         bool
	WithPkgver          bool
	WithDepends         bool
	WithMakeDepends     bool
	WithProvides        bool
	WithSource          bool
	WithChecksums       bool
	WithPkgverFunc      bool
	WithPackageDepends  bool
	WithPackageProvides bool
}

// NewBuilder returns a Builder with every field dumped, the conventional
// default interpreter (/bin/bash), and the given library/config paths.
func NewBuilder(libraryPath, configPath string) *Builder {
	return &Builder{
		Interpreter:         "/bin/bash",
		LibraryPath:         libraryPath,
		ConfigPath:          configPath,
		WithPkgbase:         true,
		WithPkgver:          true,
		WithDepends:         true,
		WithMakeDepends:     true,
		WithProvides:        true,
		WithSource:          true,
		WithChecksums:       true,
		WithPkgverFunc:      true,
		WithPackageDepends:  true,
		WithPackageProvides: true,
	}
}

// Harness is a built, ready-to-run script on disk.
type Harness struct {
	Path      string
	ephemeral bool
}

// Close removes the script file if it was created as an ephemeral tempfile;
// a persistent, caller-chosen path is left untouched.
func (h *Harness) Close() error {
	if !h.ephemeral {
		return nil
	}

	return os.Remove(h.Path)
}

// Build writes the generated script to path (a persistent, caller-owned
// location) or, if path is empty, to a tempfile prefixed ".pkgbuild-go" that
// Close removes. Only the None/tempfile case is cleaned up automatically, to
// avoid ever deleting a file the caller asked us to create at a fixed path.
func (b *Builder) Build(path string) (*Harness, error) {
	content, err := b.render()
	if err != nil {
		return nil, errors.Wrap(pkgerrors.Wrap(err, pkgerrors.ErrTypeIO,
			"failed to quote harness script values"), "harness build")
	}

	if path != "" {
		if err := os.WriteFile(path, []byte(content), 0o755); err != nil { //nolint:gosec
			return nil, errors.Wrap(pkgerrors.Wrap(err, pkgerrors.ErrTypeIO,
				"failed to create harness script file").WithContext("path", path), "harness build")
		}

		return &Harness{Path: path}, nil
	}

	file, err := os.CreateTemp("", ".pkgbuild-go-*.sh")
	if err != nil {
		return nil, errors.Wrap(pkgerrors.Wrap(err, pkgerrors.ErrTypeIO,
			"failed to create harness tempfile"), "harness build")
	}

	if _, err := file.WriteString(content); err != nil {
		file.Close()
		os.Remove(file.Name())

		return nil, errors.Wrap(pkgerrors.Wrap(err, pkgerrors.ErrTypeIO,
			"failed to write harness tempfile"), "harness build")
	}

	if err := file.Chmod(0o755); err != nil {
		file.Close()
		os.Remove(file.Name())

		return nil, errors.Wrap(pkgerrors.Wrap(err, pkgerrors.ErrTypeIO,
			"failed to chmod harness tempfile"), "harness build")
	}

	file.Close()

	return &Harness{Path: file.Name(), ephemeral: true}, nil
}

// render assembles the full script text. LibraryPath/ConfigPath are
// caller-controlled (ParserOptions, in turn the LIBRARY/MAKEPKG_CONF env
// vars), so they are embedded via real shell quoting rather than Go's %q:
// %q neutralizes Go escape sequences, not shell ones, and would let a value
// containing "$(...)" or a backtick run as command substitution once the
// generated script is sourced.
func (b *Builder) render() (string, error) {
	quotedLibrary, err := syntax.Quote(b.LibraryPath, syntax.LangBash)
	if err != nil {
		return "", errors.Wrap(err, "failed to quote library path")
	}

	quotedConfig, err := syntax.Quote(b.ConfigPath, syntax.LangBash)
	if err != nil {
		return "", errors.Wrap(err, "failed to quote config path")
	}

	var w strings.Builder

	fmt.Fprintf(&w, "#!%s\nset -u\n\n", b.Interpreter)
	fmt.Fprintf(&w, "LIBRARY=%s\nMAKEPKG_CONF=%s\n\n", quotedLibrary, quotedConfig)
	w.WriteString(prologueFragment)
	w.WriteString(dumpFunctionsFragment)

	w.WriteString("\nwhile IFS= read -r __pkgbuild_path; do\n(\n")
	w.WriteString(clearVarsFragment)
	w.WriteString("  source \"${MAKEPKG_CONF}\"\n")
	w.WriteString("  source \"${LIBRARY}/util.sh\"\n")
	w.WriteString("  source \"${LIBRARY}/source.sh\"\n")
	w.WriteString("  source \"${__pkgbuild_path}\"\n\n")
	w.WriteString(archGuardFragment)

	fmt.Fprintf(&w, "  echo %s\n", FramePkgbuild)

	if b.WithPkgbase {
		for _, f := range scalarFields {
			fmt.Fprintf(&w, "  dump_scalar %s\n", f)
		}

		for _, f := range arrayFields {
			if f == "license" {
				w.WriteString("  __license_flat=(\"${license[@]//$'\\n'/ }\")\n")
				w.WriteString("  dump_array __license_flat license\n")

				continue
			}

			fmt.Fprintf(&w, "  dump_array %s %s\n", f, f)
		}
	}

	if b.WithPkgverFunc {
		w.WriteString("  echo -n \"pkgver_func:\"\n")
		w.WriteString("  [[ $(type -t pkgver) == function ]] && echo y || echo n\n")
	}

	w.WriteString(b.renderArchSubFrames(""))
	w.WriteString(b.renderSplitPackages())

	fmt.Fprintf(&w, "  echo %s\n", FrameEnd)
	w.WriteString(") || exit $?\ndone\n")

	return w.String(), nil
}

// renderArchSubFrames emits an ARCH sub-frame tagged "any" first, then one per
// concrete entry of the recipe's (or split package's, when prefix is
// non-empty) arch array: dump_array_arch resolves "any" to the unsuffixed
// variable itself and every
// concrete architecture to its "_<arch>"-suffixed variable, so the Stream
// Parser never needs a separate unsuffixed path.
func (b *Builder) renderArchSubFrames(prefix string) string {
	var w strings.Builder

	archVar := "arch"
	if prefix != "" {
		archVar = prefix + "_arch"
	}

	w.WriteString("  __arches=(any)\n")
	fmt.Fprintf(&w, "  for __a in \"${%s[@]}\"; do [[ \"${__a}\" != any ]] && __arches+=(\"${__a}\"); done\n", archVar)
	w.WriteString("  for __arch in \"${__arches[@]}\"; do\n")
	fmt.Fprintf(&w, "    echo %s\n", FrameArch)
	w.WriteString("    echo \"arch:${__arch}\"\n")

	if b.WithSource {
		w.WriteString("    dump_array_arch source source \"${__arch}\"\n")
	}

	if b.WithChecksums {
		for _, name := range checksumArrayKeys {
			fmt.Fprintf(&w, "    dump_array_arch %s %s \"${__arch}\"\n", name, name)
		}
	}

	if b.WithDepends {
		w.WriteString("    dump_array_arch depends depends \"${__arch}\"\n")
	}

	if b.WithMakeDepends {
		w.WriteString("    dump_array_arch makedepends makedepends \"${__arch}\"\n")
	}

	w.WriteString("    dump_array_arch checkdepends checkdepends \"${__arch}\"\n")
	w.WriteString("    dump_array_arch optdepends optdepends \"${__arch}\"\n")
	w.WriteString("    dump_array_arch conflicts conflicts \"${__arch}\"\n")
	w.WriteString("    dump_array_arch replaces replaces \"${__arch}\"\n")

	if b.WithProvides {
		w.WriteString("    dump_array_arch provides provides \"${__arch}\"\n")
	}

	fmt.Fprintf(&w, "    echo %s\n", FrameEnd)
	w.WriteString("  done\n")

	return w.String()
}

// renderSplitPackages emits one PACKAGE sub-frame per pkgname entry, running
// its package_<name>() body in a nested sub-shell to capture the variables
// it sets without polluting the recipe-level scope for the next package.
func (b *Builder) renderSplitPackages() string {
	var w strings.Builder

	w.WriteString("  for __pkgname in \"${pkgname[@]}\"; do\n")
	w.WriteString("    if ! declare -F \"package_${__pkgname}\" > /dev/null; then\n")
	w.WriteString("      exit -2\n")
	w.WriteString("    fi\n")
	w.WriteString("  (\n")
	fmt.Fprintf(&w, "    echo %s\n", FramePackage)
	w.WriteString("    \"package_${__pkgname}\"\n")
	w.WriteString("    if [[ \" ${arch[*]} \" == *\" any \"* ]] && [[ \"${#arch[@]}\" -gt 1 ]]; then\n")
	w.WriteString("      exit -3\n")
	w.WriteString("    fi\n")
	w.WriteString("    echo \"pkgname:${__pkgname}\"\n")

	for _, f := range packageScalarFields {
		fmt.Fprintf(&w, "    dump_scalar %s\n", f)
	}

	for _, f := range packageArrayFields {
		fmt.Fprintf(&w, "    dump_array %s %s\n", f, f)
	}

	w.WriteString("    __arches=(any)\n")
	w.WriteString("    for __a in \"${arch[@]}\"; do [[ \"${__a}\" != any ]] && __arches+=(\"${__a}\"); done\n")
	w.WriteString("    for __arch in \"${__arches[@]}\"; do\n")
	fmt.Fprintf(&w, "      echo %s\n", FramePackageArch)
	w.WriteString("      echo \"arch:${__arch}\"\n")

	if b.WithPackageDepends {
		for _, f := range packageArchArrayFields {
			if f == "provides" {
				continue
			}

			fmt.Fprintf(&w, "      dump_array_arch %s %s \"${__arch}\"\n", f, f)
		}
	}

	if b.WithPackageProvides {
		w.WriteString("      dump_array_arch provides provides \"${__arch}\"\n")
	}

	fmt.Fprintf(&w, "      echo %s\n", FrameEnd)
	w.WriteString("    done\n")
	fmt.Fprintf(&w, "    echo %s\n", FrameEnd)
	w.WriteString("  ) || exit $?\n")
	w.WriteString("  done\n")

	return w.String()
}

const prologueFragment = `# Generated harness. Sources two small makepkg library helpers which
# provide array-flattening and path-lookup semantics; nothing else here
# depends on makepkg internals.
`

const dumpFunctionsFragment = `dump_scalar() {
  local __name=$1
  echo "${__name}:${!__name-}"
}

dump_array() {
  local __name=$1 __key=$2
  local -n __arr_ref="${__name}" 2>/dev/null || return 0
  local __v
  for __v in "${__arr_ref[@]}"; do
    printf '%s:%s\n' "${__key}" "${__v}"
  done
}

dump_array_arch() {
  local __name=$1 __key=$2 __arch=$3
  local __suffixed="${__name}"
  [[ "${__arch}" != any ]] && __suffixed="${__name}_${__arch}"
  local -n __arr_ref="${__suffixed}" 2>/dev/null || return 0
  local __v
  for __v in "${__arr_ref[@]}"; do
    printf '%s:%s\n' "${__key}" "${__v}"
  done
  [[ "${__arch}" != any ]] && unset -v "${__suffixed}"
}

`

const clearVarsFragment = `  unset -v pkgbase pkgname pkgver pkgrel epoch pkgdesc url install changelog \
    license validpgpkeys noextract groups backup options arch \
    depends makedepends checkdepends optdepends provides conflicts replaces \
    source cksums md5sums sha1sums sha224sums sha256sums sha384sums sha512sums b2sums
  unset -f pkgver package
  for __p in "${pkgname[@]}"; do unset -f "package_${__p}"; done 2>/dev/null

`

const archGuardFragment = `  if [[ " ${arch[*]} " == *" any "* ]] && [[ "${#arch[@]}" -gt 1 ]]; then
    exit -1
  fi

`
