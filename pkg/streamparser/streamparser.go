// Package streamparser drives a small state machine over the harness's
// framed stdout stream and produces a borrowed intermediate graph: every
// field value is a byte slice sliced directly out of the caller's buffer,
// never copied. The lifter (pkg/lifter) is the only component that copies.
package streamparser

import (
	"bytes"
	"fmt"

	pkgerrors "github.com/arch-tools/pkgbuild/pkg/errors"
)

// state names the five positions the machine can be in while draining one
// PKGBUILD record.
type state int

const (
	stateNone state = iota
	statePkgbuild
	statePackage
	statePackageArchSpecific
	statePkgbuildArchSpecific
)

const (
	tokenPkgbuild    = "PKGBUILD"
	tokenPackage     = "PACKAGE"
	tokenPackageArch = "PACKAGEARCH"
	tokenArch        = "ARCH"
	tokenEnd         = "END"
)

// Field is one key:value content line, its value borrowed from the
// caller-owned stdout buffer.
type Field struct {
	Key   string
	Value []byte
}

// ArchBlock is one ARCH or PACKAGEARCH sub-frame: the architecture tag plus
// the fields dumped under it.
type ArchBlock struct {
	Arch   string
	Fields []Field
}

// PackageBlock is one PACKAGE sub-frame: the split package's own scalar/
// array fields plus its PACKAGEARCH sub-frames.
type PackageBlock struct {
	Fields     []Field
	ArchBlocks []ArchBlock
}

// Tree is one drained PKGBUILD record: the recipe-level fields, zero or
// more split-package blocks, and zero or more recipe-level ARCH sub-frames.
type Tree struct {
	Fields     []Field
	Packages   []PackageBlock
	ArchBlocks []ArchBlock
}

// pkgbuildKeys, packageKeys, packageArchKeys and pkgbuildArchKeys are the
// closed key sets valid in
// each state. A key outside the set for the current state is a hard error
// (spec: "unknown keys at any state are hard errors that surface the
// offending line").
var pkgbuildKeys = map[string]bool{
	"pkgbase": true, "pkgver": true, "pkgrel": true, "epoch": true,
	"pkgdesc": true, "url": true, "license": true, "install": true,
	"changelog": true, "validpgpkeys": true, "noextract": true,
	"groups": true, "backup": true, "options": true, "pkgver_func": true,
}

var packageKeys = map[string]bool{
	"pkgname": true, "pkgdesc": true, "url": true, "license": true,
	"groups": true, "backup": true, "options": true, "install": true,
	"changelog": true,
}

var packageArchKeys = map[string]bool{
	"arch": true, "checkdepends": true, "depends": true, "optdepends": true,
	"provides": true, "conflicts": true, "replaces": true,
}

var pkgbuildArchKeys = map[string]bool{
	"arch": true, "source": true,
	"cksums": true, "md5sums": true, "sha1sums": true, "sha224sums": true,
	"sha256sums": true, "sha384sums": true, "sha512sums": true, "b2sums": true,
	"depends": true, "makedepends": true, "checkdepends": true,
	"optdepends": true, "conflicts": true, "replaces": true, "provides": true,
}

// Parse drains the harness's entire stdout buffer and returns one Tree per
// PKGBUILD record, in the order records were emitted.
func Parse(stdout []byte) ([]Tree, error) {
	var trees []Tree

	st := stateNone

	var current *Tree

	var currentPackage *PackageBlock

	var currentArch *ArchBlock

	lines := bytes.Split(stdout, []byte("\n"))

	for _, rawLine := range lines {
		line := bytes.TrimRight(rawLine, "\r")
		if len(line) == 0 {
			continue
		}

		token := string(line)

		switch token {
		case tokenPkgbuild:
			if st != stateNone {
				return trees, illegalTransition(tokenPkgbuild, st)
			}

			trees = append(trees, Tree{})
			current = &trees[len(trees)-1]
			st = statePkgbuild

			continue

		case tokenPackage:
			if st != statePkgbuild {
				return trees, illegalTransition(tokenPackage, st)
			}

			current.Packages = append(current.Packages, PackageBlock{})
			currentPackage = &current.Packages[len(current.Packages)-1]
			st = statePackage

			continue

		case tokenPackageArch:
			if st != statePackage {
				return trees, illegalTransition(tokenPackageArch, st)
			}

			currentPackage.ArchBlocks = append(currentPackage.ArchBlocks, ArchBlock{})
			currentArch = &currentPackage.ArchBlocks[len(currentPackage.ArchBlocks)-1]
			st = statePackageArchSpecific

			continue

		case tokenArch:
			if st != statePkgbuild {
				return trees, illegalTransition(tokenArch, st)
			}

			current.ArchBlocks = append(current.ArchBlocks, ArchBlock{})
			currentArch = &current.ArchBlocks[len(current.ArchBlocks)-1]
			st = statePkgbuildArchSpecific

			continue

		case tokenEnd:
			switch st {
			case statePackageArchSpecific:
				st = statePackage
			case statePackage:
				st = statePkgbuild
			case statePkgbuildArchSpecific:
				st = statePkgbuild
			case statePkgbuild:
				st = stateNone
				current = nil
			default:
				return trees, illegalTransition(tokenEnd, st)
			}

			continue
		}

		key, value, err := splitKeyValue(line)
		if err != nil {
			return trees, err
		}

		if len(value) == 0 {
			continue
		}

		if err := validateKey(st, key); err != nil {
			return trees, err
		}

		field := Field{Key: key, Value: value}

		switch st {
		case statePkgbuild:
			current.Fields = append(current.Fields, field)
		case statePackage:
			currentPackage.Fields = append(currentPackage.Fields, field)
		case statePackageArchSpecific, statePkgbuildArchSpecific:
			if key == "arch" {
				currentArch.Arch = string(value)

				continue
			}

			currentArch.Fields = append(currentArch.Fields, field)
		default:
			return trees, pkgerrors.New(pkgerrors.ErrTypeParserScriptIllegalOutput,
				fmt.Sprintf("content line %q outside any frame", token))
		}
	}

	if st != stateNone && st != statePkgbuild {
		return trees, pkgerrors.New(pkgerrors.ErrTypeParserScriptIllegalOutput,
			fmt.Sprintf("stream ended mid-frame in state %d", st))
	}

	return trees, nil
}

// splitKeyValue splits a content line at the first colon. A line with no
// colon at all is illegal output: every non-frame-marker line must be a
// key:value pair, even if the value is empty.
func splitKeyValue(line []byte) (string, []byte, error) {
	idx := bytes.IndexByte(line, ':')
	if idx < 0 {
		return "", nil, pkgerrors.New(pkgerrors.ErrTypeParserScriptIllegalOutput,
			fmt.Sprintf("content line %q has no key:value separator", string(line)))
	}

	return string(line[:idx]), line[idx+1:], nil
}

func validateKey(st state, key string) error {
	var known map[string]bool

	switch st {
	case statePkgbuild:
		known = pkgbuildKeys
	case statePackage:
		known = packageKeys
	case statePackageArchSpecific:
		known = packageArchKeys
	case statePkgbuildArchSpecific:
		known = pkgbuildArchKeys
	default:
		known = nil
	}

	if known == nil || !known[key] {
		return pkgerrors.New(pkgerrors.ErrTypeParserScriptIllegalOutput,
			fmt.Sprintf("unknown key %q in state %d", key, st)).
			WithContext("key", key)
	}

	return nil
}

func illegalTransition(token string, from state) error {
	return pkgerrors.New(pkgerrors.ErrTypeParserScriptIllegalOutput,
		fmt.Sprintf("unexpected frame token %q from state %d", token, from)).
		WithContext("token", token)
}
