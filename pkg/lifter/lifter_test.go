package lifter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arch-tools/pkgbuild/pkg/pkgbuild"
	"github.com/arch-tools/pkgbuild/pkg/streamparser"
)

func field(key, value string) streamparser.Field {
	return streamparser.Field{Key: key, Value: []byte(value)}
}

func TestParseDependency_OrderedAndBareForms(t *testing.T) {
	t.Parallel()

	dep := parseDependency("bar>=2")
	require.NotNil(t, dep.Version)
	assert.Equal(t, "bar", dep.Name)
	assert.Equal(t, pkgbuild.OrderGreaterOrEqual, dep.Version.Order)
	assert.Equal(t, "2", dep.Version.Plain.Pkgver)

	bare := parseDependency("baz")
	assert.Equal(t, "baz", bare.Name)
	assert.Nil(t, bare.Version)
}

func TestParseDependency_EpochAndPkgrelInConstraint(t *testing.T) {
	t.Parallel()

	dep := parseDependency("qux=2:1.0-1")
	require.NotNil(t, dep.Version)
	assert.Equal(t, pkgbuild.OrderEqual, dep.Version.Order)
	assert.Equal(t, "2", dep.Version.Plain.Epoch)
	assert.Equal(t, "1.0", dep.Version.Plain.Pkgver)
	assert.Equal(t, "1", dep.Version.Plain.Pkgrel)
}

func TestParseProvide_EqualityConstraint(t *testing.T) {
	t.Parallel()

	p, err := parseProvide("libfoo=1.0")
	require.NoError(t, err)
	assert.Equal(t, "libfoo", p.Name)
	require.NotNil(t, p.Version)
	assert.Equal(t, "1.0", p.Version.Pkgver)
}

func TestParseProvide_OrderedConstraintIsHardError(t *testing.T) {
	t.Parallel()

	_, err := parseProvide("libfoo>=1.0")
	require.Error(t, err)
}

func TestLiftOptionalDependency_SplitsReason(t *testing.T) {
	t.Parallel()

	od := liftOptionalDependency("python: for the helper script")
	assert.Equal(t, "python", od.Name)
	assert.Equal(t, "for the helper script", od.Reason)
	assert.Nil(t, od.Version)
}

func TestLiftOptions_OnAndOffPrefix(t *testing.T) {
	t.Parallel()

	opts := liftOptions([]string{"strip", "!docs"})
	assert.Equal(t, pkgbuild.OptionOn, opts.Strip)
	assert.Equal(t, pkgbuild.OptionOff, opts.Docs)
	assert.Equal(t, pkgbuild.OptionAbsent, opts.Lto)
}

func TestLiftOptions_UnknownNameIgnored(t *testing.T) {
	t.Parallel()

	opts := liftOptions([]string{"notreal"})
	assert.Equal(t, pkgbuild.OptionAbsent, opts.Get(pkgbuild.OptionStrip))
}

func TestLiftSource_GitSignedWithTagFragment(t *testing.T) {
	t.Parallel()

	src, err := liftSource("git+https://example.com/repo.git#tag=v1.0?signed")
	require.NoError(t, err)

	proto, ok := src.Protocol.(pkgbuild.GitSourceProtocol)
	require.True(t, ok)
	assert.True(t, proto.Signed)
	require.NotNil(t, proto.Fragment)
	assert.Equal(t, pkgbuild.GitTag, proto.Fragment.Kind)
	assert.Equal(t, "v1.0", proto.Fragment.Value)
	assert.Equal(t, "https://example.com/repo.git", src.URL)
	assert.Equal(t, "repo", src.Name)
}

func TestLiftSource_AliasNameIsPreserved(t *testing.T) {
	t.Parallel()

	src, err := liftSource("libfoo::https://example.com/foo.tar.gz")
	require.NoError(t, err)
	assert.Equal(t, "libfoo", src.Name)
	assert.Equal(t, "https://example.com/foo.tar.gz", src.URL)
	assert.Equal(t, pkgbuild.HTTPSProtocol(), src.Protocol)
}

func TestLiftSource_BzrRevisionFragment(t *testing.T) {
	t.Parallel()

	src, err := liftSource("bzr+https://example.com/repo#revision=42")
	require.NoError(t, err)

	proto, ok := src.Protocol.(pkgbuild.BzrSourceProtocol)
	require.True(t, ok)
	require.NotNil(t, proto.Fragment)
	assert.Equal(t, "42", proto.Fragment.Revision)
}

func TestLiftSource_HTTPPreservesLiteralFragmentAndSignedSuffix(t *testing.T) {
	t.Parallel()

	src, err := liftSource("https://example.com/dl.cgi?file=foo#section?signed")
	require.NoError(t, err)
	assert.Equal(t, pkgbuild.HTTPSProtocol(), src.Protocol)
	assert.Equal(t, "https://example.com/dl.cgi?file=foo#section?signed", src.URL)
}

func TestLiftSource_LocalPathHasNoScheme(t *testing.T) {
	t.Parallel()

	src, err := liftSource("install.sh")
	require.NoError(t, err)
	assert.Equal(t, pkgbuild.LocalProtocol(), src.Protocol)
	assert.Equal(t, "install.sh", src.URL)
}

func TestLiftChecksums_SkipDecodesToAbsent(t *testing.T) {
	t.Parallel()

	sums, err := liftChecksums(1, nil, nil, nil, nil, []string{"SKIP"}, nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.Nil(t, sums[0].Sha256Sum)
	assert.True(t, sums[0].IsEmpty())
}

func TestLiftChecksums_CksumDecimalDecode(t *testing.T) {
	t.Parallel()

	sums, err := liftChecksums(1, []string{"1234567890"}, nil, nil, nil, nil, nil, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, sums[0].Cksum)
	assert.EqualValues(t, 1234567890, *sums[0].Cksum)
}

func TestLiftChecksums_ValidSha256Decodes(t *testing.T) {
	t.Parallel()

	hexDigest := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	sums, err := liftChecksums(1, nil, nil, nil, nil, []string{hexDigest}, nil, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, sums[0].Sha256Sum)
}

func TestLiftChecksums_WrongWidthDecodesToAbsent(t *testing.T) {
	t.Parallel()

	sums, err := liftChecksums(1, nil, nil, nil, nil, []string{"deadbeef"}, nil, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, sums[0].Sha256Sum)
}

func TestLiftChecksums_LengthMismatchIsHardError(t *testing.T) {
	t.Parallel()

	_, err := liftChecksums(2, nil, nil, nil, nil, []string{"onlyone"}, nil, nil, nil)
	require.Error(t, err)
}

func TestLift_ArchAnyRoutesToMultiArchAny(t *testing.T) {
	t.Parallel()

	tree := streamparser.Tree{
		Fields: []streamparser.Field{
			field("pkgbase", "foo"),
			field("pkgver", "1.2"),
			field("pkgrel", "3"),
		},
		ArchBlocks: []streamparser.ArchBlock{
			{
				Arch: "any",
				Fields: []streamparser.Field{
					field("depends", "bar>=2"),
					field("depends", "baz"),
				},
			},
		},
	}

	pkg, err := Lift(tree)
	require.NoError(t, err)
	require.NotNil(t, pkg.MultiArch)
	assert.Equal(t, 0, pkg.MultiArch.Len())
	require.Len(t, pkg.MultiArch.Any.Depends, 2)
	assert.Equal(t, "bar", pkg.MultiArch.Any.Depends[0].Name)
	assert.Equal(t, "baz", pkg.MultiArch.Any.Depends[1].Name)
}

func TestLift_ConcreteArchIsSetOnMultiArch(t *testing.T) {
	t.Parallel()

	tree := streamparser.Tree{
		Fields: []streamparser.Field{field("pkgbase", "foo")},
		ArchBlocks: []streamparser.ArchBlock{
			{Arch: "x86_64", Fields: []streamparser.Field{field("depends", "glibc")}},
		},
	}

	pkg, err := Lift(tree)
	require.NoError(t, err)
	assert.Equal(t, 1, pkg.MultiArch.Len())

	got, ok := pkg.MultiArch.Get(pkgbuild.ArchX86_64)
	require.True(t, ok)
	require.Len(t, got.Depends, 1)
	assert.Equal(t, "glibc", got.Depends[0].Name)
}

func TestLift_SplitPackageAssembly(t *testing.T) {
	t.Parallel()

	tree := streamparser.Tree{
		Fields: []streamparser.Field{field("pkgbase", "foo")},
		Packages: []streamparser.PackageBlock{
			{
				Fields: []streamparser.Field{field("pkgname", "foo-bin")},
				ArchBlocks: []streamparser.ArchBlock{
					{Arch: "any", Fields: []streamparser.Field{field("depends", "glibc")}},
				},
			},
		},
	}

	pkg, err := Lift(tree)
	require.NoError(t, err)
	require.Len(t, pkg.Pkgs, 1)
	assert.Equal(t, "foo-bin", pkg.Pkgs[0].Pkgname)
	require.Len(t, pkg.Pkgs[0].MultiArch.Any.Depends, 1)
}

func TestLift_DuplicatePkgnameIsHardError(t *testing.T) {
	t.Parallel()

	tree := streamparser.Tree{
		Fields: []streamparser.Field{field("pkgbase", "foo")},
		Packages: []streamparser.PackageBlock{
			{Fields: []streamparser.Field{field("pkgname", "foo-bin")}},
			{Fields: []streamparser.Field{field("pkgname", "foo-bin")}},
		},
	}

	_, err := Lift(tree)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate split package name")
}

func TestLift_PkgverFuncFlag(t *testing.T) {
	t.Parallel()

	tree := streamparser.Tree{
		Fields: []streamparser.Field{field("pkgbase", "foo"), field("pkgver_func", "y")},
	}

	pkg, err := Lift(tree)
	require.NoError(t, err)
	assert.True(t, pkg.PkgverFunc)
}

func TestLift_PkgverFuncFlagInvalidIsHardError(t *testing.T) {
	t.Parallel()

	tree := streamparser.Tree{
		Fields: []streamparser.Field{field("pkgbase", "foo"), field("pkgver_func", "maybe")},
	}

	_, err := Lift(tree)
	require.Error(t, err)
}
