package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

// newTestParser wires a Parser against empty library/config stubs: the
// harness sources them unconditionally, but nothing in these fixtures calls
// a makepkg helper function, so an empty file satisfies the `source` call.
func newTestParser(t *testing.T, dir string) *Parser {
	t.Helper()

	libDir := t.TempDir()
	writeFixture(t, libDir, "util.sh", "")
	writeFixture(t, libDir, "source.sh", "")
	configPath := writeFixture(t, t.TempDir(), "makepkg.conf", "")

	p, err := New(ParserOptions{
		Interpreter: "/bin/bash",
		WorkingDir:  dir,
		LibraryPath: libDir,
		ConfigPath:  configPath,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	return p
}

func TestParser_ParseOne_SinglePackageRecipe(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFixture(t, dir, "PKGBUILD", `pkgbase=foo
pkgname=foo
pkgver=1.2
pkgrel=3
arch=('any')
depends=('bar>=2')
package_foo() { :; }
`)

	p := newTestParser(t, dir)

	pkg, err := p.ParseOne("PKGBUILD")
	require.NoError(t, err)
	assert.Equal(t, "foo", pkg.Pkgbase)
	assert.Equal(t, "1.2", pkg.Version.Pkgver)
	assert.Equal(t, "3", pkg.Version.Pkgrel)
	require.Len(t, pkg.MultiArch.Any.Depends, 1)
	assert.Equal(t, "bar", pkg.MultiArch.Any.Depends[0].Name)
	require.Len(t, pkg.Pkgs, 1)
	assert.Equal(t, "foo", pkg.Pkgs[0].Pkgname)
}

func TestParser_ParseOne_DefaultsToPKGBUILDInWorkingDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFixture(t, dir, "PKGBUILD", `pkgbase=bar
pkgname=bar
pkgver=4
pkgrel=1
arch=('any')
package_bar() { :; }
`)

	p := newTestParser(t, dir)

	pkg, err := p.ParseOne("")
	require.NoError(t, err)
	assert.Equal(t, "bar", pkg.Pkgbase)
}

func TestParser_ParseMulti_EmptyInputSpawnsNothing(t *testing.T) {
	t.Parallel()

	p := newTestParser(t, t.TempDir())

	records, err := p.ParseMulti(nil)
	require.NoError(t, err)
	assert.Nil(t, records)
}

func TestParser_ParseMulti_OrdersOutputLikeInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFixture(t, dir, "a.PKGBUILD", `pkgbase=a
pkgname=a
pkgver=1
pkgrel=1
arch=('any')
package_a() { :; }
`)
	writeFixture(t, dir, "b.PKGBUILD", `pkgbase=b
pkgname=b
pkgver=2
pkgrel=1
arch=('any')
package_b() { :; }
`)

	p := newTestParser(t, dir)

	records, err := p.ParseMulti([]string{"a.PKGBUILD", "b.PKGBUILD"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].Pkgbase)
	assert.Equal(t, "b", records[1].Pkgbase)
}

func TestDefaultParserOptions_ReadsEnvOverrides(t *testing.T) {
	t.Setenv("LIBRARY", "/opt/library")
	t.Setenv("MAKEPKG_CONF", "/opt/makepkg.conf")

	opts := DefaultParserOptions()
	assert.Equal(t, "/bin/bash", opts.Interpreter)
	assert.Equal(t, "/opt/library", opts.LibraryPath)
	assert.Equal(t, "/opt/makepkg.conf", opts.ConfigPath)
}

func TestNew_RejectsEmptyLibraryPath(t *testing.T) {
	t.Parallel()

	_, err := New(ParserOptions{Interpreter: "/bin/bash", ConfigPath: "/etc/makepkg.conf"})
	require.Error(t, err)
}

func TestRawExitCode_TranslatesHarnessConventions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, -1, rawExitCode(255))
	assert.Equal(t, -2, rawExitCode(254))
	assert.Equal(t, -3, rawExitCode(253))
	assert.Equal(t, 1, rawExitCode(1))
}
