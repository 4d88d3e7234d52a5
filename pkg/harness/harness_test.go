package harness

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_RenderContainsFrameMarkers(t *testing.T) {
	t.Parallel()

	b := NewBuilder("/usr/share/makepkg", "/etc/makepkg.conf")
	script, err := b.render()
	require.NoError(t, err)

	assert.Contains(t, script, "echo "+FramePkgbuild)
	assert.Contains(t, script, "echo "+FramePackage)
	assert.Contains(t, script, "echo "+FramePackageArch)
	assert.Contains(t, script, "echo "+FrameArch)
	assert.Contains(t, script, "dump_array_arch source source")
	assert.Contains(t, script, "dump_array_arch cksums cksums")
	assert.Contains(t, script, "exit -1")
	assert.Contains(t, script, "exit -2")
	assert.Contains(t, script, "exit -3")
}

func TestBuilder_RenderDoesNotSkipAnyArchSubFrame(t *testing.T) {
	t.Parallel()

	b := NewBuilder("/usr/share/makepkg", "/etc/makepkg.conf")
	script, err := b.render()
	require.NoError(t, err)

	assert.NotContains(t, script, `"${__arch}" == any ]] && continue`)
	assert.Contains(t, script, `[[ "${__arch}" != any ]] && __suffixed="${__name}_${__arch}"`)
}

func TestBuilder_RenderEmbedsLibraryAndConfigPaths(t *testing.T) {
	t.Parallel()

	b := NewBuilder("/custom/lib", "/custom/makepkg.conf")
	script, err := b.render()
	require.NoError(t, err)

	assert.Contains(t, script, "/custom/lib")
	assert.Contains(t, script, "/custom/makepkg.conf")
	assert.Regexp(t, `LIBRARY=\S*/custom/lib\S*\n`, script)
	assert.Regexp(t, `MAKEPKG_CONF=\S*/custom/makepkg\.conf\S*\n`, script)
}

func TestBuilder_RenderShellQuotesLibraryAndConfigPaths(t *testing.T) {
	t.Parallel()

	// A library/config path containing a command substitution must be
	// neutralized by real shell quoting, not just Go's %q string escaping
	// (which only escapes Go syntax, leaving "$(...)" live for the shell).
	b := NewBuilder("/tmp/$(touch /tmp/pwned)", "/etc/makepkg.conf")
	script, err := b.render()
	require.NoError(t, err)

	assert.NotRegexp(t, `LIBRARY=[^'"\n]*\$\(`, script,
		"library path must be shell-quoted, not interpolated unquoted")
}

func TestBuilder_Build_Tempfile(t *testing.T) {
	t.Parallel()

	b := NewBuilder("/usr/share/makepkg", "/etc/makepkg.conf")
	h, err := b.Build("")
	require.NoError(t, err)

	t.Cleanup(func() { _ = h.Close() })

	assert.True(t, strings.Contains(h.Path, ".pkgbuild-go-"))

	_, err = os.Stat(h.Path)
	require.NoError(t, err)

	require.NoError(t, h.Close())
	_, err = os.Stat(h.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestBuilder_Build_PersistentPathNotRemovedOnClose(t *testing.T) {
	t.Parallel()

	path := t.TempDir() + "/harness.sh"
	b := NewBuilder("/usr/share/makepkg", "/etc/makepkg.conf")

	h, err := b.Build(path)
	require.NoError(t, err)
	require.NoError(t, h.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
