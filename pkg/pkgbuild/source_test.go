package pkgbuild

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveName_Git(t *testing.T) {
	t.Parallel()

	name := deriveName("https://github.com/x/y.git", GitSourceProtocol{})
	assert.Equal(t, "y", name)
}

func TestDeriveName_Fossil(t *testing.T) {
	t.Parallel()

	name := deriveName("https://example.com/repo", FossilSourceProtocol{})
	assert.Equal(t, "repo.fossil", name)
}

func TestDeriveName_BzrStripsLp(t *testing.T) {
	t.Parallel()

	name := deriveName("lp:myproject", BzrSourceProtocol{})
	assert.Equal(t, "myproject", name)
}

func TestDeriveName_PlainHTTP(t *testing.T) {
	t.Parallel()

	name := deriveName("https://host/path/file.tar.gz", HTTPSProtocol())
	assert.Equal(t, "file.tar.gz", name)
}
