package version

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionStrings(t *testing.T) {
	assert.NotEmpty(t, Version)
	assert.NotEmpty(t, Revision)

	assert.Contains(t, Short(), Version)
	assert.True(t, strings.HasPrefix(ShortWithApp(), AppName+" "))
	assert.Contains(t, Detailed(), runtime.GOOS+"/"+runtime.GOARCH)
	assert.True(t, strings.HasPrefix(UserAgent(), AppName+"/"+Version))
}

func TestFillFromBuildInfo(t *testing.T) {
	origVersion, origRevision, origBuildDate := Version, Revision, BuildDate
	t.Cleanup(func() {
		Version, Revision, BuildDate = origVersion, origRevision, origBuildDate
	})

	t.Run("defaults are replaced", func(t *testing.T) {
		Version, Revision, BuildDate = devVersion, "HEAD", ""

		fillFromBuildInfo("v1.4.2", map[string]string{
			"vcs.revision": "abcdef1234567890",
			"vcs.modified": "true",
			"vcs.time":     "2026-03-01T10:00:00Z",
		})

		assert.Equal(t, "1.4.2", Version)
		assert.Equal(t, "abcdef123456-dirty", Revision)
		assert.Equal(t, "2026-03-01T10:00:00Z", BuildDate)
	})

	t.Run("ldflags values are kept", func(t *testing.T) {
		Version, Revision, BuildDate = "2.0.0", "cafe01", "2026-01-01T00:00:00Z"

		fillFromBuildInfo("v9.9.9", map[string]string{
			"vcs.revision": "ffffffffffff",
			"vcs.time":     "2030-01-01T00:00:00Z",
		})

		assert.Equal(t, "2.0.0", Version)
		assert.Equal(t, "cafe01", Revision)
		assert.Equal(t, "2026-01-01T00:00:00Z", BuildDate)
	})

	t.Run("devel main version is ignored", func(t *testing.T) {
		Version, Revision, BuildDate = devVersion, "HEAD", ""

		fillFromBuildInfo("(devel)", map[string]string{})

		assert.Equal(t, devVersion, Version)
		assert.Equal(t, "HEAD", Revision)
	})
}
