package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// withBuildInfo подменяет значения, которые в релизной сборке задаёт -ldflags.
func withBuildInfo(t *testing.T, v, c, d string) {
	t.Helper()

	prevVersion, prevCommit, prevDate := version, commit, date
	version, commit, date = v, c, d
	t.Cleanup(func() {
		version, commit, date = prevVersion, prevCommit, prevDate
	})
}

func TestDefaultsForLocalBuild(t *testing.T) {
	assert.Equal(t, "dev", GetVersion())
	assert.Equal(t, "unknown", GetCommit())
	assert.Equal(t, "unknown", GetDate())
	assert.Equal(t, "pom-api version=dev commit=unknown date=unknown", String())
}

func TestLinkerOverrides(t *testing.T) {
	withBuildInfo(t, "v1.4.0", "3f2a9c1", "2026-10-01T08:00:00Z")

	v, c, d := Info()
	assert.Equal(t, "v1.4.0", v)
	assert.Equal(t, "3f2a9c1", c)
	assert.Equal(t, "2026-10-01T08:00:00Z", d)

	assert.Equal(t, v, GetVersion())
	assert.Equal(t, c, GetCommit())
	assert.Equal(t, d, GetDate())
	assert.Equal(t, "pom-api version=v1.4.0 commit=3f2a9c1 date=2026-10-01T08:00:00Z", String())
}
