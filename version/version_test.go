package version_test

import (
	"strings"
	"testing"

	"github.com/ogeth777/baseworld/version"

	"github.com/stretchr/testify/assert"
)

func TestVersion(t *testing.T) {
	assert.True(t, strings.HasPrefix(version.Get(), "v"))
	// test binaries carry no vcs information
	assert.False(t, strings.HasPrefix(version.GetCommitHash(), "-"))
}
