package tlguard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFullVersion(t *testing.T) {
	saved := GitCommit
	defer func() { GitCommit = saved }()

	GitCommit = "unknown"
	assert.Equal(t, Version, FullVersion())

	GitCommit = "0123456789abcdef"
	assert.Equal(t, Version+"+0123456", FullVersion())
}

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "tlguard/"+Version, UserAgent())
}
