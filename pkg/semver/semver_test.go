package semver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	v, err := Parse("v1.2.3-rc.1+build.5")
	require.NoError(t, err)
	assert.Equal(t, &Version{Major: 1, Minor: 2, Patch: 3, Prerelease: "rc.1", Build: "build.5"}, v)
	assert.Equal(t, "1.2.3-rc.1+build.5", v.String())

	_, err = Parse("1.2")
	assert.Error(t, err)
	assert.Panics(t, func() { MustParse("bogus") })
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "2.0.0", -1},
		{"1.2.0", "1.1.9", 1},
		{"1.0.1", "1.0.2", -1},
		{"1.0.0-alpha", "1.0.0", -1},
		{"1.0.0", "1.0.0-alpha", 1},
		{"1.0.0-alpha", "1.0.0-beta", -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MustParse(tt.a).Compare(MustParse(tt.b)), "%s vs %s", tt.a, tt.b)
	}
}

func TestCompatible(t *testing.T) {
	current := MustParse("1.2.0")
	assert.True(t, current.Compatible(MustParse("1.0.0")))
	assert.True(t, current.Compatible(MustParse("1.2.0")))
	assert.False(t, current.Compatible(MustParse("1.3.0")))
	assert.False(t, current.Compatible(MustParse("0.9.0")))
	assert.False(t, current.Compatible(MustParse("2.0.0")))
}
