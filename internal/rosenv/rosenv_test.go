package rosenv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvDump(t *testing.T) {
	dump := "ROS_DISTRO=humble\n" +
		"AMENT_PREFIX_PATH=/opt/ros/humble\n" +
		"EMPTY=\n" +
		"WITH_EQUALS=a=b=c\n" +
		"not a key value line\n" +
		"\n"

	env := parseEnvDump(dump)

	assert.Equal(t, "humble", env["ROS_DISTRO"])
	assert.Equal(t, "/opt/ros/humble", env["AMENT_PREFIX_PATH"])

	// Empty values are permitted.
	v, ok := env["EMPTY"]
	require.True(t, ok)
	assert.Equal(t, "", v)

	// Split on the first '=' only.
	assert.Equal(t, "a=b=c", env["WITH_EQUALS"])

	assert.NotContains(t, env, "not a key value line")
}

func TestOverlaySourcedWins(t *testing.T) {
	host := []string{"PATH=/usr/bin", "HOME=/root", "LANG=C"}
	sourced := map[string]string{
		"PATH":       "/opt/ros/humble/bin:/usr/bin",
		"ROS_DISTRO": "humble",
	}

	merged := overlay(host, sourced)

	assert.Contains(t, merged, "PATH=/opt/ros/humble/bin:/usr/bin")
	assert.Contains(t, merged, "ROS_DISTRO=humble")
	assert.Contains(t, merged, "HOME=/root")
	assert.Contains(t, merged, "LANG=C")
	assert.NotContains(t, merged, "PATH=/usr/bin")
}

func TestOverlayNoSourced(t *testing.T) {
	host := []string{"HOME=/root"}
	assert.Equal(t, host, overlay(host, nil))
}

func TestEnvUnknownDistroFails(t *testing.T) {
	_, err := Env("no-such-distro-xyz")
	require.Error(t, err)
}
