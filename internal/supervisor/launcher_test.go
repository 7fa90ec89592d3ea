//go:build linux

package supervisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLaunchSpecArgvRun(t *testing.T) {
	spec := LaunchSpec{Name: "talker", Package: "demo_nodes_cpp", Executable: "talker"}
	assert.Equal(t, []string{"ros2", "run", "demo_nodes_cpp", "talker"}, spec.argv())
}

func TestLaunchSpecArgvLaunchFile(t *testing.T) {
	spec := LaunchSpec{Name: "sys", Package: "p", LaunchFile: "sys.launch.py"}
	assert.Equal(t, []string{"ros2", "launch", "p", "sys.launch.py"}, spec.argv())
}

func TestLaunchSpecArgvParameters(t *testing.T) {
	spec := LaunchSpec{
		Name:       "n",
		Package:    "p",
		Executable: "x",
		Parameters: map[string]string{"rate": "10", "frame": "base_link"},
	}

	argv := spec.argv()
	require.Equal(t, []string{
		"ros2", "run", "p", "x",
		"--ros-args", "-p", "frame:=base_link",
		"--ros-args", "-p", "rate:=10",
	}, argv)
}

func TestLaunchSpecArgvEmptyParameterValue(t *testing.T) {
	spec := LaunchSpec{Name: "n", Package: "p", Executable: "x", Parameters: map[string]string{"k": ""}}

	argv := spec.argv()
	assert.Equal(t, "k:=", argv[len(argv)-1])
	assert.Equal(t, "-p", argv[len(argv)-2])
	assert.Equal(t, "--ros-args", argv[len(argv)-3])
}

func TestLaunchSpecValidate(t *testing.T) {
	cases := []struct {
		name string
		spec LaunchSpec
		ok   bool
	}{
		{"executable only", LaunchSpec{Name: "n", Package: "p", Executable: "x"}, true},
		{"launch file only", LaunchSpec{Name: "n", Package: "p", LaunchFile: "l"}, true},
		{"both", LaunchSpec{Name: "n", Package: "p", Executable: "x", LaunchFile: "l"}, false},
		{"neither", LaunchSpec{Name: "n", Package: "p"}, false},
		{"missing name", LaunchSpec{Package: "p", Executable: "x"}, false},
		{"missing package", LaunchSpec{Name: "n", Executable: "x"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.spec.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidRequest)
			}
		})
	}
}
