package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeRequestValidate(t *testing.T) {
	cases := []struct {
		name string
		req  NodeRequest
		want error
	}{
		{"executable", NodeRequest{Name: "n", Package: "p", Executable: "x"}, nil},
		{"launch file", NodeRequest{Name: "n", Package: "p", LaunchFile: "l"}, nil},
		{"no name", NodeRequest{Package: "p", Executable: "x"}, ErrMissingName},
		{"no package", NodeRequest{Name: "n", Executable: "x"}, ErrMissingPackage},
		{"both targets", NodeRequest{Name: "n", Package: "p", Executable: "x", LaunchFile: "l"}, ErrTargetChoice},
		{"no target", NodeRequest{Name: "n", Package: "p"}, ErrTargetChoice},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}
