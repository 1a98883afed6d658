package clone

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "https", raw: "https://example.com", wantErr: false},
		{name: "http with path", raw: "http://example.com/some/page?x=1", wantErr: false},
		{name: "bare word", raw: "not-a-url", wantErr: true},
		{name: "missing scheme", raw: "example.com", wantErr: true},
		{name: "missing host", raw: "https://", wantErr: true},
		{name: "scheme only relative", raw: "mailto:user@example.com", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateURL(tc.raw)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
