package plugin

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigNormalized(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   *Config
		want Config
	}{
		{name: "nil uses defaults", in: nil, want: Config{IDSeparator: "_", SuffixStart: 1}},
		{name: "empty separator", in: &Config{SuffixStart: 5}, want: Config{IDSeparator: "_", SuffixStart: 5}},
		{name: "suffix below one", in: &Config{IDSeparator: "-", SuffixStart: 0}, want: Config{IDSeparator: "-", SuffixStart: 1}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, *tc.in.normalized())
		})
	}
}
