// SPDX-License-Identifier: BSD-3-Clause

package dockerbackend

import "testing"

func TestEnvEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b map[string]string
		want bool
	}{
		{"both nil", nil, nil, true},
		{"equal", map[string]string{"A": "1", "B": "2"}, map[string]string{"B": "2", "A": "1"}, true},
		{"different length", map[string]string{"A": "1"}, map[string]string{"A": "1", "B": "2"}, false},
		{"different value", map[string]string{"A": "1"}, map[string]string{"A": "2"}, false},
		{"different key", map[string]string{"A": "1"}, map[string]string{"B": "1"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := envEqual(tc.a, tc.b); got != tc.want {
				t.Errorf("envEqual(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}
