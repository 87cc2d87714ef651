package collector

import (
	"math"
	"testing"

	"github.com/tidwall/gjson"
)

func TestSecIDForCode(t *testing.T) {
	cases := []struct{ in, want string }{
		{"sh000001", "1.000001"},
		{"sz399001", "0.399001"},
		{"sh000300", "1.000300"},
		{"000001", "000001"}, // no prefix, passed through
	}
	for _, tc := range cases {
		if got := secIDForCode(tc.in); got != tc.want {
			t.Errorf("secIDForCode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCodeForRow(t *testing.T) {
	if got := codeForRow(1, "000001"); got != "sh000001" {
		t.Errorf("market 1: got %q", got)
	}
	if got := codeForRow(0, "399001"); got != "sz399001" {
		t.Errorf("market 0: got %q", got)
	}
}

func TestChangePct(t *testing.T) {
	cases := []struct {
		name string
		row  string
		want float64
		nan  bool
	}{
		{"numeric", `{"f3":1.23}`, 1.23, false},
		{"numeric string", `{"f3":"-2.5"}`, -2.5, false},
		{"suspended dash", `{"f3":"-"}`, 0, true},
		{"empty string", `{"f3":""}`, 0, true},
		{"json null", `{"f3":null}`, 0, true},
		{"missing field", `{}`, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := changePct(gjson.Parse(tc.row))
			if tc.nan {
				if !math.IsNaN(got) {
					t.Errorf("expected NaN, got %v", got)
				}
				return
			}
			if got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
