package ripperbridge

import (
	"reflect"
	"testing"
)

func TestSplitCSVRow(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{`"cell1",cell2,,cell4,"cell""5"`, []string{"cell1", "cell2", "", "cell4", `cell"5`}},
		{`"a""b","c,d",e`, []string{`a"b`, "c,d", "e"}},
		{"single", []string{"single"}},
		{"", []string{""}},
	}
	for _, tc := range cases {
		got := splitCSVRow(tc.in)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("splitCSVRow(%q) = %#v, want %#v", tc.in, got, tc.want)
		}
	}
}
