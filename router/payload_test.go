package router

import "testing"

func TestAsUint(t *testing.T) {
	cases := []struct {
		in   interface{}
		want uint
	}{
		{float64(42), 42},
		{"42", 42},
		{"not-a-number", 0},
		{float64(-1), 0},
		{nil, 0},
		{true, 0},
	}

	for _, c := range cases {
		if got := asUint(c.in); got != c.want {
			t.Errorf("asUint(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestArgHelpers(t *testing.T) {
	args := []interface{}{"conv-1", map[string]interface{}{"content": "hi"}}

	if got := argString(args, 0); got != "conv-1" {
		t.Errorf("argString = %q", got)
	}
	if got := argString(args, 5); got != "" {
		t.Errorf("argString out of range = %q, want empty", got)
	}

	payload, ok := argMap(args, 1)
	if !ok || payload["content"] != "hi" {
		t.Errorf("argMap = (%v, %v)", payload, ok)
	}
	if _, ok := argMap(args, 0); ok {
		t.Error("argMap on a string must fail")
	}
}

func TestAsStringSlice(t *testing.T) {
	raw := []interface{}{"a.png", "", 42, "b.png"}
	got := asStringSlice(raw)
	if len(got) != 2 || got[0] != "a.png" || got[1] != "b.png" {
		t.Errorf("asStringSlice = %v", got)
	}

	if got := asStringSlice("not-a-slice"); got != nil {
		t.Errorf("asStringSlice on non-slice = %v, want nil", got)
	}
}
