package tree

import "testing"

func TestFormatKeys(t *testing.T) {
	if got := FormatKeys([]string{"a", "b"}); got != "['a', 'b']" {
		t.Errorf("FormatKeys = %s", got)
	}
	if got := FormatKeys(nil); got != "[]" {
		t.Errorf("FormatKeys(nil) = %s", got)
	}
}

func TestFormatValue(t *testing.T) {
	m := NewMap()
	m.Set("k", 1)
	m.Set("s", "txt")

	cases := []struct {
		in   any
		want string
	}{
		{nil, "None"},
		{true, "True"},
		{false, "False"},
		{3, "3"},
		{"txt", "'txt'"},
		{[]any{1, "a"}, "[1, 'a']"},
		{m, "{'k': 1, 's': 'txt'}"},
	}
	for _, c := range cases {
		if got := FormatValue(c.in); got != c.want {
			t.Errorf("FormatValue(%v) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestKindName(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{"x", "string"},
		{1, "integer"},
		{1.5, "float"},
		{true, "boolean"},
		{[]any{}, "list"},
		{NewMap(), "dict"},
		{nil, "null"},
	}
	for _, c := range cases {
		if got := KindName(c.in); got != c.want {
			t.Errorf("KindName(%v) = %s, want %s", c.in, got, c.want)
		}
	}
}
