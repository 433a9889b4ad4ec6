package report

import "testing"

func TestSanitizeEntities(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain text", "plain text"},
		{"wait—what", "wait-what"},
		{"it’s fine", "it&rsquo;s fine"},
		{"“quoted”", "&ldquo;quoted&rdquo;"},
		{"and then…", "and then..."},
	}
	for _, c := range cases {
		if got := Sanitize(c.in); got != c.want {
			t.Errorf("Sanitize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSanitizeEscapesMarkup(t *testing.T) {
	got := Sanitize("<script>alert(1)</script>")
	if got != "&lt;script&gt;alert(1)&lt;/script&gt;" {
		t.Errorf("markup not escaped: %q", got)
	}
}
