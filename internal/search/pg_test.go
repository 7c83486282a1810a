package search

import "testing"

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain text untouched", input: "migrar servidor", want: "migrar servidor"},
		{name: "percent escaped", input: "100%", want: `100\%`},
		{name: "underscore escaped", input: "setor_id", want: `setor\_id`},
		{name: "backslash escaped first", input: `a\%b`, want: `a\\\%b`},
		{name: "bare wildcard", input: "%", want: `\%`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := escapeLike(tt.input); got != tt.want {
				t.Errorf("escapeLike(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
