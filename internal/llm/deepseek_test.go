package llm

import "testing"

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain json", `{"text": "ответ"}`, `{"text": "ответ"}`},
		{"json fence", "```json\n{\"text\": \"ответ\"}\n```", `{"text": "ответ"}`},
		{"bare fence", "```\n[\"claim\"]\n```", `["claim"]`},
		{"whitespace", "  {\"a\": 1}  ", `{"a": 1}`},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.in); got != tt.want {
				t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
