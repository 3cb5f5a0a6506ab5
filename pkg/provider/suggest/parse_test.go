package suggest

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseItems(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{
			name: "plain JSON",
			raw:  `{"items":["keys","wallet","phone"]}`,
			want: []string{"keys", "wallet", "phone"},
		},
		{
			name: "surrounding whitespace",
			raw:  "\n  {\"items\":[\"keys\"]}  \n",
			want: []string{"keys"},
		},
		{
			name: "json code fence",
			raw:  "```json\n{\"items\":[\"towel\",\"water bottle\"]}\n```",
			want: []string{"towel", "water bottle"},
		},
		{
			name: "bare code fence",
			raw:  "```\n{\"items\":[\"leash\"]}\n```",
			want: []string{"leash"},
		},
		{
			name: "empty items array",
			raw:  `{"items":[]}`,
			want: []string{},
		},
		{
			name:    "prose instead of JSON",
			raw:     "Sure! You should bring keys and a wallet.",
			wantErr: true,
		},
		{
			name:    "items not an array",
			raw:     `{"items":"keys"}`,
			wantErr: true,
		},
		{
			name:    "empty response",
			raw:     "   ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseItems(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseItems(%q) expected error, got %v", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseItems(%q): %v", tt.raw, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseItems(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestPromptIncludesTranscriptAndFormat(t *testing.T) {
	t.Parallel()

	p := Prompt("going hiking with the dog")
	if !strings.Contains(p, `"going hiking with the dog"`) {
		t.Errorf("prompt does not quote the transcript: %q", p)
	}
	if !strings.Contains(p, `{"items":[string,...]}`) {
		t.Errorf("prompt does not pin the JSON format: %q", p)
	}
	if !strings.Contains(p, "keys, wallet, phone, ID") {
		t.Errorf("prompt does not ask for the essentials: %q", p)
	}
}
