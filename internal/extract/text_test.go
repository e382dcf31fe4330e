package extract

import "testing"

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			name:   "drops scripts and styles",
			markup: `<html><head><style>p{color:red}</style><script>var x = 1;</script></head><body><p>Hello</p></body></html>`,
			want:   "Hello",
		},
		{
			name:   "drops noscript and template",
			markup: `<body><noscript>Enable JS</noscript><template><p>hidden</p></template><p>Shown</p></body>`,
			want:   "Shown",
		},
		{
			name:   "collapses whitespace across tags",
			markup: "<div>One\n\n  <b>two</b>\t<i>three</i></div>",
			want:   "One two three",
		},
		{
			name:   "drops comments",
			markup: "<p>Keep<!-- drop --> this</p>",
			want:   "Keep this",
		},
		{
			name:   "decodes entities",
			markup: "<p>Fish &amp; chips</p>",
			want:   "Fish & chips",
		},
		{
			name:   "plain text passes through",
			markup: "just words",
			want:   "just words",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripMarkup(tt.markup); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNodeText_Nil(t *testing.T) {
	if got := NodeText(nil); got != "" {
		t.Errorf("Expected empty string, got %q", got)
	}
}
