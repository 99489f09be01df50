package cli

import (
	"bytes"
	"testing"
)

func TestRootCommand(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)

	root := c.RootCommand()
	if root.Use != "cardforge" {
		t.Errorf("Use = %q, want cardforge", root.Use)
	}

	want := map[string]bool{
		"import":     false,
		"templates":  false,
		"fields":     false,
		"render":     false,
		"sheet":      false,
		"calibrate":  false,
		"markers":    false,
		"completion": false,
	}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestResolveOutput(t *testing.T) {
	tests := []struct {
		name       string
		format     string
		output     string
		tplName    string
		wantFormat string
		wantOutput string
		wantErr    bool
	}{
		{
			name:       "defaults to svg",
			tplName:    "badge",
			wantFormat: "svg",
			wantOutput: "badge.svg",
		},
		{
			name:       "extension decides",
			output:     "out/card.pdf",
			tplName:    "badge",
			wantFormat: "pdf",
			wantOutput: "out/card.pdf",
		},
		{
			name:       "explicit format wins over extension",
			format:     "png",
			output:     "card.svg",
			tplName:    "badge",
			wantFormat: "png",
			wantOutput: "card.svg",
		},
		{
			name:       "format names the default file",
			format:     "png",
			tplName:    "badge",
			wantFormat: "png",
			wantOutput: "badge.png",
		},
		{
			name:    "unknown format",
			format:  "bmp",
			tplName: "badge",
			wantErr: true,
		},
		{
			name:    "unknown extension",
			output:  "card.bmp",
			tplName: "badge",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, output, err := resolveOutput(tt.format, tt.output, tt.tplName)
			if tt.wantErr {
				if err == nil {
					t.Fatal("resolveOutput() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveOutput() error = %v", err)
			}
			if format != tt.wantFormat || output != tt.wantOutput {
				t.Errorf("resolveOutput() = (%q, %q), want (%q, %q)",
					format, output, tt.wantFormat, tt.wantOutput)
			}
		})
	}
}
