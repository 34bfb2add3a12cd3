package config

import "testing"

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    Options
		wantErr bool
	}{
		{"raw-cfg", []string{"--raw-cfg", "prog.ir"}, Options{Command: CommandRawCFG, Src: "prog.ir"}, false},
		{"analysis", []string{"--analysis", "liveness", "prog.ir"}, Options{Command: CommandAnalysis, Kind: "liveness", Src: "prog.ir"}, false},
		{"missing file", []string{"--exec"}, Options{}, true},
		{"missing command", nil, Options{}, true},
		{"unknown flag", []string{"--bogus", "prog.ir"}, Options{}, true},
		{"not a flag", []string{"prog.ir"}, Options{}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseArgs(tc.args)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}
