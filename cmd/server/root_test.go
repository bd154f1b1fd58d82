package main

import (
	"testing"
)

func TestRootCommandTree(t *testing.T) {
	if rootCmd.Use != appName {
		t.Fatalf("root command = %q, want %q", rootCmd.Use, appName)
	}

	tests := []struct {
		args []string
		want string
	}{
		{args: []string{"serve"}, want: "serve"},
		{args: []string{"seed"}, want: "seed"},
		{args: []string{"token"}, want: "token"},
		{args: []string{"version"}, want: "version"},
		{args: []string{"capability", "enforce"}, want: "enforce"},
		{args: []string{"capability", "reset"}, want: "reset"},
	}

	for _, tt := range tests {
		cmd, _, err := rootCmd.Find(tt.args)
		if err != nil {
			t.Fatalf("Find(%v): %v", tt.args, err)
		}
		if cmd.Name() != tt.want {
			t.Errorf("Find(%v) = %q, want %q", tt.args, cmd.Name(), tt.want)
		}
	}
}
