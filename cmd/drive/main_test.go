package main

import "testing"

func TestRootCmd_Subcommands(t *testing.T) {
	for _, name := range []string{"config", "folder", "template", "file", "fsck", "ops"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("Find(%q) = %v, %v", name, cmd, err)
		}
	}

	limit := opsCmd.Flags().Lookup("limit")
	if limit == nil || limit.DefValue != "50" {
		t.Errorf("ops --limit = %v, want default 50", limit)
	}
}
