package main

import "testing"

func TestLookup(t *testing.T) {
	tests := []struct {
		goos    string
		action  string
		want    string
		wantErr bool
	}{
		{"linux", "volume-up", "pactl", false},
		{"linux", "media-next", "playerctl", false},
		{"darwin", "volume-mute", "osascript", false},
		{"linux", "launch-rockets", "", true},
		{"plan9", "volume-up", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.action, func(t *testing.T) {
			cmd, err := lookup(tt.goos, tt.action)
			if (err != nil) != tt.wantErr {
				t.Fatalf("lookup() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && cmd[0] != tt.want {
				t.Errorf("lookup() = %v, want %s", cmd, tt.want)
			}
		})
	}
}

func TestCommandTablesMatch(t *testing.T) {
	for action := range darwinCommands {
		if _, ok := linuxCommands[action]; !ok {
			t.Errorf("action %s has no linux command", action)
		}
	}
}
