package mqtt

import "testing"

func TestTopics(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"robot state", topics.RobotState("r2"), "robots/r2/state"},
		{"all robot states", topics.AllRobotStates(), "robots/+/state"},
		{"system status", topics.SystemStatus(), "fleetcore/system/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
