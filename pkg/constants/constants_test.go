package constants

import "testing"

func TestAgentAppName(t *testing.T) {
	if AgentAppName == "" {
		t.Fatal("AgentAppName must not be empty")
	}
}
