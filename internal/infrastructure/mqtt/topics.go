package mqtt

import "fmt"

// Topic prefixes for the fleet MQTT namespace.
//
// Robots publish their own telemetry under robots/{id}/state. The
// fleetcore service publishes its own lifecycle under fleetcore/system.
const (
	// TopicPrefixRobots is the base for robot telemetry topics.
	TopicPrefixRobots = "robots"

	// TopicPrefixSystem is the base for fleetcore system topics.
	TopicPrefixSystem = "fleetcore/system"
)

// Topics provides builders for fleet MQTT topics.
// Using these helpers keeps topic naming consistent across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.RobotState("r2")
//	// Returns: "robots/r2/state"
type Topics struct{}

// RobotState returns the telemetry topic for a single robot.
//
// Example: robots/r2/state
func (Topics) RobotState(robotID string) string {
	return fmt.Sprintf("%s/%s/state", TopicPrefixRobots, robotID)
}

// AllRobotStates returns a pattern matching telemetry from every robot.
//
// Pattern: robots/+/state
func (Topics) AllRobotStates() string {
	return fmt.Sprintf("%s/+/state", TopicPrefixRobots)
}

// SystemStatus returns the fleetcore service status topic. The LWT and
// graceful shutdown messages are published here.
//
// Example: fleetcore/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}
