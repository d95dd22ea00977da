// Package mqtt provides MQTT client connectivity for fleetcore.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Robots that support push telemetry publish JSON state reports to
// robots/{id}/state. The broker decouples fleetcore from the individual
// robot firmwares; robots without MQTT support are covered by the HTTP
// poller instead.
//
//	Robots ↔ MQTT Broker ↔ fleetcore
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    // non-fatal: the service can run in poll-only mode
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllRobotStates(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
package mqtt
