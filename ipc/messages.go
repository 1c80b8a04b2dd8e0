package ipc

// Message types. Referee and detection flow in; robot control and
// trajectories flow out to every client that completed the handshake.
const (
	TypeHello        = "hello"
	TypeAck          = "ack"
	TypeReferee      = "referee"
	TypeDetection    = "detection"
	TypeRobotControl = "robot_control"
	TypeTrajectories = "trajectories"
)

type HelloMessage struct {
	Client string `json:"client"`
}

type AckMessage struct {
	Status  string `json:"status"`
	Session string `json:"session"`
}
