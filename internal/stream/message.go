package stream

import (
	"github.com/san-kum/dropsim/internal/dynamo"
	"github.com/san-kum/dropsim/internal/storage"
)

const (
	TypeInfo     = "info"
	TypeError    = "error"
	TypeAck      = "ack"
	TypeSnapshot = "snapshot"

	CmdSpawn   = "spawn"
	CmdClear   = "clear"
	CmdStart   = "start"
	CmdStop    = "stop"
	CmdGravity = "gravity"
	CmdParam   = "param"
	CmdAccel   = "accel"
)

// Message is everything the server sends.
type Message struct {
	Type     string           `json:"type"`
	Message  string           `json:"message,omitempty"`
	Command  string           `json:"command,omitempty"`
	ID       dynamo.BodyID    `json:"id,omitempty"`
	Snapshot *SnapshotMessage `json:"snapshot,omitempty"`
}

type SnapshotMessage struct {
	Tick           uint64               `json:"tick"`
	Time           float64              `json:"time"`
	Running        bool                 `json:"running"`
	Gravity        [2]float64           `json:"gravity"`
	Direction      string               `json:"direction"`
	ContactPairs   int                  `json:"contact_pairs"`
	Impacts        int                  `json:"impacts"`
	StableFraction float64              `json:"stable_fraction"`
	SensorStale    bool                 `json:"sensor_stale,omitempty"`
	Bodies         []storage.ExportBody `json:"bodies"`
}

func NewSnapshotMessage(s dynamo.Snapshot) *SnapshotMessage {
	return &SnapshotMessage{
		Tick:           s.Tick,
		Time:           s.Time,
		Running:        s.Running,
		Gravity:        [2]float64{s.Gravity[0], s.Gravity[1]},
		Direction:      dynamo.Direction(s.Gravity),
		ContactPairs:   s.ContactPairs,
		Impacts:        s.Impacts,
		StableFraction: s.StableFraction(),
		Bodies:         storage.ExportBodies(s.Bodies),
	}
}

// Command is everything a client may send. X and Y are optional for
// spawn; gravity takes either X and Y or a Direction word; accel takes a
// device-axis accelerometer sample in X and Y.
type Command struct {
	Type      string   `json:"type"`
	X         *float64 `json:"x,omitempty"`
	Y         *float64 `json:"y,omitempty"`
	Direction string   `json:"direction,omitempty"`
	Name      string   `json:"name,omitempty"`
	Value     float64  `json:"value,omitempty"`
}
