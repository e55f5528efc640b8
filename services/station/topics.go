package station

import "ironcode-go/bus"

// Bus surface. State is retained so late joiners (display, telemetry) see
// the latest snapshot immediately; notify and control are fire-and-forget.
var (
	TopicState  = bus.T("station", "state")
	TopicNotify = bus.T("station", "notify")

	topicControlAll = bus.T("station", "control", bus.Wildcard)
)

// Control verbs, the last segment of station/control/<verb>.
const (
	verbSetpoint     = "setpoint"
	verbSettings     = "settings_update"
	verbTipAdd       = "tip_add"
	verbTipDelete    = "tip_delete"
	verbTipRename    = "tip_rename"
	verbTipSelect    = "tip_select"
	verbTipCalibrate = "tip_calibrate"
	verbSuspend      = "suspend"
	verbResume       = "resume"
	verbCommit       = "commit"
)

// ControlTopic builds the topic for one control verb.
func ControlTopic(verb string) bus.Topic {
	return bus.T("station", "control", verb)
}
