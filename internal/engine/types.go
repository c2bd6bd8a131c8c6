package engine

import (
	"encoding/json"
	"maps"
)

// Record is a flat, JSON-compatible mapping of named values. Settings and
// RuntimeState both use it; the key set is simulation specific.
type Record map[string]any

// Clone returns a shallow copy of r. A nil record clones to an empty one.
func (r Record) Clone() Record {
	dup := make(Record, len(r))
	maps.Copy(dup, r)
	return dup
}

// DecodeRecord parses a JSON object into a Record.
func DecodeRecord(raw json.RawMessage) (Record, error) {
	rec := Record{}
	if len(raw) == 0 || string(raw) == "null" {
		return rec, nil
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Commands understood by the engine.
const (
	CmdStartSimulation   = "start-simulation"
	CmdDestroySimulation = "destroy-simulation"
	CmdPauseSimulation   = "pause-simulation"
	CmdResumeSimulation  = "resume-simulation"

	CmdGetSettings   = "get-settings"
	CmdUpdateSetting = "update-setting"
	CmdGetState      = "get-state"
	CmdUpdateState   = "update-state"
	CmdApplyPreset   = "apply-preset"
	CmdRandomize     = "randomize-settings"
	CmdResetSettings = "reset-settings"

	CmdInteractionStart    = "interaction-start"
	CmdInteractionContinue = "interaction-continue"
	CmdInteractionRelease  = "interaction-release"
	CmdZoomToCursor        = "zoom-to-cursor"
	CmdPan                 = "pan"
	CmdStopPan             = "stop-pan"
)

// Events pushed by the engine.
const (
	EventSimulationInitialized = "simulation-initialized"
	EventFPSUpdate             = "fps-update"
)

// Frame types on the wire.
const (
	frameInvoke = "invoke"
	frameResult = "result"
	frameEvent  = "event"
)

// StartArgs is the payload of start-simulation.
type StartArgs struct {
	Kind string `json:"kind"`
}

// UpdateSettingArgs is the payload of update-setting.
type UpdateSettingArgs struct {
	SettingName string `json:"setting_name"`
	Value       any    `json:"value"`
}

// UpdateStateArgs is the payload of update-state.
type UpdateStateArgs struct {
	StateName string `json:"state_name"`
	Value     any    `json:"value"`
}

// PresetArgs is the payload of apply-preset.
type PresetArgs struct {
	PresetName string `json:"preset_name"`
}

// InteractionArgs is the payload of interaction-start and interaction-continue.
// Coordinates are physical pixels.
type InteractionArgs struct {
	ScreenX float64 `json:"screen_x"`
	ScreenY float64 `json:"screen_y"`
	Button  int     `json:"button"`
}

// ReleaseArgs is the payload of interaction-release.
type ReleaseArgs struct {
	Button int `json:"button"`
}

// ZoomArgs is the payload of zoom-to-cursor.
type ZoomArgs struct {
	Delta   float64 `json:"delta"`
	ScreenX float64 `json:"screen_x"`
	ScreenY float64 `json:"screen_y"`
}

// PanArgs is the payload of pan.
type PanArgs struct {
	DeltaX float64 `json:"delta_x"`
	DeltaY float64 `json:"delta_y"`
}

// envelope covers every frame shape; unused fields are omitted.
type envelope struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Command string          `json:"command,omitempty"`
	Args    json.RawMessage `json:"args,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RemoteError    `json:"error,omitempty"`
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
