package sim

import (
	"time"

	"github.com/Versifine/stride/internal/body"
	"github.com/Versifine/stride/internal/physics"
	"github.com/yohamta/donburi"
)

type ActorData struct {
	Body *body.Body
}

type ScriptData struct {
	Steps []ScriptStep
}

// TelemetryData accumulates what the report shows for one actor.
type TelemetryData struct {
	Start    physics.Vec3
	Last     physics.Vec3
	Distance float64
	MaxSpeed float64
	Airtime  time.Duration
}

var (
	Actor     = donburi.NewComponentType[ActorData]()
	Script    = donburi.NewComponentType[ScriptData]()
	Telemetry = donburi.NewComponentType[TelemetryData]()
)
