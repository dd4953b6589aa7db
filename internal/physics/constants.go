package physics

const (
	Gravity = 9.81

	DefaultMass       = 1.0
	DefaultHalfWidth  = 0.5
	DefaultHalfHeight = 1.0

	// StepHeight is the tallest ledge an actor walks onto instead of
	// treating it as a wall.
	StepHeight = 0.3

	// GroundContactSlack keeps a resting actor in contact with the surface
	// it stands on across float rounding.
	GroundContactSlack = 1e-6

	CollisionAxisTolerance = 1e-9

	// resolv rounds bounds to whole units, so its space is laid out in
	// centimeters with 2 m cells.
	spaceScale    = 100
	spaceCellSize = 200

	actorPushMaxPerActor = 0.08
	actorPushMaxPerTick  = 0.12
	actorPushStrength    = 0.7
)
