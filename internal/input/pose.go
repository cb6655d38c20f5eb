package input

import "math"

// LandmarkCount is the number of points in a tracked hand.
const LandmarkCount = 21

// Landmark indices used by the resolver.
const (
	Wrist     = 0
	IndexMCP  = 5
	IndexTip  = 8
	MiddleMCP = 9
	MiddleTip = 12
	RingMCP   = 13
	RingTip   = 16
	PinkyMCP  = 17
	PinkyTip  = 20
)

// Landmark is a normalized image coordinate; Y grows downward.
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z,omitempty"`
}

// HandPose is one frame from the hand tracker. X and Y locate the primary
// pointer in [0,1].
type HandPose struct {
	X         float64    `json:"x"`
	Y         float64    `json:"y"`
	Landmarks []Landmark `json:"landmarks"`
}

// Valid reports whether the pose carries a full landmark set.
func (p *HandPose) Valid() bool {
	return p != nil && len(p.Landmarks) >= LandmarkCount
}

func dist(a, b Landmark) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// fingers pairs each fingertip with its knuckle, index to pinky.
var fingers = [4][2]int{
	{IndexTip, IndexMCP},
	{MiddleTip, MiddleMCP},
	{RingTip, RingMCP},
	{PinkyTip, PinkyMCP},
}
