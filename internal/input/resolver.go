package input

import (
	"fmt"

	"github.com/lox/blastpong/internal/game"
)

// Hand geometry thresholds.
const (
	RaiseLift    = 0.05
	RaiseReach   = 1.25
	SqueezeRatio = 1.15
)

// KeyboardStep is how far the paddle moves per tick while a key is held.
const KeyboardStep = 8.0

// Intent is the normalized control input for one tick.
type Intent struct {
	TargetY     float64
	Move        bool
	IsCharging  bool
	GestureCode int

	RaisedFingers int
	HandSeen      bool
}

// KeyState is the set of held keys on this tick.
type KeyState struct {
	Up, Down bool
	Charge   bool
	Ghost    bool
	Triple   bool
}

// ResolvePose turns a hand pose into an intent. A missing or malformed pose
// yields the neutral intent.
func ResolvePose(pose *HandPose, height float64) Intent {
	if !pose.Valid() {
		return Intent{}
	}

	lm := pose.Landmarks
	wrist := lm[Wrist]

	var tipSum, knuckleSum float64
	raised := 0
	for _, f := range fingers {
		tip, knuckle := lm[f[0]], lm[f[1]]
		tipDist, knuckleDist := dist(tip, wrist), dist(knuckle, wrist)
		tipSum += tipDist
		knuckleSum += knuckleDist

		if knuckle.Y-tip.Y > RaiseLift && tipDist > knuckleDist*RaiseReach {
			raised++
		}
	}

	in := Intent{
		TargetY:       pose.Y * height,
		Move:          true,
		IsCharging:    tipSum < knuckleSum*SqueezeRatio,
		RaisedFingers: raised,
		HandSeen:      true,
	}
	if raised == 2 || raised == 3 {
		in.GestureCode = raised
	}
	return in
}

// ResolveKeys turns held keys into an intent for a paddle whose top edge is
// at paddleY. Ghost wins over triple when both are held.
func ResolveKeys(keys KeyState, paddleY, paddleHeight float64) Intent {
	y := paddleY
	if keys.Up {
		y -= KeyboardStep
	}
	if keys.Down {
		y += KeyboardStep
	}

	in := Intent{
		TargetY:    y + paddleHeight/2,
		Move:       true,
		IsCharging: keys.Charge,
	}
	switch {
	case keys.Ghost:
		in.GestureCode = 2
	case keys.Triple:
		in.GestureCode = 3
	}
	return in
}

// SideIntent converts the intent into power system input after the gesture
// code has been stabilized.
func (in Intent) SideIntent(stableCode int) game.SideIntent {
	return game.SideIntent{
		IsCharging:  in.IsCharging,
		GestureCode: stableCode,
		ChargeRate:  game.HumanChargeRate,
	}
}

// Describe renders a one-line debug summary.
func (in Intent) Describe() string {
	if !in.HandSeen {
		return "no hand detected"
	}
	squeeze := "N"
	if in.IsCharging {
		squeeze = "Y"
	}
	return fmt.Sprintf("Fingers: %d | Squeeze: %s", in.RaisedFingers, squeeze)
}
