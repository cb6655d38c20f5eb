package game

// Point is a normalized 2D coordinate used for overlays.
type Point struct {
	X, Y float64
}

// PowerView is the read-only slice of a PowerState a renderer needs.
type PowerView struct {
	Charge         float64
	BlastCooldown  int
	GhostCooldown  int
	TripleCooldown int
}

// Snapshot is the per-tick render contract. It shares no memory with the
// MatchState it was taken from.
type Snapshot struct {
	Tick      int64
	Phase     Phase
	Control   ControlMode
	LocalSide Side
	Labels    [2]string

	Paddles [2]Paddle
	Ball    Ball
	Decoys  []Decoy
	Ghost   GhostWindow
	Powers  [2]PowerView

	Score   Score
	Winner  Side
	Message PowerMessage

	// Filled in by the orchestrator.
	Notice    string
	Debug     string
	Landmarks []Point
}

// Snapshot copies the renderable parts of the state.
func (s *MatchState) Snapshot() Snapshot {
	snap := Snapshot{
		Tick:      s.Tick,
		Phase:     s.Phase,
		Control:   s.Control,
		LocalSide: s.LocalSide,
		Labels:    s.Labels,
		Paddles:   s.Paddles,
		Ball:      s.Ball,
		Ghost:     s.Ghost,
		Score:     s.Score,
		Winner:    s.Winner,
		Message:   s.Message,
	}
	if len(s.Decoys) > 0 {
		snap.Decoys = append([]Decoy(nil), s.Decoys...)
	}
	for i, p := range s.Powers {
		snap.Powers[i] = PowerView{
			Charge:         p.Charge,
			BlastCooldown:  p.BlastCooldown,
			GhostCooldown:  p.GhostCooldown,
			TripleCooldown: p.TripleCooldown,
		}
	}
	return snap
}

// Power returns the view for side.
func (s Snapshot) Power(side Side) PowerView { return s.Powers[side.index()] }

// Paddle returns the rectangle for side.
func (s Snapshot) Paddle(side Side) Paddle { return s.Paddles[side.index()] }

// Label returns the message prefix for side.
func (s Snapshot) Label(side Side) string { return s.Labels[side.index()] }
