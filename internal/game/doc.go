// Package game implements the fixed-tick simulation behind blastpong.
//
// The whole match lives in a single MatchState value. Each tick the
// orchestrator hands it to the components in order:
//
//	ps := game.NewPowerSystem(rng, events)
//	phys := game.NewPhysics(events)
//	state.Tick++
//	ps.Tick(&state, leftIntent, rightIntent)
//	phys.Step(&state)
//
// # Sides
//
// A Side identifies a paddle, not a screen position. The host (or the single
// player) always owns SideLeft; a guest owns SideRight. MatchState.LocalSide
// records the assignment once per session so renderers never re-derive it.
//
// # Determinism
//
// Randomness (decoy vectors, opponent power rolls) comes from an injected Rand,
// and time-windowed effects are measured in ticks, so a seeded run always
// produces the same match:
//
//	rng := randutil.New(42)
//	ps := game.NewPowerSystem(rng, nil)
//
// # Power-ups
//
//   - Blast: charge while squeezing, release, and hit the ball within 400ms for
//     a 3.5x return.
//   - Ghost: two raised fingers hide the ball while it travels away from you.
//   - Triple: three raised fingers spawn two decoys, once per paddle hit.
package game
