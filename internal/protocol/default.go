package protocol

const (
	DomainLocomotor     = "locomotor"
	DomainObjectControl = "object_control"
)

func crit(labels ...string) []Criterion {
	out := make([]Criterion, len(labels))
	for i, l := range labels {
		out[i] = Criterion{Label: l}
	}
	return out
}

// Default returns the built-in TGMD-3 protocol: two trials per criterion.
func Default() *Protocol {
	return &Protocol{
		Name:               "TGMD-3",
		TrialsPerCriterion: 2,
		Domains: []Domain{
			{
				Key:  DomainLocomotor,
				Name: "Locomotor",
				SubTests: []SubTest{
					{Name: "Run", Criteria: crit("Arms bent, moving opposite to legs", "Brief period where both feet are off the surface", "Narrow foot placement landing on heel or toes", "Non-support leg bent about 90 degrees")},
					{Name: "Gallop", Criteria: crit("Arms bent and lifted to waist level", "Brief period where both feet are off the surface", "Rhythmic pattern for four consecutive gallops", "Trailing foot does not cross lead foot")},
					{Name: "Hop", Criteria: crit("Non-hopping leg swings forward", "Non-hopping foot stays close to the body", "Arms bent and swing forward", "Hops three consecutive times on the preferred foot")},
					{Name: "Skip", Criteria: crit("Step forward followed by a hop on the same foot", "Arms bent and move opposite to legs", "Four consecutive rhythmical alternating skips")},
					{Name: "Horizontal Jump", Criteria: crit("Preparatory crouch with knees and arms bent", "Arms extend forcefully forward and upward", "Both feet come off the floor and land together", "Balance kept on landing")},
					{Name: "Slide", Criteria: crit("Body turned sideways", "Step sideways followed by a slide of the trailing foot", "Four continuous slide cycles", "Direction change with slides to the other side")},
				},
			},
			{
				Key:  DomainObjectControl,
				Name: "Object Control",
				SubTests: []SubTest{
					{Name: "Two-Hand Strike", Criteria: crit("Dominant hand grips bat above non-dominant hand", "Non-preferred side faces the tosser", "Hip and shoulders rotate during swing", "Ball is hit", "Follow-through past the non-dominant shoulder")},
					{Name: "Forehand Strike", Criteria: crit("Backswing of the paddle", "Step with non-preferred foot", "Ball struck toward the wall", "Paddle follows through")},
					{Name: "Dribble", Criteria: crit("Contact with one hand at about waist level", "Pushes ball with fingertips", "Four consecutive bounces without moving the feet")},
					{Name: "Catch", Criteria: crit("Hands positioned in front of the body", "Arms extend reaching for the ball", "Ball caught by hands only")},
					{Name: "Kick", Criteria: crit("Rapid continuous approach to the ball", "Elongated stride or leap before contact", "Non-kicking foot placed close to the ball", "Kicks with instep or inside of the foot")},
					{Name: "Overhand Throw", Criteria: crit("Windup with a downward arm movement", "Step with the foot opposite the throwing hand", "Hip and shoulders rotate", "Follow-through across the body")},
					{Name: "Underhand Throw", Criteria: crit("Preferred hand swings down and back", "Knees bent to lower the body", "Ball released close to the floor", "Follow-through toward chest height")},
				},
			},
		},
	}
}
