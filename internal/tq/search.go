package tq

// PredictQuantizer implements the prediction rule from §4.E:
//   - fewer than 2 history points: the integer midpoint of [Lo, Hi]
//   - exactly 2: linear interpolation, axes swapped (quantizer as a
//     function of score)
//   - 3 or more: CatmullRom sampled at the target score
//
// In every case the caller's own Lo/Hi are the clamp range. With three
// or more points, a target the spline cannot sample (outside its hull)
// falls back to the midpoint; the two-point linear prediction also
// extrapolates beyond its two points and is then clamped.
func PredictQuantizer(state *SearchState) int {
	var predicted *float64

	switch len(state.History) {
	case 0, 1:
		// fall through to midpoint below
	case 2:
		x := [2]float64{state.History[0].Score, state.History[1].Score}
		y := [2]float64{float64(state.History[0].Quantizer), float64(state.History[1].Quantizer)}
		if x[0] > x[1] {
			x[0], x[1] = x[1], x[0]
			y[0], y[1] = y[1], y[0]
		}
		predicted = Lerp(x, y, state.Target)
	default:
		predicted = CatmullRom(state.History, state.Target)
	}

	q := midpoint(state.Lo, state.Hi)
	if predicted != nil {
		q = roundClampInt(*predicted, state.Lo, state.Hi)
	}
	return q
}

func midpoint(lo, hi int) int {
	return (lo + hi) / 2
}

func roundClampInt(v float64, lo, hi int) int {
	q := int(v + 0.5)
	if v < 0 {
		q = int(v - 0.5)
	}
	if q < lo {
		return lo
	}
	if q > hi {
		return hi
	}
	return q
}

// Converged reports whether score is within the relative tolerance band
// of target.
func Converged(score, target float64) bool {
	return withinTolerance(score, target)
}

// UpdateBounds narrows the search bounds after a probe at quantizer q
// scored score, per step 5 of the control loop: a score above target
// means more compression is needed (raise the floor); a score below
// target means less compression is needed (lower the ceiling). It
// returns true once the bounds have crossed, meaning the search must
// terminate (step 6). Both updates are clamped to the opposite bound, so
// a state that starts with Lo <= Hi never crosses.
func UpdateBounds(state *SearchState, q int, score float64) bool {
	state.LastQuantizer = q
	if score > state.Target {
		state.Lo = min(q+1, state.Hi)
	} else {
		state.Hi = max(q-1, state.Lo)
	}
	return state.Lo > state.Hi
}
