package quiz

// Score grades a submitted answer sheet against a quiz's answer key.
//
// answers holds the selected option per presented position, -1 (or any
// negative) meaning unanswered. key holds the correct option index per
// original question. order maps presented position to original question
// index; an empty order means questions were presented in original order.
//
// Positions beyond the key (or beyond the order, when one is set) are
// ignored rather than rejected, so a truncated or over-long client
// submission still grades. Pure function, no I/O.
func Score(answers, key, order []int) (score, answered int) {
	limit := len(answers)
	if len(order) > 0 {
		if len(order) < limit {
			limit = len(order)
		}
	} else if len(key) < limit {
		limit = len(key)
	}

	for i := 0; i < limit; i++ {
		if answers[i] < 0 {
			continue
		}
		answered++

		orig := i
		if len(order) > 0 {
			orig = order[i]
		}
		if orig < 0 || orig >= len(key) {
			continue
		}
		if answers[i] == key[orig] {
			score++
		}
	}
	return score, answered
}
