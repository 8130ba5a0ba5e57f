package scoring

// GetPoints returns points[index], or 0 past the end of the schedule.
func GetPoints(index int, points ...int) int {
	if index >= 0 && index < len(points) {
		return points[index]
	}
	return 0
}

// RepeatScore tells how much build repeats the previous builds: one for a
// repeated race, one for a repeated class.
func RepeatScore(previous []string, build string) int {
	if len(build) != 4 {
		return 0
	}
	race, class := build[:2], build[2:]
	var raceSeen, classSeen bool
	for _, p := range previous {
		if len(p) != 4 {
			continue
		}
		raceSeen = raceSeen || p[:2] == race
		classSeen = classSeen || p[2:] == class
	}
	score := 0
	if raceSeen {
		score++
	}
	if classSeen {
		score++
	}
	return score
}
