package progress

import "time"

// UpdateProgress records one graded activity and returns the new profile.
// The input profile is not modified.
//
// A correct answer adds PointsPerCorrect to the subject and the total and
// extends the streak. Reaching StreakToLevelUp below MaxLevel advances one
// level and restarts the streak. An incorrect answer resets the streak.
// There is no accuracy gate on leveling.
func UpdateProgress(p LearnerProfile, subject string, wasCorrect bool, now time.Time) LearnerProfile {
	out := p.clone()
	sp, ok := out.Subjects[subject]
	if !ok {
		sp = SubjectProgress{MaxLevel: max(len(out.LevelNames[subject])-1, 0)}
	}

	sp.TotalAttempts++
	sp.ActivitiesCompleted++
	out.TotalActivities++

	if wasCorrect {
		sp.CorrectAnswers++
		sp.Points += PointsPerCorrect
		out.TotalPoints += PointsPerCorrect
		sp.CurrentStreak++
		if sp.CurrentStreak >= StreakToLevelUp && sp.Level < sp.MaxLevel {
			sp.Level++
			sp.CurrentStreak = 0
		}
	} else {
		sp.CurrentStreak = 0
	}

	sp.LastActivity = now.UTC()
	out.UpdatedAt = now.UTC()
	out.Subjects[subject] = sp
	return out
}
