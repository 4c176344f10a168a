/* mentions.go
 * Counts how often participants are named as helpful friends, and finds who was never named
 */

package logic

import (
	"sort"
	"strings"

	"bootcamp-grader/api/shared"
)

// CountMentions tallies every friend named across submissions. Each naming counts, including repeats.
// Postconditions: Returns counts ordered by counter descending, then username
func CountMentions(subs []shared.MentionSubmission) []shared.MentionCount {
	counter := make(map[string]int)
	for _, sub := range subs {
		for _, friend := range sub.Friends {
			friend = strings.TrimSpace(friend)
			if friend == "" {
				continue
			}
			counter[friend]++
		}
	}

	counts := make([]shared.MentionCount, 0, len(counter))
	for username, n := range counter {
		counts = append(counts, shared.MentionCount{Username: username, Counter: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Counter != counts[j].Counter {
			return counts[i].Counter > counts[j].Counter
		}
		return counts[i].Username < counts[j].Username
	})
	return counts
}

// NoMentions returns the general users that have no count
func NoMentions(general []shared.GeneralUser, counts []shared.MentionCount) []shared.GeneralUser {
	mentioned := make(map[string]bool, len(counts))
	for _, c := range counts {
		mentioned[c.Username] = true
	}

	missing := []shared.GeneralUser{}
	for _, u := range general {
		if !mentioned[u.Username] {
			missing = append(missing, u)
		}
	}
	return missing
}
