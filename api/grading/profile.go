/* profile.go
 * The first stage rubric: a profile card showing the participant's username, avatar, the current
 * UTC weekday and time, and their track. Five checks of two points each.
 */

package grading

import (
	"regexp"
	"strings"

	"bootcamp-grader/api/browser"
)

const profilePoints = 2

var frontEndVariants = regexp.MustCompile(`(?i)front(.*)end`)

// ProfileRubric builds the profile stage rubric with the given pass mark (out of 10)
func ProfileRubric(passMark int) Rubric {
	return Rubric{
		Name:     "profile",
		PassMark: passMark,
		Landing: View{
			Texts: []browser.Field{
				browser.SlackUserName,
				browser.SlackDisplayImage,
				browser.CurrentDayOfTheWeek,
				browser.CurrentUTCTime,
				browser.MyTrack,
			},
			Checks: []Check{
				binary("slack username", profilePoints, func(in Inputs) bool {
					v, ok := in.Page.Text(browser.SlackUserName)
					return ok && containsFold(v, in.Submission.Username)
				}),
				binary("slack display image", profilePoints, func(in Inputs) bool {
					v, ok := in.Page.Text(browser.SlackDisplayImage)
					return ok && containsFold(v, in.Submission.Username)
				}),
				binary("day of the week", profilePoints, func(in Inputs) bool {
					v, ok := in.Page.Text(browser.CurrentDayOfTheWeek)
					return ok && strings.EqualFold(strings.TrimSpace(v), in.Now.UTC().Weekday().String())
				}),
				binary("utc time", profilePoints, func(in Inputs) bool {
					v, ok := in.Page.Text(browser.CurrentUTCTime)
					if !ok {
						return false
					}
					t, ok := ParseTimestamp(v)
					return ok && WithinWindow(t, in.Now)
				}),
				binary("track", profilePoints, func(in Inputs) bool {
					v, ok := in.Page.Text(browser.MyTrack)
					return ok && IsFrontendTrack(v)
				}),
			},
		},
	}
}

// IsFrontendTrack reports whether a track label names the frontend track, accepting variants
// such as "Front-End" and "front end"
func IsFrontendTrack(label string) bool {
	normalised := strings.ToLower(frontEndVariants.ReplaceAllString(label, "frontend"))
	return strings.Contains(normalised, "frontend")
}
