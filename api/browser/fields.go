/* fields.go
 * The fixed vocabulary of data-testid hooks a graded page is expected to expose
 */

package browser

import "fmt"

// Field is a logical value on a graded page: the element carrying the test id, and optionally the
// attribute to read instead of its text content.
type Field struct {
	TestID    string
	Attribute string
}

// Selector returns the CSS selector for the field's element
func (f Field) Selector() string {
	return TestIDSelector(f.TestID)
}

func (f Field) String() string {
	if f.Attribute != "" {
		return fmt.Sprintf("%s@%s", f.TestID, f.Attribute)
	}
	return f.TestID
}

// TestIDSelector builds the attribute selector for a test id hook
func TestIDSelector(testID string) string {
	return fmt.Sprintf(`[data-testid="%s"]`, testID)
}

// Profile page fields
var (
	SlackUserName       = Field{TestID: "slackUserName"}
	SlackDisplayImage   = Field{TestID: "slackDisplayImage", Attribute: "alt"}
	CurrentDayOfTheWeek = Field{TestID: "currentDayOfTheWeek"}
	CurrentUTCTime      = Field{TestID: "currentUTCTime"}
	MyTrack             = Field{TestID: "myTrack"}
)

// Movie listing and detail page fields
var (
	MovieCard        = Field{TestID: "movie-card"}
	MoviePoster      = Field{TestID: "movie-poster"}
	MovieTitle       = Field{TestID: "movie-title"}
	MovieReleaseDate = Field{TestID: "movie-release-date"}
	MovieRuntime     = Field{TestID: "movie-runtime"}
	MovieOverview    = Field{TestID: "movie-overview"}
)
