/* listing.go
 * The second stage rubric: a movie listing showing the catalog's top rated movies, and a detail view
 * for the first of them. Eleven checks of one point each, compared against the catalog's reference movie.
 */

package grading

import (
	"fmt"
	"strconv"

	"bootcamp-grader/api/browser"
)

const minListed = 10

// ListingRubric builds the listing stage rubric with the given pass mark (out of 11)
func ListingRubric(passMark int, reference Reference) Rubric {
	return Rubric{
		Name:      "listing",
		PassMark:  passMark,
		Reference: reference,
		Landing: View{
			Texts:  []browser.Field{browser.MovieTitle, browser.MovieReleaseDate},
			Counts: []browser.Field{browser.MovieCard, browser.MoviePoster, browser.MovieTitle},
			Checks: []Check{
				binary("movie cards", 1, func(in Inputs) bool {
					return in.Page.Count(browser.MovieCard) >= minListed
				}),
				binary("movie posters", 1, func(in Inputs) bool {
					return in.Page.Count(browser.MoviePoster) >= minListed
				}),
				binary("movie titles", 1, func(in Inputs) bool {
					return in.Page.Count(browser.MovieTitle) >= minListed
				}),
				binary("exactly ten titles", 1, func(in Inputs) bool {
					return in.Page.Count(browser.MovieTitle) == minListed
				}),
				titleCheck("first title"),
				releaseDateCheck("first release date"),
			},
		},
		Navigation: &Navigation{
			Name:   "movie details",
			Points: 1,
			Path: func(in Inputs) string {
				if in.Reference.ID == 0 {
					return ""
				}
				return fmt.Sprintf("/movies/%d", in.Reference.ID)
			},
			View: View{
				Texts: []browser.Field{
					browser.MovieTitle,
					browser.MovieReleaseDate,
					browser.MovieRuntime,
					browser.MovieOverview,
				},
				Checks: []Check{
					titleCheck("detail title"),
					releaseDateCheck("detail release date"),
					binary("detail runtime", 1, func(in Inputs) bool {
						v, ok := in.Page.Text(browser.MovieRuntime)
						return ok && in.Reference.Runtime > 0 && containsFold(v, strconv.Itoa(in.Reference.Runtime))
					}),
					binary("detail overview", 1, func(in Inputs) bool {
						v, ok := in.Page.Text(browser.MovieOverview)
						return ok && containsFold(v, in.Reference.Overview)
					}),
				},
			},
		},
	}
}

func titleCheck(name string) Check {
	return binary(name, 1, func(in Inputs) bool {
		v, ok := in.Page.Text(browser.MovieTitle)
		return ok && containsFold(v, in.Reference.Title)
	})
}

func releaseDateCheck(name string) Check {
	return binary(name, 1, func(in Inputs) bool {
		v, ok := in.Page.Text(browser.MovieReleaseDate)
		if !ok {
			return false
		}
		want, ok := in.Reference.Released()
		if !ok {
			return false
		}
		got, ok := ParseTimestamp(v)
		return ok && WithinWindow(got, want)
	})
}
