/* inspector.go
 * Reads typed values from a rendered page through its test-id hooks. Missing elements are an
 * expected outcome and are simply left out of the snapshot.
 */

package browser

import (
	"context"
)

// Snapshot holds the values read from a page. Absent text fields have no entry.
type Snapshot struct {
	Texts  map[Field]string
	Counts map[Field]int
}

// NewSnapshot returns an empty snapshot
func NewSnapshot() Snapshot {
	return Snapshot{Texts: map[Field]string{}, Counts: map[Field]int{}}
}

// Text returns the value of a field and whether the element was found
func (s Snapshot) Text(f Field) (string, bool) {
	v, ok := s.Texts[f]
	return v, ok
}

// Count returns how many elements matched the field's test id
func (s Snapshot) Count(f Field) int {
	return s.Counts[f]
}

// Inspect reads every text field and counts every count field on the page.
// Preconditions: Receives a page that has already been navigated
// Postconditions: Returns a snapshot of the values found, or the first transport error from the page
func Inspect(ctx context.Context, p Page, texts []Field, counts []Field) (Snapshot, error) {
	snap := NewSnapshot()
	for _, f := range texts {
		v, found, err := p.Text(ctx, f)
		if err != nil {
			return snap, err
		}
		if found {
			snap.Texts[f] = v
		}
	}
	for _, f := range counts {
		n, err := p.Count(ctx, f)
		if err != nil {
			return snap, err
		}
		snap.Counts[f] = n
	}
	return snap, nil
}
