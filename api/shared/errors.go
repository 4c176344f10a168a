/* errors.go
 * Sentinel errors shared between the api packages and the bot / web surfaces
 */

package shared

import "errors"

var (
	ErrUnknownStage      = errors.New("unknown stage")
	ErrUnknownBucket     = errors.New("unknown bucket")
	ErrNotFound          = errors.New("record not found")
	ErrStageBusy         = errors.New("a grading batch is already running for this stage")
	ErrInvalidRoster     = errors.New("invalid roster")
	ErrMissingAttachment = errors.New("missing roster attachment")
)
