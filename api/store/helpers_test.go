/* helpers_test.go
 * Contains test helper functions for store package tests
 */

package store

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"
)

// newMockStore creates a Store over an mtest mock deployment with a fixed clock
func newMockStore(mt *mtest.T) *Store {
	s := NewStoreFromDatabase(mt.Client, mt.DB, zap.NewNop())
	s.now = func() time.Time { return time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC) }
	return s
}

// recordDoc builds the document the mock server returns for a stage record
func recordDoc(username, email string, grade int, promoted bool) bson.D {
	return bson.D{
		{Key: "username", Value: username},
		{Key: "email", Value: email},
		{Key: "hostedLink", Value: "https://" + username + ".dev"},
		{Key: "grade", Value: grade},
		{Key: "promoted", Value: promoted},
	}
}

func upsertedResponse() bson.D {
	return mtest.CreateSuccessResponse(
		bson.E{Key: "n", Value: 1},
		bson.E{Key: "nModified", Value: 0},
		bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: "generated"}}}},
	)
}

func matchedResponse() bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 0})
}
