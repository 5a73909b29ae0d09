package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	errs "typerace/internal/errors"
)

const queryTimeout = 5 * time.Second

const (
	playersCollection    = "players"
	lobbiesCollection    = "lobbies"
	statisticsCollection = "game_statistics"
)

// versionFilter matches a document only while it still carries version.
func versionFilter(id string, version int64) bson.M {
	return bson.M{"_id": id, "version": version}
}

// versionMiss explains a write whose version filter matched nothing: either
// the document is gone or somebody else bumped its version first.
func versionMiss(ctx context.Context, coll *mongo.Collection, id string, notFound error) error {
	n, err := coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return errs.Integration("count "+coll.Name(), err)
	}
	if n == 0 {
		return notFound
	}
	return errs.ErrStaleWrite
}

// findOne decodes the single document matching filter into dst.
func findOne(ctx context.Context, coll *mongo.Collection, filter any, dst any, notFound error) error {
	err := coll.FindOne(ctx, filter).Decode(dst)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notFound
	}
	if err != nil {
		return errs.Integration("find "+coll.Name(), err)
	}
	return nil
}
