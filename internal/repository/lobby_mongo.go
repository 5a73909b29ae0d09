package repo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"typerace/internal/domain/lobby"
	errs "typerace/internal/errors"
)

type MongoLobbyStore struct {
	lobbies *mongo.Collection
	log     *zap.SugaredLogger
}

func NewMongoLobbyStore(db *mongo.Database, log *zap.SugaredLogger) *MongoLobbyStore {
	return &MongoLobbyStore{lobbies: db.Collection(lobbiesCollection), log: log}
}

func (m *MongoLobbyStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := m.lobbies.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
	})
	if err != nil {
		return errs.Integration("create lobby indexes", err)
	}
	return nil
}

func (m *MongoLobbyStore) Create(ctx context.Context, l lobby.Lobby) (lobby.Lobby, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	l.Version = 1
	if _, err := m.lobbies.InsertOne(ctx, l); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return lobby.Lobby{}, errs.ErrStaleWrite
		}
		m.log.Errorw("failed to insert lobby", "lobby_id", l.ID, "error", err)
		return lobby.Lobby{}, errs.Integration("insert lobby", err)
	}
	return l, nil
}

func (m *MongoLobbyStore) Get(ctx context.Context, id string) (lobby.Lobby, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var l lobby.Lobby
	if err := findOne(ctx, m.lobbies, bson.M{"_id": id}, &l, errs.ErrLobbyNotFound); err != nil {
		return lobby.Lobby{}, err
	}
	return l, nil
}

func (m *MongoLobbyStore) Update(ctx context.Context, l lobby.Lobby) (lobby.Lobby, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	expected := l.Version
	l.Version++
	res, err := m.lobbies.ReplaceOne(ctx, versionFilter(l.ID, expected), l)
	if err != nil {
		return lobby.Lobby{}, errs.Integration("replace lobby", err)
	}
	if res.MatchedCount == 0 {
		return lobby.Lobby{}, versionMiss(ctx, m.lobbies, l.ID, errs.ErrLobbyNotFound)
	}
	return l, nil
}

func (m *MongoLobbyStore) Delete(ctx context.Context, id string, version int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := m.lobbies.DeleteOne(ctx, versionFilter(id, version))
	if err != nil {
		return errs.Integration("delete lobby", err)
	}
	if res.DeletedCount == 0 {
		return versionMiss(ctx, m.lobbies, id, errs.ErrLobbyNotFound)
	}
	return nil
}

// listFilter selects lobbies of q.Status positioned after q.Cursor in
// (created_at desc, _id desc) order.
func listFilter(q lobby.ListQuery) bson.M {
	filter := bson.M{"status": q.Status}
	if q.Cursor != nil {
		filter["$or"] = bson.A{
			bson.M{"created_at": bson.M{"$lt": q.Cursor.CreatedAt}},
			bson.M{"created_at": q.Cursor.CreatedAt, "_id": bson.M{"$lt": q.Cursor.ID}},
		}
	}
	return filter
}

func listOptions(limit int) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit) + 1)
	}
	return opts
}

func (m *MongoLobbyStore) List(ctx context.Context, q lobby.ListQuery) (lobby.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := m.lobbies.Find(ctx, listFilter(q), listOptions(q.Limit))
	if err != nil {
		return lobby.Page{}, errs.Integration("find lobbies", err)
	}
	defer cursor.Close(ctx)

	matched := []lobby.Lobby{}
	if err := cursor.All(ctx, &matched); err != nil {
		return lobby.Page{}, errs.Integration("decode lobbies", err)
	}

	page := lobby.Page{Lobbies: matched}
	if q.Limit > 0 && len(matched) > q.Limit {
		page.Lobbies = matched[:q.Limit]
		page.NextCursor = lobby.CursorAfter(page.Lobbies[q.Limit-1]).Encode()
	}
	return page, nil
}
