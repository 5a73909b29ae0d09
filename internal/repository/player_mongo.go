package repo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"typerace/internal/domain/player"
	errs "typerace/internal/errors"
)

type MongoPlayerStore struct {
	players *mongo.Collection
	log     *zap.SugaredLogger
}

func NewMongoPlayerStore(db *mongo.Database, log *zap.SugaredLogger) *MongoPlayerStore {
	return &MongoPlayerStore{players: db.Collection(playersCollection), log: log}
}

func (m *MongoPlayerStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := m.players.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "current_lobby_id", Value: 1}}, Options: options.Index().SetSparse(true)},
	})
	if err != nil {
		return errs.Integration("create player indexes", err)
	}
	return nil
}

func (m *MongoPlayerStore) Create(ctx context.Context, p player.Player) (player.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	p.Version = 1
	if _, err := m.players.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return player.Player{}, errs.ErrUserExists
		}
		m.log.Errorw("failed to insert player", "username", p.Username, "error", err)
		return player.Player{}, errs.Integration("insert player", err)
	}
	return p, nil
}

func (m *MongoPlayerStore) get(ctx context.Context, filter bson.M) (player.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p player.Player
	if err := findOne(ctx, m.players, filter, &p, errs.ErrPlayerNotFound); err != nil {
		return player.Player{}, err
	}
	return p, nil
}

func (m *MongoPlayerStore) GetByID(ctx context.Context, id string) (player.Player, error) {
	return m.get(ctx, bson.M{"_id": id})
}

func (m *MongoPlayerStore) GetByUsername(ctx context.Context, username string) (player.Player, error) {
	return m.get(ctx, bson.M{"username": username})
}

func (m *MongoPlayerStore) GetByEmail(ctx context.Context, email string) (player.Player, error) {
	return m.get(ctx, bson.M{"email": email})
}

func (m *MongoPlayerStore) ListByLobby(ctx context.Context, lobbyID string) ([]player.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "username", Value: 1}})
	cursor, err := m.players.Find(ctx, bson.M{"current_lobby_id": lobbyID}, opts)
	if err != nil {
		return nil, errs.Integration("find players", err)
	}
	defer cursor.Close(ctx)

	var out []player.Player
	if err := cursor.All(ctx, &out); err != nil {
		return nil, errs.Integration("decode players", err)
	}
	return out, nil
}

// Update replaces the document if its stored version still equals p.Version.
func (m *MongoPlayerStore) Update(ctx context.Context, p player.Player) (player.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	expected := p.Version
	p.Version++
	res, err := m.players.ReplaceOne(ctx, versionFilter(p.ID, expected), p)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return player.Player{}, errs.ErrUserExists
		}
		return player.Player{}, errs.Integration("replace player", err)
	}
	if res.MatchedCount == 0 {
		return player.Player{}, versionMiss(ctx, m.players, p.ID, errs.ErrPlayerNotFound)
	}
	return p, nil
}
