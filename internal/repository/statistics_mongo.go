package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"typerace/internal/domain/stats"
	errs "typerace/internal/errors"
)

// MongoStatisticsStore keeps the single GameStatistics document. The two
// counters only ever change through $inc and $max, so they never race with
// the version-checked scoreboard writes.
type MongoStatisticsStore struct {
	statistics *mongo.Collection
	log        *zap.SugaredLogger
}

func NewMongoStatisticsStore(db *mongo.Database, log *zap.SugaredLogger) *MongoStatisticsStore {
	return &MongoStatisticsStore{statistics: db.Collection(statisticsCollection), log: log}
}

func startedUpdate(now time.Time) bson.M {
	return bson.M{
		"$inc": bson.M{"total_games_started": 1},
		"$set": bson.M{"updated_at": now},
		"$setOnInsert": bson.M{
			"total_games_finished":   0,
			"top_players_scoreboard": bson.A{},
			"created_at":             now,
			"version":                1,
		},
	}
}

func scoreboardUpdate(board []stats.ScoreboardEntry, finishedAtLeast int64, now time.Time) bson.M {
	if board == nil {
		board = []stats.ScoreboardEntry{}
	}
	return bson.M{
		"$set": bson.M{"top_players_scoreboard": board, "updated_at": now},
		"$max": bson.M{"total_games_finished": finishedAtLeast},
		"$inc": bson.M{"version": 1},
	}
}

// IncrementGamesStarted upserts the row: the first call inserts it fully
// initialized, every call adds one to total_games_started.
func (m *MongoStatisticsStore) IncrementGamesStarted(ctx context.Context, now time.Time) (int64, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before)
	var before stats.GameStatistics
	err := m.statistics.FindOneAndUpdate(ctx, bson.M{"_id": stats.GlobalID}, startedUpdate(now), opts).Decode(&before)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 1, true, nil
	}
	if err != nil {
		m.log.Errorw("failed to increment games started", "error", err)
		return 0, false, errs.Integration("increment games started", err)
	}
	return before.TotalGamesStarted + 1, false, nil
}

func (m *MongoStatisticsStore) IncrementGamesFinished(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$inc": bson.M{"total_games_finished": 1}}
	var after stats.GameStatistics
	err := m.statistics.FindOneAndUpdate(ctx, bson.M{"_id": stats.GlobalID}, update, opts).Decode(&after)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, errs.ErrStatisticsNotFound
	}
	if err != nil {
		m.log.Errorw("failed to increment games finished", "error", err)
		return 0, errs.Integration("increment games finished", err)
	}
	return after.TotalGamesFinished, nil
}

func (m *MongoStatisticsStore) Get(ctx context.Context) (stats.GameStatistics, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var row stats.GameStatistics
	if err := findOne(ctx, m.statistics, bson.M{"_id": stats.GlobalID}, &row, errs.ErrStatisticsNotFound); err != nil {
		return stats.GameStatistics{}, err
	}
	return row, nil
}

// SaveScoreboard replaces the scoreboard if the row is still at
// expectedVersion and raises total_games_finished to at least finishedAtLeast.
func (m *MongoStatisticsStore) SaveScoreboard(ctx context.Context, board []stats.ScoreboardEntry, finishedAtLeast int64, expectedVersion int64, now time.Time) (stats.GameStatistics, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var after stats.GameStatistics
	err := m.statistics.FindOneAndUpdate(ctx, versionFilter(stats.GlobalID, expectedVersion),
		scoreboardUpdate(board, finishedAtLeast, now), opts).Decode(&after)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return stats.GameStatistics{}, versionMiss(ctx, m.statistics, stats.GlobalID, errs.ErrStatisticsNotFound)
	}
	if err != nil {
		return stats.GameStatistics{}, errs.Integration("save scoreboard", err)
	}
	return after, nil
}
