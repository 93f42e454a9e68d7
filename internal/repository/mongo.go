// Package repository persists submissions, feedback and plagiarism
// reports in MongoDB. Each domain repository owns one collection handle
// scoped to the configured database.
package repository

import (
	mongoInfra "github.com/RishiKendai/argus/internal/infra/mongo"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoRepository hands out collection handles. Domain repositories grab
// theirs once at construction.
type MongoRepository struct {
	db *mongo.Database
}

func NewMongoRepository(client *mongoInfra.Client) *MongoRepository {
	return &MongoRepository{db: client.Database}
}

func (r *MongoRepository) Collection(name string) *mongo.Collection {
	return r.db.Collection(name)
}
