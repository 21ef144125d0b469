package db

import (
	"context"
	"errors"
	"time"

	"github.com/ukydev/toll-scenario/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrOperatorNotFound = models.ErrOperatorNotFound

// MongoOperatorCollection implements OperatorCollection for MongoDB
type MongoOperatorCollection struct {
	Collection *mongo.Collection
}

// InsertOperator inserts a new operator account
func (c *MongoOperatorCollection) InsertOperator(ctx context.Context, op models.Operator) error {
	if c.Collection == nil {
		return errNilCollection
	}
	op.CreatedAt = time.Now()
	_, err := c.Collection.InsertOne(ctx, op)
	return err
}

// FindOperatorByUsername finds an operator by username
func (c *MongoOperatorCollection) FindOperatorByUsername(ctx context.Context, username string) (*models.Operator, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	var op models.Operator
	err := c.Collection.FindOne(ctx, bson.M{"username": username}).Decode(&op)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOperatorNotFound
		}
		return nil, err
	}
	return &op, nil
}

// UpdateLastLogin records a successful login
func (c *MongoOperatorCollection) UpdateLastLogin(ctx context.Context, username string) error {
	if c.Collection == nil {
		return errNilCollection
	}
	res, err := c.Collection.UpdateOne(ctx,
		bson.M{"username": username},
		bson.M{"$set": bson.M{"last_login": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrOperatorNotFound
	}
	return nil
}
