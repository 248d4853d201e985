package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureProductIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("products").Indexes()

	eanIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "ean", Value: 1}},
		Options: options.Index().
			SetName("ean_unique").
			SetUnique(true),
	}

	textIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "name", Value: "text"},
			{Key: "description", Value: "text"},
		},
		Options: options.Index().SetName("name_description_text"),
	}

	log.Println("EnsureProductIndexes: creating ean_unique and text indexes")
	_, err := indexes.CreateMany(ctx, []mongo.IndexModel{eanIndex, textIndex})
	if err != nil {
		log.Println("EnsureProductIndexes: index error:", err)
		return err
	}
	return nil
}

// EnsureSalesIndexes creates the unique order-code index that makes finalize
// exactly-once: a retried insert for the same order lands on a duplicate-key
// error instead of a second sale document.
func EnsureSalesIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("sales").Indexes()

	codeIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "orderCode", Value: 1}},
		Options: options.Index().
			SetName("orderCode_unique").
			SetUnique(true),
	}

	phoneIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "phone", Value: 1}},
		Options: options.Index().SetName("phone_index"),
	}

	log.Println("EnsureSalesIndexes: creating orderCode_unique and phone indexes")
	_, err := indexes.CreateMany(ctx, []mongo.IndexModel{codeIndex, phoneIndex})
	if err != nil {
		log.Println("EnsureSalesIndexes: index error:", err)
		return err
	}
	return nil
}
