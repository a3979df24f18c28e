/*
 * Copyright 2022 Google LLC.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package mongostore persists named ensembles in a MongoDB collection, as
// an alternative to the JSON files of model/io when models are shared
// between training and compilation hosts.
package mongostore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/google/forestcc/model"
)

// DefaultCollection is the collection used when none is configured.
const DefaultCollection = "ensembles"

// Store saves and loads ensembles, keyed by name.
type Store struct {
	collection *mongo.Collection
}

type record struct {
	Name     string          `bson:"name"`
	Ensemble *model.Ensemble `bson:"ensemble"`
	SavedAt  time.Time       `bson:"saved_at"`
}

// New returns a store over the given collection of the database.
func New(database *mongo.Database, collection string) *Store {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{collection: database.Collection(collection)}
}

// Save validates the ensemble and upserts it under the given name.
func (s *Store) Save(ctx context.Context, name string, ensemble *model.Ensemble) error {
	if err := ensemble.Validate(); err != nil {
		return err
	}
	doc := record{Name: name, Ensemble: ensemble, SavedAt: time.Now().UTC()}
	_, err := s.collection.ReplaceOne(ctx, bson.D{{Key: "name", Value: name}}, doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrapf(err, "saving ensemble %q", name)
	}
	return nil
}

// Load fetches and validates the ensemble saved under the given name.
func (s *Store) Load(ctx context.Context, name string) (*model.Ensemble, error) {
	var doc record
	err := s.collection.FindOne(ctx, bson.D{{Key: "name", Value: name}}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, errors.Errorf("no ensemble named %q", name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "loading ensemble %q", name)
	}
	if doc.Ensemble == nil {
		return nil, errors.Errorf("ensemble %q has no model document", name)
	}
	if err := doc.Ensemble.Validate(); err != nil {
		return nil, err
	}
	return doc.Ensemble, nil
}

// Delete removes the ensemble saved under the given name, if any.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.collection.DeleteOne(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return errors.Wrapf(err, "deleting ensemble %q", name)
	}
	return nil
}
