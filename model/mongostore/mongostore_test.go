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

package mongostore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/google/forestcc/model"
)

// Connect does not dial, so the store can be constructed without a server.
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI("mongodb://localhost:27017"))
	require.NoError(t, err)
	t.Cleanup(func() { client.Disconnect(context.Background()) })
	return client.Database("forestcc_test")
}

func TestNewDefaultCollection(t *testing.T) {
	store := New(testDatabase(t), "")
	assert.Equal(t, DefaultCollection, store.collection.Name())

	store = New(testDatabase(t), "models")
	assert.Equal(t, "models", store.collection.Name())
}

func TestSaveRejectsInvalidEnsemble(t *testing.T) {
	store := New(testDatabase(t), "")
	invalid := &model.Ensemble{NumFeatures: 0}
	assert.Error(t, store.Save(context.Background(), "broken", invalid))
}
