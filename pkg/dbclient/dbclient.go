// Package dbclient is the engine's collaborator interface to the external
// document/graph database that owns durable storage. The engine itself
// never persists anything (graphs and results live only in RAM for the
// process lifetime) — dbclient is how the loader pulls vertex/edge
// documents in, and how the result writer pushes computed attributes back
// out.
//
// Client is implemented here against MongoDB (go.mongodb.org/mongo-driver),
// grounded on the teacher's bson-tagged document types and its use of
// mongo-driver as a declared (if previously unwired) dependency.
package dbclient

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/graphengine/pkg/errors"
	"github.com/matzehuels/graphengine/pkg/httputil"
)

// Document is one row from a collection, keyed by field name. The loader
// reads "_id"/"_from"/"_to" and arbitrary attribute fields from it; the
// writer constructs one of these per vertex to upsert.
type Document = bson.M

// GraphDescriptor is the resolved shape of a named graph: the vertex and
// edge collections it's defined over.
type GraphDescriptor struct {
	VertexCollections []string
	EdgeCollections   []string
}

// BatchFunc receives one batch of streamed documents. Returning an error
// stops the stream.
type BatchFunc func(docs []Document) error

// Client is the document database collaborator.
type Client interface {
	// ResolveGraphDescriptor looks up a named graph's declared vertex/edge
	// collections.
	ResolveGraphDescriptor(ctx context.Context, graphName string) (GraphDescriptor, error)

	// StreamCollection reads collection in batches of batchSize, invoking fn
	// once per batch, until the collection is exhausted or fn returns an
	// error.
	StreamCollection(ctx context.Context, collection string, batchSize int, fn BatchFunc) error

	// UpsertBatch idempotently upserts docs into collection, keyed by the
	// "_key" field of each document.
	UpsertBatch(ctx context.Context, collection string, docs []Document) error

	// Close releases any held connections.
	Close(ctx context.Context) error
}

// MongoClient implements Client against a MongoDB database. Named-graph
// descriptors are resolved from a conventional "_graphs" collection holding
// {_key, vertex_collections, edge_collections} documents, the same shape
// ArangoDB-style named graphs use.
type MongoClient struct {
	db *mongo.Database
}

// Dial connects to uri and returns a Client bound to database.
func Dial(ctx context.Context, uri, database string) (*MongoClient, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.CodeLoadError, err, "connect to document database")
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, errors.Wrap(errors.CodeLoadError, err, "ping document database")
	}
	return &MongoClient{db: client.Database(database)}, nil
}

type graphDescriptorDoc struct {
	Key               string   `bson:"_key"`
	VertexCollections []string `bson:"vertex_collections"`
	EdgeCollections   []string `bson:"edge_collections"`
}

func (c *MongoClient) ResolveGraphDescriptor(ctx context.Context, graphName string) (GraphDescriptor, error) {
	var doc graphDescriptorDoc
	err := c.db.Collection("_graphs").FindOne(ctx, bson.M{"_key": graphName}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return GraphDescriptor{}, errors.New(errors.CodeNotFound, "named graph %q not found", graphName)
	}
	if err != nil {
		return GraphDescriptor{}, errors.Wrap(errors.CodeLoadError, err, "resolve named graph %q", graphName)
	}
	return GraphDescriptor{VertexCollections: doc.VertexCollections, EdgeCollections: doc.EdgeCollections}, nil
}

func (c *MongoClient) StreamCollection(ctx context.Context, collection string, batchSize int, fn BatchFunc) error {
	opts := options.Find().SetBatchSize(int32(batchSize))
	cur, err := c.db.Collection(collection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return errors.Wrap(errors.CodeLoadError, err, "open cursor on %q", collection)
	}
	defer cur.Close(ctx)

	batch := make([]Document, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for cur.Next(ctx) {
		var doc Document
		if err := cur.Decode(&doc); err != nil {
			return errors.Wrap(errors.CodeLoadError, err, "decode document from %q", collection)
		}
		batch = append(batch, doc)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := cur.Err(); err != nil {
		return errors.Wrap(errors.CodeLoadError, err, "stream %q", collection)
	}
	return flush()
}

func (c *MongoClient) UpsertBatch(ctx context.Context, collection string, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(docs))
	for _, doc := range docs {
		key, ok := doc["_key"]
		if !ok {
			return errors.New(errors.CodeInvalidInput, "document missing _key field")
		}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_key": key}).
			SetReplacement(doc).
			SetUpsert(true))
	}

	err := httputil.RetryWithBackoff(ctx, func() error {
		_, err := c.db.Collection(collection).BulkWrite(ctx, models)
		if err != nil {
			return httputil.Retryable(err)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.CodeStoreError, err, "upsert %d documents into %q", len(docs), collection)
	}
	return nil
}

func (c *MongoClient) Close(ctx context.Context) error {
	return c.db.Client().Disconnect(ctx)
}

var _ Client = (*MongoClient)(nil)
