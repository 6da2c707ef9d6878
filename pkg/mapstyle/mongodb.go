package mapstyle

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/visualtest/pkg/errors"
)

const defaultConnectTimeout = 2 * time.Second

// mongoFeature is the document shape read by the mongodb data source.
type mongoFeature struct {
	Geometry *geoObject `bson:"geometry"`
}

// openMongo reads every document of a collection and draws its "geometry"
// field. Parameters: uri, database, collection, timeout.
func openMongo(ctx context.Context, p Params, _ string) ([]Geometry, error) {
	uri, db, coll := p["uri"], p["database"], p["collection"]
	if uri == "" || db == "" || coll == "" {
		return nil, errors.New(errors.ErrCodeStyleLoad, "mongodb datasource requires uri, database and collection")
	}
	timeout := p.Duration("timeout", defaultConnectTimeout)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, errors.Unavailable(err, "could not create datasource for mongodb")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := client.Ping(ctx, nil); err != nil {
		return nil, errors.Unavailable(err, "mongodb plugin: could not connect to server")
	}

	cur, err := client.Database(db).Collection(coll).Find(ctx, bson.D{})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStyleLoad, err, "query %s.%s", db, coll)
	}
	var docs []mongoFeature
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStyleLoad, err, "read %s.%s", db, coll)
	}

	var out []Geometry
	for _, d := range docs {
		if d.Geometry == nil {
			continue
		}
		g, err := d.Geometry.geometries()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStyleLoad, err, "decode %s.%s", db, coll)
		}
		out = append(out, g...)
	}
	return out, nil
}
