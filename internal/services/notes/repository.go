package notes

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Repository defines the interface for the durable note record store.
//
// The store is ownership-blind: it reads and writes records by id and
// owner without judging who is asking. All ownership enforcement lives
// in the Service.
type Repository interface {
	Insert(ctx context.Context, n *Note) error
	FindByID(ctx context.Context, id bson.ObjectID) (*Note, error)
	ListByOwner(ctx context.Context, ownerID bson.ObjectID) ([]*Note, error)
	UpdateFields(ctx context.Context, id bson.ObjectID, patch NotePatch) (*Note, error)
	Remove(ctx context.Context, id bson.ObjectID) error
}
