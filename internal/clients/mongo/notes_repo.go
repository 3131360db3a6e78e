package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"note-draft/internal/logger"
	"note-draft/internal/services/notes"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// NotesRepo implements the notes.Repository interface for MongoDB.
// It is ownership-blind by design: callers pass ids, the service above
// decides who may touch them.
type NotesRepo struct {
	collection *mongo.Collection
}

func repoCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return WithRepoTimeout(parent, OpTimeout)
}

// translateNotFound maps the driver ErrNoDocuments to the domain-level ErrNoteNotFound.
func translateNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notes.ErrNoteNotFound
	}
	return err
}

// NewNotesRepo creates a new notes repository
func NewNotesRepo(parentCtx context.Context, db *mongo.Database) (*NotesRepo, error) {
	collection := db.Collection("notes")

	// One compound index serves the owner-scoped listing ordered by
	// last update.
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "owner_id", Value: 1},
				{Key: "updated_at", Value: -1},
			},
		},
	}

	ctx, cancel := context.WithTimeout(parentCtx, OpTimeout)
	defer cancel()

	for _, indexModel := range indexes {
		_, err := collection.Indexes().CreateOne(ctx, indexModel)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				logger.L().Debug("index already exists, continuing", "collection", "notes")
			} else {
				logger.L().Error("failed to create index", "collection", "notes", "error", err)
				return nil, fmt.Errorf("failed to create notes collection index: %w", err)
			}
		}
	}

	return &NotesRepo{
		collection: collection,
	}, nil
}

// Insert writes a new note record.
func (r *NotesRepo) Insert(ctx context.Context, note *notes.Note) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, note)
	return err
}

// FindByID retrieves a note by id regardless of owner.
func (r *NotesRepo) FindByID(ctx context.Context, id bson.ObjectID) (*notes.Note, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	var note notes.Note
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&note)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &note, nil
}

// ListByOwner retrieves all notes for an owner, newest update first.
func (r *NotesRepo) ListByOwner(ctx context.Context, ownerID bson.ObjectID) ([]*notes.Note, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer func(ctxToClose context.Context) {
		if cerr := cursor.Close(ctxToClose); cerr != nil {
			logger.L().Error("failed to close cursor", "error", cerr)
		}
	}(ctx)

	var notesList []*notes.Note
	if err := cursor.All(ctx, &notesList); err != nil {
		return nil, err
	}

	return notesList, nil
}

// UpdateFields applies a sparse patch to the record and returns the
// updated document. UpdatedAt is bumped on every call, whether or not
// the supplied fields differ from what is stored.
func (r *NotesRepo) UpdateFields(ctx context.Context, id bson.ObjectID, patch notes.NotePatch) (*notes.Note, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Content != nil {
		set["content"] = *patch.Content
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated notes.Note
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &updated, nil
}

// Remove deletes the record. Deleting a missing id reports ErrNoteNotFound.
func (r *NotesRepo) Remove(ctx context.Context, id bson.ObjectID) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return notes.ErrNoteNotFound
	}
	return nil
}
