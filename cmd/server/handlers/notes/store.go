package notes

import (
	"context"

	"note-draft/internal/draft"
	"note-draft/internal/services/notes"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// sessionStore binds the acting user to the notes service so a draft
// session can commit without ever seeing auth. Create adopts the
// server-generated id; Update forwards the sparse patch as-is.
type sessionStore struct {
	svc    Service
	userID bson.ObjectID
}

func newSessionStore(svc Service, userID bson.ObjectID) *sessionStore {
	return &sessionStore{svc: svc, userID: userID}
}

func (st *sessionStore) Create(ctx context.Context, title, content string) (*draft.Record, error) {
	resp, err := st.svc.Create(ctx, st.userID, notes.CreateNoteRequest{
		Title:   title,
		Content: content,
	})
	if err != nil {
		return nil, err
	}
	return recordFromNote(resp.Note), nil
}

func (st *sessionStore) Update(ctx context.Context, id string, patch draft.Patch) (*draft.Record, error) {
	noteID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, notes.ErrNoteNotFound
	}

	resp, err := st.svc.Update(ctx, st.userID, noteID, notes.UpdateNoteRequest{
		Title:   patch.Title,
		Content: patch.Content,
	})
	if err != nil {
		return nil, err
	}
	return recordFromNote(resp.Note), nil
}

func recordFromNote(n *notes.Note) *draft.Record {
	return &draft.Record{
		ID:        n.ID.Hex(),
		Title:     n.Title,
		Content:   n.Content,
		UpdatedAt: n.UpdatedAt,
	}
}
