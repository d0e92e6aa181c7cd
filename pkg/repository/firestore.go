package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/washp/pkg/model"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	collectionHistory = "history"
	collectionUsers   = "users"
)

// Firestore implements Repository with Cloud Firestore
type Firestore struct {
	client *firestore.Client
}

var _ Repository = (*Firestore)(nil)

// New creates a Firestore repository on the given database
func New(ctx context.Context, projectID, databaseID string, opts ...option.ClientOption) (*Firestore, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID), goerr.V("database", databaseID))
	}

	return &Firestore{client: client}, nil
}

func (r *Firestore) Close() error {
	if err := r.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close firestore client")
	}
	return nil
}

func (r *Firestore) PutHistory(ctx context.Context, item *model.HistoryItem) error {
	col := r.client.Collection(collectionHistory)

	var ref *firestore.DocumentRef
	if item.ID == "" {
		ref = col.NewDoc()
		item.ID = model.HistoryID(ref.ID)
	} else {
		ref = col.Doc(string(item.ID))
	}

	if _, err := ref.Set(ctx, item); err != nil {
		return storeError(err, "failed to put history", goerr.V("id", item.ID))
	}
	return nil
}

func (r *Firestore) GetHistory(ctx context.Context, id model.HistoryID) (*model.HistoryItem, error) {
	doc, err := r.client.Collection(collectionHistory).Doc(string(id)).Get(ctx)
	if err != nil {
		return nil, storeError(err, "failed to get history", goerr.V("id", id))
	}
	return historyFromDoc(doc)
}

func (r *Firestore) ListHistory(ctx context.Context, userID model.UserID) ([]*model.HistoryItem, error) {
	q := r.client.Collection(collectionHistory).
		Where("userId", "==", string(userID)).
		OrderBy("date", firestore.Desc)
	return r.queryHistory(ctx, q, userID)
}

func (r *Firestore) ListHistoryUnordered(ctx context.Context, userID model.UserID) ([]*model.HistoryItem, error) {
	q := r.client.Collection(collectionHistory).Where("userId", "==", string(userID))
	return r.queryHistory(ctx, q, userID)
}

func (r *Firestore) queryHistory(ctx context.Context, q firestore.Query, userID model.UserID) ([]*model.HistoryItem, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var items []*model.HistoryItem
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, storeError(err, "failed to query history", goerr.V("user_id", userID))
		}

		item, err := historyFromDoc(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, nil
}

func (r *Firestore) DeleteHistory(ctx context.Context, id model.HistoryID) error {
	if _, err := r.client.Collection(collectionHistory).Doc(string(id)).Delete(ctx); err != nil {
		return storeError(err, "failed to delete history", goerr.V("id", id))
	}
	return nil
}

func (r *Firestore) DeleteHistoryByUser(ctx context.Context, userID model.UserID) (int, error) {
	refs, err := r.client.Collection(collectionHistory).
		Where("userId", "==", string(userID)).
		Documents(ctx).GetAll()
	if err != nil {
		return 0, storeError(err, "failed to query history for deletion", goerr.V("user_id", userID))
	}
	if len(refs) == 0 {
		return 0, nil
	}

	bw := r.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(refs))
	for _, doc := range refs {
		job, err := bw.Delete(doc.Ref)
		if err != nil {
			bw.End()
			return 0, goerr.Wrap(err, "failed to enqueue delete", goerr.V("id", doc.Ref.ID))
		}
		jobs = append(jobs, job)
	}
	bw.End()

	deleted := 0
	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return deleted, storeError(err, "failed to delete history", goerr.V("id", refs[i].Ref.ID))
		}
		deleted++
	}
	return deleted, nil
}

func (r *Firestore) PutUser(ctx context.Context, user *model.User) error {
	if _, err := r.client.Collection(collectionUsers).Doc(string(user.ID)).Set(ctx, user); err != nil {
		return storeError(err, "failed to put user", goerr.V("uid", user.ID))
	}
	return nil
}

func (r *Firestore) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	doc, err := r.client.Collection(collectionUsers).Doc(string(id)).Get(ctx)
	if err != nil {
		return nil, storeError(err, "failed to get user", goerr.V("uid", id))
	}

	var user model.User
	if err := doc.DataTo(&user); err != nil {
		return nil, goerr.Wrap(err, "failed to decode user", goerr.V("uid", id))
	}
	user.ID = model.UserID(doc.Ref.ID)
	return &user, nil
}

func (r *Firestore) DeleteUser(ctx context.Context, id model.UserID) error {
	if _, err := r.client.Collection(collectionUsers).Doc(string(id)).Delete(ctx); err != nil {
		return storeError(err, "failed to delete user", goerr.V("uid", id))
	}
	return nil
}

func historyFromDoc(doc *firestore.DocumentSnapshot) (*model.HistoryItem, error) {
	var item model.HistoryItem
	if err := doc.DataTo(&item); err != nil {
		return nil, goerr.Wrap(err, "failed to decode history", goerr.V("id", doc.Ref.ID))
	}
	item.ID = model.HistoryID(doc.Ref.ID)
	return &item, nil
}

// storeError classifies gRPC status codes into repository errors.
func storeError(err error, msg string, opts ...goerr.Option) error {
	opts = append(opts, goerr.V("cause", err.Error()))
	switch status.Code(err) {
	case codes.NotFound:
		return goerr.Wrap(ErrNotFound, msg, opts...)
	case codes.FailedPrecondition:
		return goerr.Wrap(ErrIndexRequired, msg, opts...)
	case codes.PermissionDenied:
		return goerr.Wrap(ErrPermissionDenied, msg, opts...)
	default:
		return goerr.Wrap(err, msg, opts...)
	}
}
