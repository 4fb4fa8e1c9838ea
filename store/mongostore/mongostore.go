// Package mongostore backs the store interface with MongoDB: forms and
// submissions live as flat documents in the "forms" and "submissions"
// collections.
package mongostore

import (
	"context"
	"time"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/formloom/formloom/model"
	"github.com/formloom/formloom/store"
)

const (
	formsCollection       = "forms"
	submissionsCollection = "submissions"
	adminsCollection      = "admins"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

func Open(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "mongo.connect")
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, errors.Wrap(err, "mongo.ping")
	}
	return &Store{client: client, db: client.Database(dbName)}, nil
}

func (s *Store) forms() *mongo.Collection       { return s.db.Collection(formsCollection) }
func (s *Store) submissions() *mongo.Collection { return s.db.Collection(submissionsCollection) }

func (s *Store) CreateForm(ctx context.Context, form *model.Form) (string, error) {
	if form.ID == "" {
		form.ID = uuid.Must(uuid.NewV4()).String()
	}
	now := time.Now().UTC()
	form.CreatedAt = now
	form.UpdatedAt = now

	_, err := s.forms().InsertOne(ctx, form)
	if err != nil {
		return "", errors.Wrap(err, "mongo.insert_form")
	}
	return form.ID, nil
}

func (s *Store) Form(ctx context.Context, id string) (*model.Form, error) {
	form := &model.Form{}
	err := s.forms().FindOne(ctx, bson.M{"_id": id}).Decode(form)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "mongo.get_form")
	}
	return form, nil
}

func (s *Store) UpdateForm(ctx context.Context, id string, fields map[string]any) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}

	res, err := s.forms().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return errors.Wrap(err, "mongo.update_form")
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteForm(ctx context.Context, id string) error {
	res, err := s.forms().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "mongo.delete_form")
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) FormsByProject(ctx context.Context, projectID string) ([]*model.Form, error) {
	cur, err := s.forms().Find(ctx, bson.M{"projectId": projectID})
	if err != nil {
		return nil, errors.Wrap(err, "mongo.get_forms")
	}
	defer cur.Close(ctx)

	forms := []*model.Form{}
	for cur.Next(ctx) {
		form := &model.Form{}
		if err := cur.Decode(form); err != nil {
			return nil, errors.Wrap(err, "mongo.get_forms.decode")
		}
		forms = append(forms, form)
	}
	return forms, errors.Wrap(cur.Err(), "mongo.get_forms.cursor")
}

func (s *Store) CreateSubmission(ctx context.Context, sub *model.Submission) (string, error) {
	if sub.ID == "" {
		sub.ID = uuid.Must(uuid.NewV4()).String()
	}
	sub.CreatedAt = time.Now().UTC()

	_, err := s.submissions().InsertOne(ctx, sub)
	if err != nil {
		return "", errors.Wrap(err, "mongo.insert_submission")
	}
	return sub.ID, nil
}

func (s *Store) SubmissionsByForm(ctx context.Context, formID string) ([]*model.Submission, error) {
	cur, err := s.submissions().Find(ctx, bson.M{"formId": formID})
	if err != nil {
		return nil, errors.Wrap(err, "mongo.get_submissions")
	}
	defer cur.Close(ctx)

	subs := []*model.Submission{}
	for cur.Next(ctx) {
		sub := &model.Submission{}
		if err := cur.Decode(sub); err != nil {
			return nil, errors.Wrap(err, "mongo.get_submissions.decode")
		}
		subs = append(subs, sub)
	}
	return subs, errors.Wrap(cur.Err(), "mongo.get_submissions.cursor")
}

func (s *Store) AdminPasswordHash(ctx context.Context, username string) ([]byte, error) {
	var doc struct {
		PasswordHash string `bson:"passwordHash"`
	}
	err := s.db.Collection(adminsCollection).
		FindOne(ctx, bson.M{"username": username}).
		Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "mongo.get_admin")
	}
	return []byte(doc.PasswordHash), nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
