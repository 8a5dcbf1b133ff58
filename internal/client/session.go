package client

import (
	"context"

	"github.com/kirillkom/study-library/internal/catalogview"
	"github.com/kirillkom/study-library/internal/core/domain"
)

// Session pairs a Client with a CatalogView and reconciles the view after
// every confirmed server mutation.
type Session struct {
	client *Client
	view   *catalogview.View
}

func NewSession(c *Client) *Session {
	return &Session{client: c, view: catalogview.New(nil)}
}

func (s *Session) View() *catalogview.View {
	return s.view
}

// Load replaces the cached catalog with the server listing.
func (s *Session) Load(ctx context.Context) error {
	docs, err := s.client.ListDocuments(ctx)
	if err != nil {
		return err
	}
	s.view.Replace(docs)
	return nil
}

func (s *Session) Upload(ctx context.Context, up Upload) (*domain.Document, error) {
	doc, err := s.client.Upload(ctx, up)
	if err != nil {
		return nil, err
	}
	s.view.Add(*doc)
	return doc, nil
}

// Delete removes id on the server and from the view. A document already gone
// on the server is dropped from the view as well.
func (s *Session) Delete(ctx context.Context, id int64) error {
	err := s.client.Delete(ctx, id)
	if err != nil && !domain.IsKind(err, domain.ErrNotFound) {
		return err
	}
	s.view.Remove(id)
	return err
}
