// ABOUTME: Google People API client for contacts sync
// ABOUTME: Wraps a People service built on a GoogleAuth token source and pages through connections
package sync

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"
)

// PageSize is how many connections are requested per page.
const PageSize = 1000

const personFields = "names,emailAddresses,phoneNumbers,organizations"

// ConnectionSource returns one page of the user's connections.
type ConnectionSource interface {
	Connections(ctx context.Context, pageToken string) (*people.ListConnectionsResponse, error)
}

// PeopleSource reads connections from the People API.
type PeopleSource struct {
	svc *people.Service
}

// NewPeopleClient creates a People API client that authenticates with ts.
// Extra options such as option.WithEndpoint are passed through.
func NewPeopleClient(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (*PeopleSource, error) {
	if ts == nil {
		return nil, fmt.Errorf("token source cannot be nil")
	}

	opts = append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	service, err := people.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create People service: %w", err)
	}

	return &PeopleSource{svc: service}, nil
}

func (p *PeopleSource) Connections(ctx context.Context, pageToken string) (*people.ListConnectionsResponse, error) {
	call := p.svc.People.Connections.List("people/me").
		PageSize(PageSize).
		PersonFields(personFields).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Do()
}
