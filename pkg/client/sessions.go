package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/turtacn/dockview/pkg/errors"
)

// SessionsClient drives viewer sessions.
type SessionsClient struct {
	client *Client
}

type createSessionResponse struct {
	ID string `json:"id"`
}

type navigateRequest struct {
	Action string `json:"action"`
	Index  int    `json:"index"`
}

type siteResponse struct {
	Site BindingSite `json:"site"`
}

func sessionPath(id string, suffix string) string {
	return "/sessions/" + url.PathEscape(id) + suffix
}

func requireID(id string) error {
	if id == "" {
		return errors.InvalidParam("session id is required")
	}
	return nil
}

// Create opens a new empty session and returns its ID.
func (s *SessionsClient) Create(ctx context.Context) (string, error) {
	var resp createSessionResponse
	if err := s.client.do(ctx, request{method: http.MethodPost, path: "/sessions/"}, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Get returns the current view of a session.
func (s *SessionsClient) Get(ctx context.Context, id string) (*View, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	var view View
	if err := s.client.do(ctx, request{method: http.MethodGet, path: sessionPath(id, "/")}, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Delete removes a session. Deleting an unknown session is not an error.
func (s *SessionsClient) Delete(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	err := s.client.do(ctx, request{method: http.MethodDelete, path: sessionPath(id, "/")}, nil)
	if apiErr, ok := err.(*APIError); ok && apiErr.IsNotFound() {
		return nil
	}
	return err
}

// LoadProtein uploads PDB text as the session receptor.
func (s *SessionsClient) LoadProtein(ctx context.Context, id, name, pdb string) (*ProteinInfo, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if pdb == "" {
		return nil, errors.InvalidParam("pdb content is required")
	}
	var info ProteinInfo
	req := request{
		method:      http.MethodPut,
		path:        sessionPath(id, "/protein"),
		query:       nameQuery(name),
		rawBody:     []byte(pdb),
		contentType: "chemical/x-pdb",
	}
	if err := s.client.do(ctx, req, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// LoadLigands uploads SDF text and replaces the session ligand list.
func (s *SessionsClient) LoadLigands(ctx context.Context, id, name, sdf string) (*LoadResult, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	var res LoadResult
	req := request{
		method:      http.MethodPut,
		path:        sessionPath(id, "/ligands"),
		query:       nameQuery(name),
		rawBody:     []byte(sdf),
		contentType: "chemical/x-mdl-sdfile",
	}
	if err := s.client.do(ctx, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Next moves the cursor forward. At the last ligand the view is unchanged.
func (s *SessionsClient) Next(ctx context.Context, id string) (*View, error) {
	return s.navigate(ctx, id, navigateRequest{Action: "next"})
}

// Previous moves the cursor back. At the first ligand the view is unchanged.
func (s *SessionsClient) Previous(ctx context.Context, id string) (*View, error) {
	return s.navigate(ctx, id, navigateRequest{Action: "previous"})
}

// Select moves the cursor to position.
func (s *SessionsClient) Select(ctx context.Context, id string, position int) (*View, error) {
	if position < 0 {
		return nil, errors.InvalidParam("position must be non-negative")
	}
	return s.navigate(ctx, id, navigateRequest{Action: "select", Index: position})
}

func (s *SessionsClient) navigate(ctx context.Context, id string, body navigateRequest) (*View, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	var view View
	req := request{method: http.MethodPost, path: sessionPath(id, "/navigate"), jsonBody: body}
	if err := s.client.do(ctx, req, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Sort reorders the ligands by score. order is OrderAscending or OrderDescending.
func (s *SessionsClient) Sort(ctx context.Context, id, order string) (*View, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	var view View
	req := request{
		method:   http.MethodPost,
		path:     sessionPath(id, "/sort"),
		jsonBody: map[string]string{"order": order},
	}
	if err := s.client.do(ctx, req, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// SetSite selects the binding site used by Rescore and Dock.
func (s *SessionsClient) SetSite(ctx context.Context, id string, site SiteRequest) (*BindingSite, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	var resp siteResponse
	req := request{method: http.MethodPut, path: sessionPath(id, "/site"), jsonBody: site}
	if err := s.client.do(ctx, req, &resp); err != nil {
		return nil, err
	}
	return &resp.Site, nil
}

// Rescore scores the ligand at position with Vina. A negative position
// scores the ligand under the cursor.
func (s *SessionsClient) Rescore(ctx context.Context, id string, position int) (*RescoreResult, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	var q url.Values
	if position >= 0 {
		q = url.Values{"index": {strconv.Itoa(position)}}
	}
	var res RescoreResult
	req := request{method: http.MethodPost, path: sessionPath(id, "/rescore"), query: q}
	if err := s.client.do(ctx, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// RescoreAll scores every ligand in the session and waits for the batch.
func (s *SessionsClient) RescoreAll(ctx context.Context, id string) (*BatchResult, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	var res BatchResult
	req := request{
		method: http.MethodPost,
		path:   sessionPath(id, "/rescore"),
		query:  url.Values{"all": {"true"}},
	}
	if err := s.client.do(ctx, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SubmitRescoreJob queues a rescore of every ligand for the background
// worker and returns once the job is accepted.
func (s *SessionsClient) SubmitRescoreJob(ctx context.Context, id string) (*RescoreJob, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	var job RescoreJob
	req := request{
		method: http.MethodPost,
		path:   sessionPath(id, "/rescore"),
		query:  url.Values{"async": {"true"}},
	}
	if err := s.client.do(ctx, req, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Dock runs OpenDock for smiles, or for the current ligand when smiles is empty.
func (s *SessionsClient) Dock(ctx context.Context, id, smiles string) (*DockingResult, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	var res DockingResult
	req := request{
		method:   http.MethodPost,
		path:     sessionPath(id, "/dock"),
		jsonBody: map[string]string{"smiles": smiles},
	}
	if err := s.client.do(ctx, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// View returns the rendered HTML page for the session. A nil spin keeps
// the server default.
func (s *SessionsClient) View(ctx context.Context, id string, spin *bool) ([]byte, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	var q url.Values
	if spin != nil {
		q = url.Values{"spin": {strconv.FormatBool(*spin)}}
	}
	var page []byte
	req := request{method: http.MethodGet, path: sessionPath(id, "/view"), query: q, accept: "text/html"}
	if err := s.client.do(ctx, req, &page); err != nil {
		return nil, err
	}
	return page, nil
}

func nameQuery(name string) url.Values {
	if name == "" {
		return nil
	}
	return url.Values{"name": {name}}
}
