package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/qubzes/baiyit/internal/models"
)

// PermitConfig points the client at a policy decision point and the Permit
// management API used to keep the user directory in sync.
type PermitConfig struct {
	PDPURL        string
	APIURL        string
	APIKey        string
	ProjectID     string
	EnvironmentID string
}

// Permit asks an external policy decision point whether a (user, action,
// resource) triple is allowed, and mirrors users/roles into the policy engine.
// Every check is a live call; no local caching.
type Permit struct {
	cfg  PermitConfig
	http *http.Client
}

// NewPermit builds a Permit client with a bounded request timeout.
func NewPermit(cfg PermitConfig) *Permit {
	return &Permit{
		cfg:  cfg,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

type permitCheckRequest struct {
	User     permitUserKey  `json:"user"`
	Action   string         `json:"action"`
	Resource permitResource `json:"resource"`
}

type permitUserKey struct {
	Key string `json:"key"`
}

type permitResource struct {
	Type string `json:"type"`
}

type permitCheckResponse struct {
	Allow bool `json:"allow"`
}

// Check asks the PDP whether the user may perform the action on the resource
// type. Transport failures and unexpected statuses are returned as errors so
// callers can fail closed.
func (p *Permit) Check(ctx context.Context, userKey, action, resource string) (bool, error) {
	payload := permitCheckRequest{
		User:     permitUserKey{Key: userKey},
		Action:   action,
		Resource: permitResource{Type: resource},
	}

	var result permitCheckResponse
	if err := p.post(ctx, p.cfg.PDPURL+"/allowed", payload, &result); err != nil {
		return false, err
	}
	return result.Allow, nil
}

type permitUserSync struct {
	Key       string `json:"key"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// SyncUser mirrors the user into the policy engine's directory.
func (p *Permit) SyncUser(ctx context.Context, user *models.User) error {
	payload := permitUserSync{
		Key:       user.ID.String(),
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
	url := fmt.Sprintf("%s/v2/facts/%s/%s/users", p.cfg.APIURL, p.cfg.ProjectID, p.cfg.EnvironmentID)
	return p.post(ctx, url, payload, nil)
}

type permitRoleAssignment struct {
	User   string `json:"user"`
	Role   string `json:"role"`
	Tenant string `json:"tenant"`
}

// AssignRole grants the user a role in the default tenant.
func (p *Permit) AssignRole(ctx context.Context, userKey, role string) error {
	payload := permitRoleAssignment{User: userKey, Role: role, Tenant: "default"}
	url := fmt.Sprintf("%s/v2/facts/%s/%s/role_assignments", p.cfg.APIURL, p.cfg.ProjectID, p.cfg.EnvironmentID)
	return p.post(ctx, url, payload, nil)
}

func (p *Permit) post(ctx context.Context, url string, payload, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.http.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("permit request failed")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn().Int("status", resp.StatusCode).Str("url", strings.TrimPrefix(url, p.cfg.APIURL)).Msg("permit returned non-2xx")
		return fmt.Errorf("permit returned status %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}
