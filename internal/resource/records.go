package resource

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/cebeepredict/admin/internal/observability"
	"github.com/cebeepredict/admin/internal/validation"
	"github.com/cebeepredict/admin/model"
)

// DashboardEndpoint is the backend summary endpoint.
const DashboardEndpoint = "/admin/dashboard"

// recordEndpoint joins a collection endpoint and a record id.
func recordEndpoint(def model.ResourceDefinition, recordID string) string {
	return strings.TrimRight(def.Endpoint, "/") + "/" + url.PathEscape(recordID)
}

func (p *Provider) writable(resourceID string) (model.ResourceDefinition, error) {
	def, err := p.Definition(resourceID)
	if err != nil {
		return def, err
	}
	if !def.Writable {
		return def, model.NewForbiddenError(fmt.Sprintf("resource %q is read-only", resourceID))
	}
	return def, nil
}

func requireID(recordID string) error {
	if strings.TrimSpace(recordID) == "" {
		return model.NewBadRequestError("record id is required")
	}
	return nil
}

// Get fetches one record.
func (p *Provider) Get(ctx context.Context, backend Backend, resourceID, recordID string) (model.Row, error) {
	def, err := p.Definition(resourceID)
	if err != nil {
		return nil, err
	}
	if err := requireID(recordID); err != nil {
		return nil, err
	}
	env := backend.Get(ctx, recordEndpoint(def, recordID), nil)
	if err := env.Err(); err != nil {
		return nil, err
	}
	return toRow(env.Data), nil
}

// Create posts a new record to the collection.
func (p *Provider) Create(ctx context.Context, backend Backend, resourceID string, body map[string]any) (model.Row, error) {
	def, err := p.writable(resourceID)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, model.NewBadRequestError("request body is required")
	}
	env := backend.Post(ctx, def.Endpoint, body)
	if err := env.Err(); err != nil {
		return nil, err
	}
	p.logWrite(ctx, "create", def.ID, model.Row(env.DataMap()).ID())
	return toRow(env.Data), nil
}

// Update replaces a record.
func (p *Provider) Update(ctx context.Context, backend Backend, resourceID, recordID string, body map[string]any) (model.Row, error) {
	def, err := p.writable(resourceID)
	if err != nil {
		return nil, err
	}
	if err := requireID(recordID); err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, model.NewBadRequestError("request body is required")
	}
	env := backend.Put(ctx, recordEndpoint(def, recordID), body)
	if err := env.Err(); err != nil {
		return nil, err
	}
	p.logWrite(ctx, "update", def.ID, recordID)
	return toRow(env.Data), nil
}

// SetStatus patches the status field of a record. The value is sent as
// given; the backend owns the lifecycle and decides which transitions are
// legal.
func (p *Provider) SetStatus(ctx context.Context, backend Backend, resourceID, recordID, value string) (model.Row, error) {
	def, err := p.writable(resourceID)
	if err != nil {
		return nil, err
	}
	if err := requireID(recordID); err != nil {
		return nil, err
	}
	if err := validation.Struct(validation.StatusPatch{Status: value}); err != nil {
		return nil, err
	}
	field := def.StatusField
	if field == "" {
		field = "status"
	}
	env := backend.Patch(ctx, recordEndpoint(def, recordID), map[string]any{field: value})
	if err := env.Err(); err != nil {
		return nil, err
	}
	p.logWrite(ctx, "status", def.ID, recordID, zap.String("status", value))
	return toRow(env.Data), nil
}

// Delete removes a record.
func (p *Provider) Delete(ctx context.Context, backend Backend, resourceID, recordID string) error {
	def, err := p.writable(resourceID)
	if err != nil {
		return err
	}
	if err := requireID(recordID); err != nil {
		return err
	}
	if err := backend.Delete(ctx, recordEndpoint(def, recordID)).Err(); err != nil {
		return err
	}
	p.logWrite(ctx, "delete", def.ID, recordID)
	return nil
}

// RunAction executes a row action by ID. Navigate actions are resolved by
// the caller with ExpandRoute and are rejected here.
func (p *Provider) RunAction(ctx context.Context, backend Backend, resourceID, actionID, recordID string) (model.Row, error) {
	def, err := p.Definition(resourceID)
	if err != nil {
		return nil, err
	}
	var action *model.ActionDefinition
	for i := range def.Actions {
		if def.Actions[i].ID == actionID {
			action = &def.Actions[i]
			break
		}
	}
	if action == nil {
		return nil, model.NewNotFoundError(fmt.Sprintf("action %q not found on resource %q", actionID, resourceID))
	}

	switch action.Type {
	case model.ActionStatus:
		return p.SetStatus(ctx, backend, resourceID, recordID, action.Status)
	case model.ActionDelete:
		return nil, p.Delete(ctx, backend, resourceID, recordID)
	default:
		return nil, model.NewBadRequestError(fmt.Sprintf("action %q is not executable", actionID))
	}
}

// Dashboard fetches the backend summary. A non-object payload is wrapped
// under "data".
func (p *Provider) Dashboard(ctx context.Context, backend Backend) (map[string]any, error) {
	env := backend.Get(ctx, DashboardEndpoint, nil)
	if err := env.Err(); err != nil {
		return nil, err
	}
	if m := env.DataMap(); m != nil {
		return m, nil
	}
	return map[string]any{"data": env.Data}, nil
}

func (p *Provider) logWrite(ctx context.Context, verb, resourceID, recordID string, fields ...zap.Field) {
	log := observability.RequestLogger(ctx, p.logger)
	log.Info("resource "+verb,
		append([]zap.Field{zap.String("resource", resourceID), zap.String("record_id", recordID)}, fields...)...,
	)
}

func toRow(v any) model.Row {
	if m, ok := v.(map[string]any); ok {
		return model.Row(m)
	}
	return model.Row{}
}
