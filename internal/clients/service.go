// Package clients implements the client record service: lifecycle CRUD,
// append-only notes/documents/activities, and template-driven custom data.
package clients

import (
	"context"
	goerrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/meridianfc/meridian/internal/errors"
	"github.com/meridianfc/meridian/internal/models"
	"github.com/meridianfc/meridian/internal/store"
	"github.com/meridianfc/meridian/internal/template"
)

// Service manages client records
type Service struct {
	clients   store.ClientStore
	templates store.TemplateStore
	log       zerolog.Logger
}

// NewService creates a client service
func NewService(clients store.ClientStore, templates store.TemplateStore, log zerolog.Logger) *Service {
	return &Service{
		clients:   clients,
		templates: templates,
		log:       log.With().Str("component", "clients").Logger(),
	}
}

// Input carries the caller-editable client attributes
type Input struct {
	Type        models.ClientType   `json:"type"`
	Status      models.ClientStatus `json:"status"`
	Name        string              `json:"name"`
	Email       string              `json:"email"`
	Phone       string              `json:"phone"`
	Company     string              `json:"company"`
	Preferences models.JSONB        `json:"preferences"`
	Tags        []string            `json:"tags"`
}

// Get returns one client record
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	client, err := s.clients.Get(ctx, id)
	if err != nil {
		if goerrors.Is(err, store.ErrNotFound) {
			return nil, errors.NewNotFoundError("client")
		}
		return nil, err
	}
	return client, nil
}

// List returns all client records. A non-empty query narrows the result
// to clients whose name, email or company contains it.
func (s *Service) List(ctx context.Context, query string) ([]models.Client, error) {
	if strings.TrimSpace(query) != "" {
		return s.clients.Search(ctx, strings.TrimSpace(query))
	}
	return s.clients.List(ctx)
}

// Create adds a new client record stamped with creation metadata
func (s *Service) Create(ctx context.Context, actorID *uuid.UUID, input Input) (*models.Client, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	client := &models.Client{
		ID:          uuid.New(),
		Type:        input.Type,
		Status:      input.Status,
		Name:        strings.TrimSpace(input.Name),
		Email:       strings.TrimSpace(input.Email),
		Phone:       strings.TrimSpace(input.Phone),
		Company:     strings.TrimSpace(input.Company),
		JoinedAt:    now,
		Preferences: input.Preferences,
		Documents:   models.DocumentList{},
		Notes:       models.NoteList{},
		Activities:  models.ActivityList{},
		Tags:        models.StringArray(input.Tags),
		Metadata: models.RecordMeta{
			CreatedAt: now,
			CreatedBy: actorID,
			UpdatedAt: now,
			UpdatedBy: actorID,
			Version:   1,
		},
	}
	if client.Status == "" {
		client.Status = models.StatusPending
	}
	if client.Preferences == nil {
		client.Preferences = models.JSONB{}
	}

	if err := s.clients.Create(ctx, client); err != nil {
		return nil, err
	}
	s.log.Info().Str("client_id", client.ID.String()).Str("name", client.Name).Msg("client created")
	return client, nil
}

// Update edits a client's base attributes and bumps the record version
func (s *Service) Update(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, input Input) (*models.Client, error) {
	client, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	client.Type = input.Type
	client.Status = input.Status
	client.Name = strings.TrimSpace(input.Name)
	client.Email = strings.TrimSpace(input.Email)
	client.Phone = strings.TrimSpace(input.Phone)
	client.Company = strings.TrimSpace(input.Company)
	if input.Preferences != nil {
		client.Preferences = input.Preferences
	}
	if input.Tags != nil {
		client.Tags = models.StringArray(input.Tags)
	}

	return client, s.save(ctx, client, actorID)
}

// Delete removes a client record permanently
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.clients.Delete(ctx, id); err != nil {
		if goerrors.Is(err, store.ErrNotFound) {
			return errors.NewNotFoundError("client")
		}
		return err
	}
	s.log.Info().Str("client_id", id.String()).Msg("client deleted")
	return nil
}

// AddNote appends a note to the client's notes list. Notes are append-only;
// there is no edit or delete path.
func (s *Service) AddNote(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, content string) (*models.Client, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.NewValidationError("content", "Note content is required")
	}
	client, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	client.Notes = append(client.Notes, models.NoteEntry{
		ID:        uuid.NewString(),
		Content:   strings.TrimSpace(content),
		CreatedBy: actorID,
		CreatedAt: time.Now().UTC(),
	})
	return client, s.save(ctx, client, actorID)
}

// AddDocument appends document metadata to the client's documents list
func (s *Service) AddDocument(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, name, url string) (*models.Client, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.NewValidationError("name", "Document name is required")
	}
	client, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	client.Documents = append(client.Documents, models.DocumentEntry{
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(name),
		URL:        strings.TrimSpace(url),
		UploadedBy: actorID,
		CreatedAt:  time.Now().UTC(),
	})
	return client, s.save(ctx, client, actorID)
}

// AddActivity appends an activity entry to the client's activity list
func (s *Service) AddActivity(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, kind, description string) (*models.Client, error) {
	if strings.TrimSpace(kind) == "" {
		return nil, errors.NewValidationError("kind", "Activity kind is required")
	}
	client, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	client.Activities = append(client.Activities, models.ActivityEntry{
		ID:          uuid.NewString(),
		Kind:        strings.TrimSpace(kind),
		Description: strings.TrimSpace(description),
		CreatedBy:   actorID,
		CreatedAt:   time.Now().UTC(),
	})
	return client, s.save(ctx, client, actorID)
}

// AttachTemplate assigns a template to the client and initializes an empty
// data payload shaped to the template's current structure
func (s *Service) AttachTemplate(ctx context.Context, actorID *uuid.UUID, id, templateID uuid.UUID) (*models.Client, error) {
	client, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tpl, err := s.templates.Get(ctx, templateID)
	if err != nil {
		if goerrors.Is(err, store.ErrNotFound) {
			return nil, errors.NewNotFoundError("template")
		}
		return nil, err
	}

	client.TemplateID = &templateID
	client.TemplateData = template.InitializeTemplateData(tpl)
	return client, s.save(ctx, client, actorID)
}

// UpdateTemplateData validates a data payload against the client's template
// and stores it when valid. Data problems come back in the result with no
// write; a deleted template reference stores the payload unvalidated, so a
// client outliving its template keeps working in a degraded state.
func (s *Service) UpdateTemplateData(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, data *models.TemplateData) (*models.Client, template.ValidationResult, error) {
	client, err := s.Get(ctx, id)
	if err != nil {
		return nil, template.ValidationResult{}, err
	}
	if client.TemplateID == nil {
		return nil, template.ValidationResult{}, errors.NewValidationError("templateId", "Client has no template assigned")
	}

	tpl, err := s.templates.Get(ctx, *client.TemplateID)
	if err != nil {
		if !goerrors.Is(err, store.ErrNotFound) {
			return nil, template.ValidationResult{}, err
		}
		s.log.Warn().Str("client_id", id.String()).Str("template_id", client.TemplateID.String()).
			Msg("assigned template no longer exists, storing data unvalidated")
		client.TemplateData = data
		return client, template.ValidationResult{IsValid: true}, s.save(ctx, client, actorID)
	}

	result, err := template.ValidateTemplateData(tpl, data)
	if err != nil {
		return nil, template.ValidationResult{}, err
	}
	if !result.IsValid {
		return client, result, nil
	}

	client.TemplateData = data
	return client, result, s.save(ctx, client, actorID)
}

// save stamps update metadata, bumps the version and persists the record
func (s *Service) save(ctx context.Context, client *models.Client, actorID *uuid.UUID) error {
	client.Metadata.UpdatedAt = time.Now().UTC()
	client.Metadata.UpdatedBy = actorID
	client.Metadata.Version++
	if err := s.clients.Update(ctx, client); err != nil {
		if goerrors.Is(err, store.ErrNotFound) {
			return errors.NewNotFoundError("client")
		}
		return err
	}
	return nil
}

func validateInput(input Input) error {
	var fields []errors.FieldError
	if strings.TrimSpace(input.Name) == "" {
		fields = append(fields, errors.FieldError{Field: "name", Message: "Client name is required"})
	}
	if !input.Type.Valid() {
		fields = append(fields, errors.FieldError{Field: "type", Message: "Unknown client type"})
	}
	if input.Status != "" && !input.Status.Valid() {
		fields = append(fields, errors.FieldError{Field: "status", Message: "Unknown client status"})
	}
	if len(fields) > 0 {
		return errors.NewValidationErrors(fields)
	}
	return nil
}
