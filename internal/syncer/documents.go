package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
)

var ErrInvalidDocument = errors.New("invalid document")

// DocumentStore lists and retrieves raw documents by store prefix.
type DocumentStore interface {
	ListDocumentIDs(ctx context.Context, prefix string) ([]string, error)
	RetrieveDocument(ctx context.Context, prefix, documentID string) ([]byte, error)
}

// DocumentClass describes one kind of result document kept in the store.
type DocumentClass struct {
	Name        string
	StorePrefix string
	// ResultKeys must be present in the document's result object.
	ResultKeys []string
}

func (c DocumentClass) CapabilityName() string {
	return Prefix + c.Name + "_documents"
}

// Classes is the registration order of the built-in capabilities.
var Classes = []DocumentClass{
	{Name: "adviser", StorePrefix: "adviser", ResultKeys: []string{"report"}},
	{Name: "analysis", StorePrefix: "analysis", ResultKeys: []string{"report"}},
	{Name: "inspection", StorePrefix: "inspections", ResultKeys: []string{"job_log"}},
	{Name: "provenance_checker", StorePrefix: "provenance-checker", ResultKeys: []string{"report"}},
	{Name: "solver", StorePrefix: "solver", ResultKeys: []string{"tree"}},
	{Name: "dependency_monkey", StorePrefix: "dependency-monkey", ResultKeys: []string{"report"}},
	{Name: "revsolver", StorePrefix: "revsolver", ResultKeys: []string{"report"}},
	{Name: "security_indicators", StorePrefix: "security-indicators", ResultKeys: []string{"report"}},
}

// Syncer builds the capability registry over a document store.
type Syncer struct {
	store   DocumentStore
	logger  *zap.Logger
	schemas map[string]*jsonschema.Schema
}

func New(store DocumentStore, logger *zap.Logger) (*Syncer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Syncer{
		store:   store,
		logger:  logger,
		schemas: make(map[string]*jsonschema.Schema, len(Classes)),
	}
	for _, class := range Classes {
		schema, err := compileSchema(class)
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", class.Name, err)
		}
		s.schemas[class.Name] = schema
	}
	return s, nil
}

// Registry returns every built-in capability in registration order.
func (s *Syncer) Registry() (*Registry, error) {
	reg := NewRegistry()
	for _, class := range Classes {
		class := class
		fn := func(ctx context.Context, force, graceful bool, graph Graph) (Stats, error) {
			return s.SyncClass(ctx, class, force, graceful, graph)
		}
		if err := reg.Register(class.CapabilityName(), fn); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// SyncClass copies every document of class into graph. Documents already in
// the graph are skipped unless force is set. Per-document failures are
// counted and logged when graceful is set, otherwise the first one is
// returned together with the stats gathered so far.
func (s *Syncer) SyncClass(ctx context.Context, class DocumentClass, force, graceful bool, graph Graph) (Stats, error) {
	var stats Stats
	if s.store == nil {
		return stats, errors.New("document store not configured")
	}
	if graph == nil {
		return stats, errors.New("graph not configured")
	}

	ids, err := s.store.ListDocumentIDs(ctx, class.StorePrefix)
	if err != nil {
		return stats, fmt.Errorf("list %s documents: %w", class.Name, err)
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Processed++

		if !force {
			synced, err := graph.IsDocumentSynced(ctx, class.Name, id)
			if err != nil {
				if graceful {
					s.logger.Warn("Failed to check sync state of document", zap.String("class", class.Name), zap.String("document_id", id), zap.Error(err))
					stats.Failed++
					continue
				}
				return stats, fmt.Errorf("check %s document %s: %w", class.Name, id, err)
			}
			if synced {
				s.logger.Debug("Document already synced", zap.String("class", class.Name), zap.String("document_id", id))
				stats.Skipped++
				continue
			}
		}

		if err := s.syncOne(ctx, class, id, graph); err != nil {
			if graceful {
				s.logger.Warn("Failed to sync document", zap.String("class", class.Name), zap.String("document_id", id), zap.Error(err))
				stats.Failed++
				continue
			}
			return stats, err
		}
		s.logger.Debug("Document synced", zap.String("class", class.Name), zap.String("document_id", id))
		stats.Synced++
	}
	return stats, nil
}

func (s *Syncer) syncOne(ctx context.Context, class DocumentClass, id string, graph Graph) error {
	content, err := s.store.RetrieveDocument(ctx, class.StorePrefix, id)
	if err != nil {
		return fmt.Errorf("retrieve %s document %s: %w", class.Name, id, err)
	}
	if err := s.validate(class, id, content); err != nil {
		return err
	}
	if err := graph.SyncDocument(ctx, class.Name, id, content); err != nil {
		return fmt.Errorf("sync %s document %s: %w", class.Name, id, err)
	}
	return nil
}

func (s *Syncer) validate(class DocumentClass, id string, content []byte) error {
	var doc any
	if err := json.Unmarshal(content, &doc); err != nil {
		return fmt.Errorf("%w: %s document %s: %v", ErrInvalidDocument, class.Name, id, err)
	}
	if schema := s.schemas[class.Name]; schema != nil {
		if err := schema.Validate(doc); err != nil {
			return fmt.Errorf("%w: %s document %s: %v", ErrInvalidDocument, class.Name, id, err)
		}
	}
	obj, _ := doc.(map[string]any)
	meta, _ := obj["metadata"].(map[string]any)
	docID, _ := meta["document_id"].(string)
	if docID != id {
		return fmt.Errorf("%w: %s document %s: metadata.document_id is %q", ErrInvalidDocument, class.Name, id, docID)
	}
	return nil
}

func compileSchema(class DocumentClass) (*jsonschema.Schema, error) {
	result := map[string]any{"type": "object"}
	if len(class.ResultKeys) > 0 {
		result["required"] = class.ResultKeys
	}
	schema := map[string]any{
		"type":     "object",
		"required": []string{"metadata", "result"},
		"properties": map[string]any{
			"metadata": map[string]any{
				"type":     "object",
				"required": []string{"document_id"},
				"properties": map[string]any{
					"document_id": map[string]any{"type": "string", "minLength": 1},
				},
			},
			"result": result,
		},
	}
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	url := class.Name + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(schemaBytes)); err != nil {
		return nil, err
	}
	return compiler.Compile(url)
}
