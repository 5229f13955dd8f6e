// Package registry holds the named messaging templates of the application.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"

	"aws-sqs-messaging-template/internal/pkg/logger"
	"aws-sqs-messaging-template/internal/pkg/messaging"
	"aws-sqs-messaging-template/internal/pkg/messaging/converter"
	"aws-sqs-messaging-template/internal/pkg/messaging/destination"
	"aws-sqs-messaging-template/internal/pkg/queue"
)

var (
	ErrDuplicate = errors.New("template already registered")
	ErrNotFound  = errors.New("template not found")
)

// Definition describes one named template.
type Definition struct {
	Name               string `json:"name" validate:"required"`
	DefaultDestination string `json:"defaultDestination" validate:"required"`
	Converter          string `json:"converter" validate:"omitempty,oneof=default json string object"`
}

// Registry builds templates from definitions and looks them up by name.
// All templates share the queue client and destination resolver.
type Registry struct {
	Queue     queue.Client
	Resolver  destination.Resolver
	Validator *validator.Validate

	mu          sync.RWMutex
	templates   map[string]*messaging.Template
	definitions map[string]Definition
}

func New(client queue.Client, resolver destination.Resolver) *Registry {
	return &Registry{
		Queue:       client,
		Resolver:    resolver,
		Validator:   validator.New(),
		templates:   map[string]*messaging.Template{},
		definitions: map[string]Definition{},
	}
}

// Register validates def and builds its template.
func (r *Registry) Register(def Definition) (*messaging.Template, error) {
	if err := r.Validator.Struct(def); err != nil {
		return nil, fmt.Errorf("invalid template definition %q: %w", def.Name, err)
	}
	conv, err := converter.ByName(def.Converter)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[def.Name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicate, def.Name)
	}

	tpl := messaging.NewTemplate(r.Queue, r.Resolver,
		messaging.WithDefaultDestination(def.DefaultDestination),
		messaging.WithConverter(conv),
	)
	r.templates[def.Name] = tpl
	r.definitions[def.Name] = def
	logger.Info("Registered template %s (destination: %s, converter: %s)", def.Name, def.DefaultDestination, converterName(def.Converter))
	return tpl, nil
}

// RegisterAll registers defs in order and stops at the first failure.
func (r *Registry) RegisterAll(defs []Definition) error {
	for _, def := range defs {
		if _, err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) Get(name string) (*messaging.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tpl, ok := r.templates[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return tpl, nil
}

// Definition returns the definition a template was registered with.
func (r *Registry) Definition(name string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return def, nil
}

// Names returns the registered template names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func converterName(name string) string {
	if name == "" {
		return converter.NameDefault
	}
	return name
}
