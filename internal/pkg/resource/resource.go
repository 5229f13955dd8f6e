package resource

import (
	"context"
)

// Resolver maps a logical resource id (as used in code and config) to the
// physical name of the resource in the target environment.
type Resolver interface {
	ResolveToPhysicalResourceID(ctx context.Context, logicalID string) (string, error)
}

// Static resolves ids from a fixed mapping. Unmapped ids resolve to themselves.
type Static struct {
	Mappings map[string]string
}

var _ Resolver = Static{}

func (s Static) ResolveToPhysicalResourceID(_ context.Context, logicalID string) (string, error) {
	if physical, ok := s.Mappings[logicalID]; ok && physical != "" {
		return physical, nil
	}
	return logicalID, nil
}
