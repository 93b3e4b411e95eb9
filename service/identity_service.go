package service

import (
	"context"
	"log"
	"strings"

	"fotokeramika/models"
	"fotokeramika/supabase"
)

// IdentityProvider tells the core who is calling.
// It never fails: an unknown or invalid token yields models.Anonymous.
type IdentityProvider interface {
	Identify(ctx context.Context, bearer string) models.Identity
}

// AnonymousIdentityProvider treats every caller as anonymous
type AnonymousIdentityProvider struct{}

func (AnonymousIdentityProvider) Identify(context.Context, string) models.Identity {
	return models.Anonymous
}

// SupabaseIdentityProvider validates access tokens against Supabase auth
type SupabaseIdentityProvider struct {
	client *supabase.Client
}

// NewSupabaseIdentityProvider creates an identity provider backed by Supabase auth
func NewSupabaseIdentityProvider(client *supabase.Client) *SupabaseIdentityProvider {
	return &SupabaseIdentityProvider{client: client}
}

// Identify resolves the bearer token to a user
func (p *SupabaseIdentityProvider) Identify(ctx context.Context, bearer string) models.Identity {
	token := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(bearer), "Bearer "))
	if token == "" {
		return models.Anonymous
	}

	user, err := p.client.Auth().GetUser(ctx, token)
	if err != nil {
		log.Printf("⚠️  Identify: token rejected: %v", err)
		return models.Anonymous
	}
	if user.ID == "" {
		return models.Anonymous
	}
	return models.Identity{Authenticated: true, UserID: user.ID, Email: user.Email}
}
