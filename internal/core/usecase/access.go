package usecase

import "github.com/kirillkom/study-library/internal/core/domain"

// AccessGate authorizes mutating operations against one admin credential.
type AccessGate struct {
	credential domain.Credential
}

func NewAccessGate(credential domain.Credential) *AccessGate {
	return &AccessGate{credential: credential}
}

func (g *AccessGate) Authorize(suppliedCode string) bool {
	return g.credential.Matches(suppliedCode)
}
